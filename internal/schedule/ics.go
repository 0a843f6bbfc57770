package schedule

import (
	"fmt"
	"io"
	"time"

	"dayblocks/internal/models"

	"github.com/emersion/go-ical"
)

const productID = "-//dayblocks//EN"

// NewCalendar wraps the events in a VCALENDAR component.
func NewCalendar(events []models.Event, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	for _, ev := range events {
		cal.Children = append(cal.Children, ToVEvent(ev, now))
	}
	return cal
}

// ToVEvent converts an event into a VEVENT with one VALARM per reminder.
// Times are written in UTC so the calendar needs no VTIMEZONE.
func ToVEvent(ev models.Event, now time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, ev.UID)
	ve.Props.SetText(ical.PropSummary, ev.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, ev.StartTime.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, ev.EndTime.UTC())

	for _, minutes := range ev.ReminderMinutes() {
		alarm := ical.NewComponent(ical.CompAlarm)
		alarm.Props.SetText(ical.PropAction, "DISPLAY")
		alarm.Props.SetText(ical.PropDescription, ev.Title)
		trigger := ical.NewProp(ical.PropTrigger)
		trigger.Value = fmt.Sprintf("-PT%dM", minutes)
		alarm.Props.Set(trigger)
		ve.Children = append(ve.Children, alarm)
	}
	return ve
}

// EncodeICS writes the events as an iCalendar document.
func EncodeICS(w io.Writer, events []models.Event, now time.Time) error {
	if err := ical.NewEncoder(w).Encode(NewCalendar(events, now)); err != nil {
		return fmt.Errorf("failed to encode schedule to iCal format: %w", err)
	}
	return nil
}
