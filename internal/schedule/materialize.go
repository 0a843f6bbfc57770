package schedule

import (
	"time"

	"dayblocks/internal/models"

	"github.com/google/uuid"
)

// Reminder offsets attached to every event.
var reminderOffsets = []time.Duration{10 * time.Minute, 30 * time.Minute}

var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("dayblocks:event"))

// Materialize projects the template onto the calendar date of day in loc.
// The output has one event per entry, in template order. The same inputs always
// yield the same UIDs.
func Materialize(entries []models.ScheduleEntry, day time.Time, loc *time.Location) []models.Event {
	year, month, date := day.Date()
	stamp := day.Format(time.DateOnly)

	events := make([]models.Event, 0, len(entries))
	for _, entry := range entries {
		reminders := make([]time.Duration, len(reminderOffsets))
		copy(reminders, reminderOffsets)

		// The end is derived from the entry length so a DST gap between start
		// and end cannot reorder them.
		start := entry.Start.On(year, month, date, loc)
		length := time.Duration(entry.End.Minutes()-entry.Start.Minutes()) * time.Minute

		events = append(events, models.Event{
			UID:       uuid.NewSHA1(eventNamespace, []byte(stamp+"|"+entry.Start.String()+"|"+entry.Label)).String(),
			Title:     entry.Label,
			StartTime: start,
			EndTime:   start.Add(length),
			TimeZone:  loc.String(),
			Reminders: reminders,
		})
	}
	return events
}
