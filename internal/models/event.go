package models

import "time"

// Event represents one calendar event derived from a schedule entry.
// This is an internal representation, independent of any specific calendar provider.
type Event struct {
	UID       string          // Stable identifier, derived from the date and entry
	Title     string          // Label of the schedule entry
	StartTime time.Time       // Start instant, in the target timezone
	EndTime   time.Time       // End instant, in the target timezone
	TimeZone  string          // IANA name of the target timezone
	Reminders []time.Duration // Offsets before StartTime
}

// ReminderMinutes returns the reminder offsets in whole minutes.
func (e Event) ReminderMinutes() []int64 {
	out := make([]int64, 0, len(e.Reminders))
	for _, r := range e.Reminders {
		out = append(out, int64(r/time.Minute))
	}
	return out
}
