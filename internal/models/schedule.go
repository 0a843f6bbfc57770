package models

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time without a date, at minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses an "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Minutes returns the number of minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// On places the time of day on the given calendar date in loc.
func (t TimeOfDay) On(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, t.Hour, t.Minute, 0, 0, loc)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ScheduleEntry is one block of the daily template.
type ScheduleEntry struct {
	Start TimeOfDay
	End   TimeOfDay
	Label string
}

// Credentials is the token bundle obtained from the identity provider.
type Credentials struct {
	AccessToken  string
	RefreshToken string    // Empty when the provider did not issue one
	Expiry       time.Time // Zero when the token does not expire
}
