// Package schedule holds the daily template and turns it into calendar events.
package schedule

import (
	"errors"
	"fmt"
	"os"

	"dayblocks/internal/models"

	"gopkg.in/yaml.v3"
)

// ErrInvalidTemplate is returned when a template breaks the ordering rules.
var ErrInvalidTemplate = errors.New("invalid schedule template")

var defaultEntries = []struct{ start, end, label string }{
	{"06:00", "06:30", "Wake up and hydrate"},
	{"06:30", "07:00", "Exercise"},
	{"07:00", "07:30", "Shower and get ready"},
	{"07:30", "08:00", "Breakfast"},
	{"08:00", "08:30", "Plan the day"},
	{"08:30", "10:00", "Deep work"},
	{"10:00", "10:15", "Break"},
	{"10:15", "12:00", "Deep work"},
	{"12:00", "13:00", "Lunch"},
	{"13:00", "14:00", "Email and messages"},
	{"14:00", "15:30", "Meetings"},
	{"15:30", "15:45", "Break"},
	{"15:45", "17:00", "Project work"},
	{"17:00", "17:30", "Review and wrap up"},
	{"17:30", "18:30", "Walk"},
	{"18:30", "19:30", "Dinner"},
	{"19:30", "20:30", "Family time"},
	{"20:30", "21:30", "Reading"},
	{"21:30", "22:00", "Wind down"},
}

// DefaultTemplate returns the built-in day.
func DefaultTemplate() []models.ScheduleEntry {
	entries := make([]models.ScheduleEntry, 0, len(defaultEntries))
	for _, e := range defaultEntries {
		start, _ := models.ParseTimeOfDay(e.start)
		end, _ := models.ParseTimeOfDay(e.end)
		entries = append(entries, models.ScheduleEntry{Start: start, End: end, Label: e.label})
	}
	return entries
}

type templateFile struct {
	Entries []struct {
		Start string `yaml:"start"`
		End   string `yaml:"end"`
		Label string `yaml:"label"`
	} `yaml:"entries"`
}

// LoadTemplate reads a YAML template of the form:
//
//	entries:
//	  - start: "08:00"
//	    end: "08:30"
//	    label: Focus
func LoadTemplate(path string) ([]models.ScheduleEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read schedule template: %w", err)
	}
	return ParseTemplate(data)
}

// ParseTemplate decodes and validates YAML template content.
func ParseTemplate(data []byte) ([]models.ScheduleEntry, error) {
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unable to parse schedule template: %w", err)
	}

	entries := make([]models.ScheduleEntry, 0, len(file.Entries))
	for i, e := range file.Entries {
		start, err := models.ParseTimeOfDay(e.Start)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		end, err := models.ParseTimeOfDay(e.End)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		entries = append(entries, models.ScheduleEntry{Start: start, End: end, Label: e.Label})
	}

	if err := Validate(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Validate checks that every entry ends after it starts, that entries are ordered
// by start time and that no two entries overlap.
func Validate(entries []models.ScheduleEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: no entries", ErrInvalidTemplate)
	}
	for i, e := range entries {
		if e.Label == "" {
			return fmt.Errorf("%w: entry %d has no label", ErrInvalidTemplate, i)
		}
		if e.Start.Minutes() >= e.End.Minutes() {
			return fmt.Errorf("%w: entry %d (%s) ends at %s before it starts at %s", ErrInvalidTemplate, i, e.Label, e.End, e.Start)
		}
		if i == 0 {
			continue
		}
		prev := entries[i-1]
		if e.Start.Minutes() < prev.Start.Minutes() {
			return fmt.Errorf("%w: entry %d (%s) is out of order", ErrInvalidTemplate, i, e.Label)
		}
		if e.Start.Minutes() < prev.End.Minutes() {
			return fmt.Errorf("%w: entry %d (%s) overlaps %s", ErrInvalidTemplate, i, e.Label, prev.Label)
		}
	}
	return nil
}
