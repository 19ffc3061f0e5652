// Package demo provides the built-in fixture calendars used by
// `calclash run --demo`: three origins with canned, paged event data and
// simulated network latency, small enough to eyeball the output.
package demo

import (
	"time"

	"calclash/internal/model"
	"calclash/internal/pipeline"
	"calclash/internal/source"
)

// Sources returns the three fixture calendars. Events are laid out on
// the given day; two conflict pairs exist regardless of which source
// delivers first.
func Sources(day time.Time, loc *time.Location) []pipeline.Source {
	at := func(h, m int) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, loc)
	}

	personal := [][]model.Event{
		{
			{Start: at(9, 15), End: at(9, 30), Label: "Morning breathing exercises"},
		},
		{
			{Start: at(14, 0), End: at(14, 45), Label: "Gym"},
		},
	}

	work := [][]model.Event{
		{
			{Start: at(9, 0), End: at(9, 30), Label: "Morning standup"},
			{Start: at(11, 15), End: at(11, 30), Label: "1:1"},
		},
		{
			{Start: at(15, 0), End: at(16, 0), Label: "Sprint review"},
		},
	}

	family := [][]model.Event{
		{
			{Start: at(11, 0), End: at(11, 30), Label: "Accountant"},
			{Start: at(17, 30), End: at(18, 0), Label: "School pickup"},
		},
	}

	return []pipeline.Source{
		{ID: "personal", Provider: source.NewStatic(personal, 120*time.Millisecond)},
		{ID: "work", Provider: source.NewStatic(work, 80*time.Millisecond)},
		{ID: "family", Provider: source.NewStatic(family, 60*time.Millisecond)},
	}
}
