package ics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calclash/internal/model"
)

var (
	expandFeed = Feed{ID: "work"}
	winStart   = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	winEnd     = time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
)

func TestExpand_SingleEventInWindow(t *testing.T) {
	parsed := []ParsedEvent{{
		Feed:    expandFeed,
		UID:     "single@example.com",
		Summary: "Dentist",
		Start:   time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC),
		End:     time.Date(2025, 3, 3, 9, 30, 0, 0, time.UTC),
	}}

	events, err := Expand(parsed, Window{Start: winStart, End: winEnd})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Dentist", events[0].Label)
	assert.Equal(t, "work", events[0].Source)
	assert.Equal(t, parsed[0].Start, events[0].Start)
	assert.Equal(t, parsed[0].End, events[0].End)
}

func TestExpand_SingleEventOutsideWindow(t *testing.T) {
	parsed := []ParsedEvent{{
		Feed:    expandFeed,
		UID:     "past@example.com",
		Summary: "Last year",
		Start:   time.Date(2024, 3, 3, 9, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 3, 3, 9, 30, 0, 0, time.UTC),
	}}

	events, err := Expand(parsed, Window{Start: winStart, End: winEnd})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestExpand_DailyRecurrence(t *testing.T) {
	parsed := []ParsedEvent{{
		Feed:     expandFeed,
		UID:      "daily@example.com",
		Summary:  "Standup",
		Start:    time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC),
		End:      time.Date(2025, 3, 3, 9, 15, 0, 0, time.UTC),
		RawRRule: "FREQ=DAILY;COUNT=5",
	}}

	events, err := Expand(parsed, Window{Start: winStart, End: winEnd})
	require.NoError(t, err)
	require.Len(t, events, 5)

	for i, ev := range events {
		wantStart := time.Date(2025, 3, 3+i, 9, 0, 0, 0, time.UTC)
		assert.True(t, ev.Start.Equal(wantStart), "occurrence %d start %s", i, ev.Start)
		assert.Equal(t, 15*time.Minute, ev.End.Sub(ev.Start), "duration is preserved")
		assert.Equal(t, "Standup", ev.Label)
	}
}

func TestExpand_ExDateRemovesOccurrence(t *testing.T) {
	parsed := []ParsedEvent{{
		Feed:     expandFeed,
		UID:      "daily@example.com",
		Summary:  "Standup",
		Start:    time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC),
		End:      time.Date(2025, 3, 3, 9, 15, 0, 0, time.UTC),
		RawRRule: "FREQ=DAILY;COUNT=5",
		ExDates:  []time.Time{time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)},
	}}

	events, err := Expand(parsed, Window{Start: winStart, End: winEnd})
	require.NoError(t, err)
	require.Len(t, events, 4)
	for _, ev := range events {
		assert.NotEqual(t, 5, ev.Start.Day(), "excluded occurrence must not appear")
	}
}

func TestExpand_AllDaySpansWholeDay(t *testing.T) {
	parsed := []ParsedEvent{{
		Feed:    expandFeed,
		UID:     "allday@example.com",
		Summary: "Conference",
		Start:   time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
		AllDay:  true,
	}}

	events, err := Expand(parsed, Window{Start: winStart, End: winEnd})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 24*time.Hour-time.Nanosecond, events[0].End.Sub(events[0].Start))
	assert.Equal(t, 0, events[0].Start.Hour())
}

// An all-day event owns its day but not the next one: a meeting that
// starts exactly at the following midnight must not conflict with it,
// even under the inclusive-bounds overlap rule.
func TestExpand_AllDayDoesNotTouchNextMidnight(t *testing.T) {
	parsed := []ParsedEvent{{
		Feed:    expandFeed,
		UID:     "allday@example.com",
		Summary: "Conference",
		Start:   time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
		AllDay:  true,
	}}

	events, err := Expand(parsed, Window{Start: winStart, End: winEnd})
	require.NoError(t, err)
	require.Len(t, events, 1)

	nextMidnight := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	assert.True(t, events[0].End.Before(nextMidnight))

	earlyMeeting := model.Event{
		Start: nextMidnight,
		End:   nextMidnight.Add(30 * time.Minute),
		Label: "Red-eye sync",
	}
	assert.False(t, events[0].Overlaps(earlyMeeting))

	// Anything inside the day itself still conflicts.
	lateMeeting := model.Event{
		Start: nextMidnight.Add(-time.Minute),
		End:   nextMidnight.Add(-30 * time.Second),
		Label: "Last call",
	}
	assert.True(t, events[0].Overlaps(lateMeeting))
}

func TestExpand_InvalidRRuleSkipsEvent(t *testing.T) {
	parsed := []ParsedEvent{
		{
			Feed:     expandFeed,
			UID:      "broken@example.com",
			Summary:  "Broken",
			Start:    time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC),
			End:      time.Date(2025, 3, 3, 9, 30, 0, 0, time.UTC),
			RawRRule: "FREQ=NONSENSE",
		},
		{
			Feed:    expandFeed,
			UID:     "ok@example.com",
			Summary: "Fine",
			Start:   time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC),
			End:     time.Date(2025, 3, 3, 10, 30, 0, 0, time.UTC),
		},
	}

	events, err := Expand(parsed, Window{Start: winStart, End: winEnd})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Fine", events[0].Label)
}

func TestExpand_InvertedWindow(t *testing.T) {
	_, err := Expand(nil, Window{Start: winEnd, End: winStart})
	assert.Error(t, err)
}
