package ics

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/teambition/rrule-go"

	"calclash/internal/model"
)

const defaultMaxOccurrencesPerEvent = 5000

// Window bounds recurrence expansion, inclusive on both ends.
type Window struct {
	Start time.Time
	End   time.Time

	// MaxOccurrencesPerEvent caps expansion of pathological rules.
	// Zero means defaultMaxOccurrencesPerEvent.
	MaxOccurrencesPerEvent int
}

// Expand turns parsed VEVENTs into concrete events within the window.
// Handled: single events, RRULE recurrence, EXDATE exceptions, and
// all-day semantics (an all-day occurrence spans [00:00, 24:00) of its
// day in the event's own timezone, materialized as ending at the last
// instant before next midnight). An RRULE that fails to parse drops
// only that event.
func Expand(events []ParsedEvent, w Window) ([]model.Event, error) {
	if w.End.Before(w.Start) {
		return nil, errors.New("expand: window end is before window start")
	}
	maxOcc := w.MaxOccurrencesPerEvent
	if maxOcc <= 0 {
		maxOcc = defaultMaxOccurrencesPerEvent
	}

	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if ev.RawRRule == "" {
			if single, ok := expandSingle(ev, w); ok {
				out = append(out, single)
			}
			continue
		}
		out = append(out, expandRecurring(ev, w, maxOcc)...)
	}
	return out, nil
}

func expandSingle(ev ParsedEvent, w Window) (model.Event, bool) {
	start, end := normalizeSpan(ev, ev.Start)
	if end.Before(w.Start) || start.After(w.End) {
		return model.Event{}, false
	}
	return model.Event{Start: start, End: end, Label: ev.Summary, Source: ev.Feed.ID}, true
}

func expandRecurring(ev ParsedEvent, w Window, maxOcc int) []model.Event {
	out := make([]model.Event, 0)

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		log.Error().Err(err).Str("uid", ev.UID).Str("rrule", ev.RawRRule).
			Msg("expand: failed to parse RRULE, skipping event")
		return out
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Between works in the event's own location; convert the window.
	rangeStart := w.Start.In(ev.Start.Location())
	rangeEnd := w.End.In(ev.Start.Location())

	occTimes := set.Between(rangeStart, rangeEnd, true)
	if len(occTimes) > maxOcc {
		occTimes = occTimes[:maxOcc]
		log.Error().Str("uid", ev.UID).Int("cap", maxOcc).
			Msg("expand: truncated occurrences for UID due to cap")
	}

	for _, occStart := range occTimes {
		start, end := normalizeSpan(ev, occStart)
		out = append(out, model.Event{Start: start, End: end, Label: ev.Summary, Source: ev.Feed.ID})
	}
	return out
}

// normalizeSpan computes the concrete [start, end] of one occurrence
// beginning at occStart, applying all-day semantics or preserving the
// original duration. The overlap rule downstream is bounds-inclusive,
// so an all-day span ends at the last instant of its day rather than
// next midnight; otherwise it would conflict with a meeting starting at
// 00:00 the following day.
func normalizeSpan(ev ParsedEvent, occStart time.Time) (time.Time, time.Time) {
	if ev.AllDay {
		day := time.Date(occStart.Year(), occStart.Month(), occStart.Day(),
			0, 0, 0, 0, occStart.Location())
		return day, day.Add(24*time.Hour - time.Nanosecond)
	}
	return occStart, occStart.Add(ev.End.Sub(ev.Start))
}
