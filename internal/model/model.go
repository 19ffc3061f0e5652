package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrMalformed indicates an event whose interval is inverted (Start after
// End). Such events are rejected at insertion into the conflict index and
// reported as a data-contract violation of the producing source.
var ErrMalformed = errors.New("malformed event: start is after end")

// Event is a single occurrence on some calendar. Immutable once created;
// events have no identity beyond their field values, and two sources may
// legitimately produce events with identical intervals.
type Event struct {
	// Start / End bound the occupied interval, inclusive on both ends.
	Start time.Time
	End   time.Time

	// Label is the human-readable title shown in conflict reports.
	Label string

	// Source identifies the originating calendar (config source ID).
	Source string
}

// Validate checks the Start <= End invariant.
func (e Event) Validate() error {
	if e.Start.After(e.End) {
		return fmt.Errorf("%w: %q [%s, %s]", ErrMalformed, e.Label,
			e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
	}
	return nil
}

// Overlaps reports whether the two events occupy at least one common
// instant. Bounds are inclusive: events that merely touch at an endpoint
// (one ends exactly when the other starts) are treated as overlapping.
func (e Event) Overlaps(other Event) bool {
	return !e.Start.After(other.End) && !other.Start.After(e.End)
}

func (e Event) String() string {
	return fmt.Sprintf("%s - %s: %s",
		e.Start.Format("2006-01-02 15:04"),
		e.End.Format("2006-01-02 15:04"),
		e.Label)
}
