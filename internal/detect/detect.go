// Package detect holds the consumer side of the pipeline: a single
// goroutine draining the queue, growing the conflict index, and emitting
// a report whenever a newly inserted event overlaps anything already
// indexed.
package detect

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"calclash/internal/index"
	"calclash/internal/model"
	"calclash/internal/queue"
)

// Report is the transient value surfaced when an insertion produces an
// overlap. Events lists every event whose interval overlaps the trigger,
// trigger included, ordered by start, then end, then insertion order. A
// report is only emitted when len(Events) > 1.
type Report struct {
	// Trigger is the event whose arrival produced this report.
	Trigger model.Event
	// Events is the full mutually-overlapping set, deterministically ordered.
	Events []model.Event
	// DetectedAt is when the report was produced.
	DetectedAt time.Time
}

// Sink receives conflict reports as they are detected.
type Sink func(Report)

// Stats summarizes one detector run.
type Stats struct {
	EventsRead int
	Malformed  int
	Conflicts  int
}

// Detector owns the conflict index. Exactly one goroutine runs it, so
// the index needs no locking.
type Detector struct {
	queue  *queue.Queue
	index  *index.Index
	sink   Sink
	logger zerolog.Logger

	stats Stats
}

// New creates a detector bound to the queue's read side. sink may be nil,
// in which case reports are only counted.
func New(q *queue.Queue, sink Sink, logger zerolog.Logger) *Detector {
	return &Detector{
		queue:  q,
		index:  index.New(),
		sink:   sink,
		logger: logger.With().Str("component", "detector").Logger(),
	}
}

// Run drains the queue until it is closed and empty, handling each event
// as it arrives. Termination is a success regardless of how many
// conflicts were found. The returned stats are only valid after Run
// returns.
func (d *Detector) Run(ctx context.Context) Stats {
	for d.queue.WaitReadable(ctx) {
		for {
			ev, ok := d.queue.TryRead()
			if !ok {
				break
			}
			d.handle(ev)
		}
	}

	d.logger.Debug().
		Int("events", d.stats.EventsRead).
		Int("malformed", d.stats.Malformed).
		Int("conflicts", d.stats.Conflicts).
		Msg("queue drained")
	return d.stats
}

// handle inserts one event and queries for overlaps. A malformed event
// is rejected by the index, logged, and counted; later valid events are
// unaffected.
func (d *Detector) handle(ev model.Event) {
	d.stats.EventsRead++

	if err := d.index.Insert(ev); err != nil {
		if errors.Is(err, model.ErrMalformed) {
			d.stats.Malformed++
			d.logger.Error().Err(err).Str("source", ev.Source).Msg("event rejected")
			return
		}
		// Insert only fails on validation today; keep the fallback loud.
		d.logger.Error().Err(err).Str("source", ev.Source).Msg("index insert failed")
		return
	}

	overlapping := d.index.Overlapping(ev.Start, ev.End)
	if len(overlapping) <= 1 {
		return
	}

	d.stats.Conflicts++
	if d.sink != nil {
		d.sink(Report{
			Trigger:    ev,
			Events:     overlapping,
			DetectedAt: time.Now(),
		})
	}
}
