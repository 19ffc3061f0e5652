package source

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"calclash/internal/model"
	"calclash/internal/queue"
)

// Provider is the paging capability a source runner drives. It is
// stateful per instance: each call advances an internal cursor and
// returns the next page of events. An empty page signals exhaustion and
// must eventually be returned for the pipeline to terminate.
type Provider interface {
	FetchNextPage(ctx context.Context) ([]model.Event, error)
}

// Runner pages through a single provider and pushes every event it
// receives onto the shared queue. It never reads the queue and never
// closes it; close is the orchestrator's job once all runners settle.
type Runner struct {
	ID       string
	Provider Provider
	Queue    *queue.Queue
	Logger   zerolog.Logger
}

// NewRunner binds a provider to the queue's write side.
func NewRunner(id string, p Provider, q *queue.Queue, logger zerolog.Logger) *Runner {
	return &Runner{
		ID:       id,
		Provider: p,
		Queue:    q,
		Logger:   logger.With().Str("source", id).Logger(),
	}
}

// Run fetches pages until the provider returns an empty one, writing
// events in page order then within-page order. It returns the number of
// events written, which the orchestrator aggregates for the
// reads-equals-writes conservation check. A fetch failure is returned
// to the caller; it does not disturb the queue or any sibling source,
// and the count still covers everything written before the failure.
func (r *Runner) Run(ctx context.Context) (int, error) {
	pages := 0
	written := 0

	for {
		page, err := r.Provider.FetchNextPage(ctx)
		if err != nil {
			r.Logger.Error().Err(err).Int("pages", pages).Msg("page fetch failed")
			return written, fmt.Errorf("source %s: page %d: %w", r.ID, pages, err)
		}
		if len(page) == 0 {
			r.Logger.Debug().Int("pages", pages).Int("events", written).Msg("source exhausted")
			return written, nil
		}

		for _, ev := range page {
			ev.Source = r.ID
			r.Queue.Write(ev)
			written++
		}
		pages++
	}
}
