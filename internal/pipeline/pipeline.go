// Package pipeline wires sources, queue, and detector together for one
// run and owns the queue's close protocol.
package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"calclash/internal/detect"
	"calclash/internal/queue"
	"calclash/internal/source"
)

// Source names a provider for one run.
type Source struct {
	ID       string
	Provider source.Provider
}

// Stats summarizes a completed run. EventsWritten equals EventsRead on
// every run: the queue loses nothing between the sources and the
// detector.
type Stats struct {
	RunID         string
	Sources       int
	EventsWritten int
	EventsRead    int
	Malformed     int
	Conflicts     int
	Elapsed       time.Duration
}

// Run executes the full pipeline once: it constructs the queue, starts
// the detector on the read side, starts one runner goroutine per source
// on the write side, waits for every runner to settle (a failing source
// does not cancel its siblings), closes the queue, and finally waits for
// the detector to finish draining.
//
// The first source failure, if any, is returned alongside the stats;
// conflicts detected before a later failure are still delivered to the
// sink. Run is the only caller of Close on the queue.
func Run(ctx context.Context, sources []Source, sink detect.Sink, logger zerolog.Logger) (Stats, error) {
	started := time.Now()
	runID := uuid.NewString()
	logger = logger.With().Str("run_id", runID).Logger()

	q := queue.New()
	det := detect.New(q, sink, logger)

	detDone := make(chan detect.Stats, 1)
	go func() {
		detDone <- det.Run(ctx)
	}()

	// errgroup without a derived cancel context: Wait blocks until every
	// runner settles and returns the first recorded error.
	var g errgroup.Group
	var written atomic.Int64
	for _, src := range sources {
		runner := source.NewRunner(src.ID, src.Provider, q, logger)
		g.Go(func() error {
			n, err := runner.Run(ctx)
			written.Add(int64(n))
			return err
		})
	}

	err := g.Wait()
	q.Close()

	dstats := <-detDone

	stats := Stats{
		RunID:         runID,
		Sources:       len(sources),
		EventsWritten: int(written.Load()),
		EventsRead:    dstats.EventsRead,
		Malformed:     dstats.Malformed,
		Conflicts:     dstats.Conflicts,
		Elapsed:       time.Since(started),
	}

	logger.Info().
		Int("sources", stats.Sources).
		Int("written", stats.EventsWritten).
		Int("events", stats.EventsRead).
		Int("malformed", stats.Malformed).
		Int("conflicts", stats.Conflicts).
		Dur("elapsed", stats.Elapsed).
		Err(err).
		Msg("pipeline finished")

	return stats, err
}
