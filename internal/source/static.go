package source

import (
	"context"
	"time"

	"calclash/internal/model"
)

// Static is a canned, paged provider. It serves a fixed page sequence,
// optionally sleeping before each page to simulate network latency, and
// then a terminal empty page. Demo mode and tests use it in place of a
// live calendar feed.
type Static struct {
	Pages [][]model.Event
	Delay time.Duration

	cursor int
}

// NewStatic creates a provider over the given pages.
func NewStatic(pages [][]model.Event, delay time.Duration) *Static {
	return &Static{Pages: pages, Delay: delay}
}

// FetchNextPage returns the next canned page, or an empty page once the
// sequence is exhausted. Honors context cancellation during the
// simulated delay.
func (s *Static) FetchNextPage(ctx context.Context) ([]model.Event, error) {
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if s.cursor >= len(s.Pages) {
		return nil, nil
	}
	page := s.Pages[s.cursor]
	s.cursor++
	return page, nil
}
