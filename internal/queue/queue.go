package queue

import (
	"context"
	"sync"

	"calclash/internal/model"
)

// Queue is an unbounded multi-producer single-consumer FIFO of events.
//
// Lifecycle: open (writes accepted) -> closing (Close called, buffered
// items still drain) -> closed (empty and no writer will ever add more).
// Close must be called exactly once, by the orchestrator, after every
// writer has finished; it is idempotent against repeated calls but a
// Write after Close panics, mirroring Go's built-in channel contract.
//
// Items are delivered in global write-arrival order across all producers.
// No promise is made about event chronological order.
type Queue struct {
	mu     sync.Mutex
	events []model.Event
	closed bool
	signal chan struct{} // coalesced availability signal, closed on Close
}

// New creates an empty open queue.
func New() *Queue {
	return &Queue{
		events: make([]model.Event, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Write appends an event. Never blocks: the queue is unbounded.
// Panics if the queue has been closed.
func (q *Queue) Write(ev model.Event) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		panic("queue: write after close")
	}
	q.events = append(q.events, ev)
	q.mu.Unlock()

	// Non-blocking send; the buffer of one coalesces bursts.
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// TryRead pops the earliest written event without blocking.
// Returns false if nothing is currently buffered.
func (q *Queue) TryRead() (model.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return model.Event{}, false
	}

	ev := q.events[0]
	q.events[0] = model.Event{}
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}
	return ev, true
}

// WaitReadable blocks until at least one event is buffered (true) or the
// queue is terminally closed and drained (false). Context cancellation
// also returns false.
func (q *Queue) WaitReadable(ctx context.Context) bool {
	for {
		q.mu.Lock()
		if len(q.events) > 0 {
			q.mu.Unlock()
			return true
		}
		if q.closed {
			q.mu.Unlock()
			return false
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return false
		case <-q.signal:
			// Re-check; the signal is coalesced and may race with reads.
		}
	}
}

// Close transitions the queue to closing. Idempotent. Buffered events
// remain readable; once drained, WaitReadable returns false.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

// Len returns the number of currently buffered events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
