package stream

import (
	"context"
	"io"
	"sync"
)

// Stream is a pull-based sequence of events.
// Next returns io.EOF once the stream is exhausted.
type Stream interface {
	Next(ctx context.Context) (Event, error)
	Close() error
}

// Replay returns a Stream that yields the given events in order.
func Replay(events ...Event) Stream {
	return &replay{events: events}
}

type replay struct {
	mu     sync.Mutex
	events []Event
	pos    int
	closed bool
}

func (r *replay) Next(ctx context.Context) (Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.pos >= len(r.events) {
		return nil, io.EOF
	}
	ev := r.events[r.pos]
	r.pos++
	return ev, nil
}

func (r *replay) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

// Drain reads s to the end and returns every event it produced.
func Drain(ctx context.Context, s Stream) ([]Event, error) {
	var out []Event
	for {
		ev, err := s.Next(ctx)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, ev)
	}
}
