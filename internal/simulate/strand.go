// Package simulate implements the single-threaded game loop (C6): the
// Strand serial executor and the per-tick simulation pipeline.
package simulate

import (
	"context"
	"sync"
)

// Strand is a single-goroutine serial executor. Every mutation of game
// state is submitted through it, so callers never need locks around the
// Game/Session trees — exactly the strand guarantee the original engine
// gets from boost::asio::strand, reproduced here with one goroutine
// draining a channel of closures.
type Strand struct {
	jobs   chan func()
	done   chan struct{}
	once   sync.Once
	closed chan struct{}
}

// NewStrand starts the executor goroutine. Call Close to drain and stop it.
func NewStrand() *Strand {
	s := &Strand{
		jobs:   make(chan func()),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Strand) run() {
	defer close(s.done)
	for {
		select {
		case job := <-s.jobs:
			job()
		case <-s.closed:
			return
		}
	}
}

// Submit runs fn on the strand goroutine and blocks until it has run.
// Safe to call from any goroutine. Returns ctx.Err() if ctx is canceled
// before fn gets a turn.
func (s *Strand) Submit(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	job := func() {
		fn()
		close(done)
	}

	select {
	case s.jobs <- job:
	case <-s.closed:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting new work and waits for the goroutine to exit.
// Any job already running completes first; nothing is dropped mid-run.
func (s *Strand) Close() {
	s.once.Do(func() {
		close(s.closed)
	})
	<-s.done
}
