// Package scheduler drives the game clock (C8): either a background
// ticker advancing the world automatically, or nothing, leaving ticks to
// be triggered externally through the HTTP API.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Ticker is the one method the scheduler needs from the simulator.
type Ticker interface {
	Tick(ctx context.Context, delta time.Duration) error
}

// Scheduler runs a background goroutine calling Tick at a fixed period
// when auto mode is enabled (--tick-period was given, §6.2). When it is
// nil or zero, the scheduler does nothing and the HTTP tick endpoint is
// expected to drive the clock instead — the two modes are mutually
// exclusive (§4.6).
type Scheduler struct {
	period time.Duration
	ticker Ticker
	log    *zap.SugaredLogger
	stop   chan struct{}
	done   chan struct{}
}

// New builds a scheduler for the given period. A zero period means
// manual mode: Start becomes a no-op and Auto reports false.
func New(period time.Duration, ticker Ticker, log *zap.Logger) *Scheduler {
	return &Scheduler{
		period: period,
		ticker: ticker,
		log:    log.Sugar(),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Auto reports whether this scheduler drives the clock automatically. The
// Command API (api.API.Tick) uses this to reject manual ticks with badRequest
// when auto mode is active (matches Application::IsTick in the original).
func (s *Scheduler) Auto() bool { return s.period > 0 }

// Start launches the background ticker goroutine, if in auto mode.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.Auto() {
		close(s.done)
		return
	}

	go func() {
		defer close(s.done)
		t := time.NewTicker(s.period)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				if err := s.ticker.Tick(ctx, s.period); err != nil {
					s.log.Warnw("tick failed", "error", err)
				}
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop signals the background goroutine to exit and waits for it.
func (s *Scheduler) Stop() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
}
