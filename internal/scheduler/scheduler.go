package scheduler

import (
	"context"
	"log"
	"time"
)

// Scheduler drives the engine on a fixed period. Passes run
// sequentially within a tick, in the order activate, release-ended,
// complete, release-cancelled; later passes depend on earlier ones
// having converged. A pass error is logged and the tick moves on, so a
// failed tick is retried from scratch on the next timer fire
// (at-least-once, never exactly-once).
type Scheduler struct {
	Engine   *Engine
	Interval time.Duration
}

// NewScheduler returns a scheduler with the given period; non-positive
// periods fall back to 10 seconds.
func NewScheduler(engine *Engine, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Scheduler{Engine: engine, Interval: interval}
}

// Run blocks, firing a reconciliation tick every interval until the
// context is cancelled. Ticks never overlap: each runs to completion
// before the ticker is read again.
func (s *Scheduler) Run(ctx context.Context) {
	t := time.NewTicker(s.Interval)
	defer t.Stop()
	log.Printf("[schedule] reconciliation job started (every %s)", s.Interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[schedule] reconciliation job stopped")
			return
		case <-t.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs the four passes once, outside the timer.
func (s *Scheduler) Tick(ctx context.Context) {
	passes := []struct {
		name string
		run  func(context.Context) (int, error)
	}{
		{"slots reserved by reservation", s.Engine.ActivateReservations},
		{"slots set to available", s.Engine.ReleaseEndedReservations},
		{"reservations set to completed", s.Engine.CompleteFinishedReservations},
		{"slots set to available by cancelled reservation", s.Engine.ReleaseCancelledReservations},
	}
	for _, p := range passes {
		n, err := p.run(ctx)
		if err != nil {
			log.Printf("[schedule] %s failed: %v", p.name, err)
			continue
		}
		if n > 0 {
			log.Printf("[schedule] %s, count: %d", p.name, n)
		}
	}
}
