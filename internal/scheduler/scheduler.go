// Package scheduler triggers recurring ingestion runs.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"aipress/internal/pipeline"
)

// Runner executes one ingestion pass.
type Runner interface {
	Run(ctx context.Context) (int, error)
}

// Scheduler drives the ingestion pipeline on a fixed interval,
// plus one run shortly after process start.
type Scheduler struct {
	runner     Runner
	log        *slog.Logger
	tick       time.Duration
	startDelay time.Duration
}

// New creates a Scheduler that triggers the runner every tick.
func New(runner Runner, tick time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:     runner,
		log:        log,
		tick:       tick,
		startDelay: 10 * time.Second,
	}
}

// SetStartDelay overrides the delay before the initial run.
func (s *Scheduler) SetStartDelay(d time.Duration) {
	s.startDelay = d
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	start := time.NewTimer(s.startDelay)
	defer start.Stop()

	select {
	case <-ctx.Done():
		return
	case <-start.C:
		s.trigger(ctx)
	}

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.trigger(ctx)
		}
	}
}

func (s *Scheduler) trigger(ctx context.Context) {
	created, err := s.runner.Run(ctx)
	switch {
	case errors.Is(err, pipeline.ErrAlreadyRunning):
		s.log.Debug("scheduled run skipped, sync already active")
	case err != nil:
		s.log.Error("scheduled run failed", "error", err)
	default:
		s.log.Info("scheduled run complete", "created", created)
	}
}
