// Package scheduler runs the periodic forced refresh of the balancer sections.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"defi_tracker/internal/app/port"
	"defi_tracker/internal/domain/entity"

	"github.com/robfig/cron/v3"
)

// Refresher is the part of the balancer service the scheduler drives.
type Refresher interface {
	RefreshAll(ctx context.Context, refresh bool) map[entity.Section]entity.Outcome
}

// Scheduler triggers Refresher.RefreshAll(force) on a cron spec.
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	spec      string
	timeout   time.Duration
	logger    port.Logger
}

// New creates a Scheduler. Runs that are still going when the next tick
// fires are not overlapped; the tick is skipped.
func New(ctx context.Context, spec string, timeout time.Duration, refresher Refresher, logger port.Logger) (*Scheduler, error) {
	cl := cronLogger{logger: logger}
	s := &Scheduler{
		cron:      cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		refresher: refresher,
		spec:      spec,
		timeout:   timeout,
		logger:    logger,
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(ctx) }); err != nil {
		return nil, fmt.Errorf("invalid scheduler spec %q: %w", spec, err)
	}
	return s, nil
}

// RunOnce performs one forced refresh bounded by the scheduler timeout.
func (s *Scheduler) RunOnce(ctx context.Context) map[entity.Section]entity.Outcome {
	rctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	outcomes := s.refresher.RefreshAll(rctx, true)
	s.logger.Info("Scheduled refresh finished", "outcomes", outcomes)
	return outcomes
}

// Start starts the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", "spec", s.spec)
}

// Stop stops the cron loop and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// cronLogger adapts port.Logger to cron.Logger.
type cronLogger struct {
	logger port.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
