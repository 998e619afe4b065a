// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

// Package retention deactivates idle conversations on a cron schedule.
package retention

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

// sweepTimeout bounds a single scheduled sweep.
const sweepTimeout = time.Minute

// Expirer is the part of the conversation store a sweep needs.
type Expirer interface {
	ExpireOlderThan(ctx context.Context, maxAge time.Duration) (int64, error)
}

// Config controls when sweeps run and what they expire.
type Config struct {
	// Schedule is a standard five-field cron expression or a descriptor
	// such as "@every 1h".
	Schedule string
	MaxAge   time.Duration
	Logger   *slog.Logger
}

// Scheduler runs ExpireOlderThan(MaxAge) on Schedule.
type Scheduler struct {
	store  Expirer
	maxAge time.Duration
	logger *slog.Logger
	cron   *cron.Cron
	entry  cron.EntryID

	mu      sync.Mutex
	running bool
	stopped bool
}

// New validates cfg and prepares a scheduler. Nothing runs until Start.
func New(store Expirer, cfg Config) (*Scheduler, error) {
	if store == nil {
		return nil, agenterr.New(agenterr.CodeRetentionScheduleInvalid, "retention: store is required")
	}
	if cfg.MaxAge <= 0 {
		return nil, agenterr.Errorf(agenterr.CodeRetentionScheduleInvalid,
			"retention: max age must be positive, got %s", cfg.MaxAge)
	}
	sched, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		return nil, agenterr.Wrapf(err, agenterr.CodeRetentionScheduleInvalid,
			"retention: invalid schedule %q", cfg.Schedule)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scheduler{store: store, maxAge: cfg.MaxAge, logger: logger}
	cl := cronLogger{logger: logger}
	s.cron = cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	s.entry = s.cron.Schedule(sched, cron.FuncJob(s.scheduledSweep))
	return s, nil
}

// Start begins running sweeps in the background. It is a no-op when the
// scheduler is already running or has been stopped.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.stopped {
		return
	}
	s.running = true
	s.cron.Start()
	s.logger.Info("retention scheduler started", "max_age", s.maxAge, "next_run", s.cron.Entry(s.entry).Next)
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	wasRunning := s.running
	s.running = false
	s.stopped = true
	s.mu.Unlock()

	if !wasRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.logger.Info("retention scheduler stopped")
}

// Next reports when the next sweep is due. It is zero until Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// RunOnce performs a sweep immediately and reports how many conversations
// were deactivated.
func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	n, err := s.store.ExpireOlderThan(ctx, s.maxAge)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired idle conversations", "count", n, "max_age", s.maxAge)
	} else {
		s.logger.Debug("retention sweep found nothing to expire", "max_age", s.maxAge)
	}
	return n, nil
}

func (s *Scheduler) scheduledSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Warn("retention sweep failed", "error", err)
	}
}

// cronLogger routes cron's internal logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
