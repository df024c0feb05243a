// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance tasks: sweeping idle
// rate-limit windows and refreshing the locale registry so external
// language changes become visible without a restart.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/polyglot-go/internal/ratelimit"
	"github.com/olegiv/polyglot-go/internal/registry"
)

// taskTimeout bounds one maintenance run.
const taskTimeout = 30 * time.Second

// Scheduler handles periodic maintenance tasks.
type Scheduler struct {
	cron     *cron.Cron
	limiter  *ratelimit.Limiter
	registry *registry.Registry
	logger   *slog.Logger
}

// New creates a new scheduler instance.
func New(limiter *ratelimit.Limiter, reg *registry.Registry, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		limiter:  limiter,
		registry: reg,
		logger:   logger,
	}
}

// Start registers the maintenance jobs and begins the cron loop.
// Idle rate-limit windows are swept every minute; the locale registry
// reloads every five minutes.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("* * * * *", s.sweepLimiter); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("*/5 * * * *", s.refreshRegistry); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) sweepLimiter() {
	removed := s.limiter.Sweep()
	if removed > 0 {
		s.logger.Debug("swept idle rate-limit windows", "removed", removed)
	}
}

func (s *Scheduler) refreshRegistry() {
	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	if err := s.registry.Refresh(ctx); err != nil {
		s.logger.Error("failed to refresh locale registry", "error", err)
	}
}
