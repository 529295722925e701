// Package scheduler runs the recurring mandate sweep on a cron schedule.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/upbank/core-banking/internal/service/mandate"
)

type mandateRunner interface {
	RunDue(ctx context.Context, asOf time.Time) (mandate.RunResult, error)
}

// Scheduler owns the cron instance and the mandate sweep job.
type Scheduler struct {
	cron     *cron.Cron
	mandates mandateRunner
	schedule string
	logger   *slog.Logger
}

func New(mandates mandateRunner, schedule string, logger *slog.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:     c,
		mandates: mandates,
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the sweep job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runSweep); err != nil {
		return err
	}
	s.logger.Info("scheduled mandate sweep", "schedule", s.schedule)
	s.cron.Start()
	return nil
}

// Stop halts the cron loop. The returned context is done once any
// in-flight sweep has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runSweep() {
	ctx := context.Background()
	started := time.Now()

	result, err := s.mandates.RunDue(ctx, started)
	if err != nil {
		s.logger.Error("mandate sweep failed", "error", err)
		return
	}
	s.logger.Info("mandate sweep finished",
		"executed", result.Executed,
		"failed", result.Failed,
		"duration", time.Since(started),
	)
}
