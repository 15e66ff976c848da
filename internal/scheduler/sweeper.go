// Package scheduler runs the background maintenance jobs of the notification
// service. Today that is a single job: reaping ledger rows stuck in "sending"
// after a crash between dispatch and reconciliation.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"shopnotify/internal/config"
)

// staleReason is the error message written onto rows the sweep reconciles.
const staleReason = "stale send reaped by sweep"

// sweepRunTimeout bounds one sweep run so a stuck database cannot pile up
// overlapping runs.
const sweepRunTimeout = 30 * time.Second

// SweepStore is the ledger operation the sweeper needs.
type SweepStore interface {
	SweepStale(ctx context.Context, olderThan time.Duration, reason string) (int64, error)
}

// Sweeper periodically marks long-stuck "sending" rows as failed. A row in
// "sending" past the threshold means the process died between the provider
// call and the reconcile; the sweep restores the invariant that every
// terminal row is either sent or failed.
type Sweeper struct {
	store     SweepStore
	schedule  string
	threshold time.Duration
	logger    *slog.Logger
	cron      *cron.Cron
}

func NewSweeper(cfg config.SweepConfig, store SweepStore, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		store:     store,
		schedule:  cfg.Schedule,
		threshold: cfg.StaleThreshold,
		logger:    logger.With(slog.String("component", "sweeper")),
	}
}

// Start registers the cron entry and begins running it. The returned error
// is non-nil only for an unparseable schedule.
func (s *Sweeper) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, s.run); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("sweep scheduled",
		slog.String("schedule", s.schedule),
		slog.Duration("stale_threshold", s.threshold))
	return nil
}

// Stop halts the schedule and waits for an in-flight run to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepRunTimeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("sweep run failed", slog.Any("error", err))
	}
}

// RunOnce executes a single sweep and returns how many rows were reaped.
// Split out from the cron loop for deterministic testing and manual runs.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	reaped, err := s.store.SweepStale(ctx, s.threshold, staleReason)
	if err != nil {
		return 0, err
	}
	if reaped > 0 {
		s.logger.Warn("reaped stale sends", slog.Int64("count", reaped))
	}
	return reaped, nil
}
