package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SessionSweeper removes sessions idle for longer than the given duration
// and reports how many were removed.
type SessionSweeper interface {
	Sweep(idle time.Duration) int
}

// DatasetRefresher reloads datasets whose source changed.
type DatasetRefresher interface {
	Refresh(ctx context.Context) ([]string, error)
}

// Scheduler manages periodic session sweeping and dataset freshness checks.
type Scheduler struct {
	cron        *cron.Cron
	sessions    SessionSweeper
	datasets    DatasetRefresher
	idleTimeout time.Duration
	log         *slog.Logger
}

// NewScheduler creates a new Scheduler. A zero interval disables the
// corresponding job.
func NewScheduler(
	sessions SessionSweeper,
	datasets DatasetRefresher,
	idleTimeout time.Duration,
	sweepInterval time.Duration,
	refreshInterval time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:        c,
		sessions:    sessions,
		datasets:    datasets,
		idleTimeout: idleTimeout,
		log:         log,
	}

	if sweepInterval > 0 {
		if _, err := c.AddFunc(
			"@every "+sweepInterval.String(),
			s.runSweep,
		); err != nil {
			return nil, err
		}
	}

	if refreshInterval > 0 {
		if _, err := c.AddFunc(
			"@every "+refreshInterval.String(),
			s.runRefresh,
		); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started", "jobs", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runSweep() {
	if n := s.sessions.Sweep(s.idleTimeout); n > 0 {
		s.log.Info("expired idle sessions", "count", n, "idle_timeout", s.idleTimeout)
	}
}

func (s *Scheduler) runRefresh() {
	ctx := context.Background()
	ids, err := s.datasets.Refresh(ctx)
	if err != nil {
		s.log.Error("scheduled dataset refresh failed", "error", err)
	}
	if len(ids) > 0 {
		s.log.Info("datasets refreshed", "datasets", ids)
	}
}
