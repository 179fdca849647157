package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper drops expired in-memory entries and reports how many it removed.
// session.Manager satisfies it.
type Sweeper interface {
	Sweep() int
}

// Cleaner is satisfied by the analytics store.
type Cleaner interface {
	Cleanup(ctx context.Context, cutoff time.Time) (int64, error)
}

// Retention is how long visitor analytics are kept.
const Retention = 12 * 30 * 24 * time.Hour

const (
	sweepSpec   = "@every 1m"
	cleanupSpec = "0 0 3 * * *" // 03:00 daily
)

type Scheduler struct {
	cron     *cron.Cron
	sessions Sweeper
	extra    []namedSweeper
	store    Cleaner
	logger   *zap.Logger
	now      func() time.Time
}

type namedSweeper struct {
	name string
	s    Sweeper
}

func NewScheduler(sessions Sweeper, store Cleaner, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		sessions: sessions,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

// AddSweeper runs sw alongside the session sweep. Call it before Start.
func (s *Scheduler) AddSweeper(name string, sw Sweeper) {
	s.extra = append(s.extra, namedSweeper{name: name, s: sw})
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(sweepSpec, s.SweepSessions); err != nil {
		return err
	}
	if s.store != nil {
		if _, err := s.cron.AddFunc(cleanupSpec, s.CleanupVisitors); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		zap.String("session_sweep", sweepSpec),
		zap.String("visitor_cleanup", cleanupSpec))
	return nil
}

// Stop halts the runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) SweepSessions() {
	if n := s.sessions.Sweep(); n > 0 {
		s.logger.Debug("session sweep", zap.Int("expired", n))
	}
	for _, x := range s.extra {
		if n := x.s.Sweep(); n > 0 {
			s.logger.Debug("sweep", zap.String("name", x.name), zap.Int("expired", n))
		}
	}
}

// CleanupVisitors removes analytics older than Retention.
func (s *Scheduler) CleanupVisitors() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := s.store.Cleanup(ctx, s.now().Add(-Retention))
	if err != nil {
		s.logger.Error("privacy cleanup failed", zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Info("privacy cleanup", zap.Int64("removed", removed))
	}
}
