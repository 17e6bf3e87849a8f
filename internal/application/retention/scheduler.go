// Package retention purges stored reconciliation runs older than the
// configured retention period on a cron schedule.
package retention

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ofizant/conciliacion/internal/infrastructure/storage"
)

// Config holds retention settings
type Config struct {
	Days     int    // Runs older than this many days are deleted; 0 disables the job
	Schedule string // Cron spec, e.g. "@daily" or "0 3 * * *"
}

// Scheduler periodically deletes old runs.
type Scheduler struct {
	repo   storage.RunRepository
	cfg    Config
	logger *slog.Logger
	cron   *cron.Cron
	now    func() time.Time
}

// NewScheduler validates the schedule and creates a stopped scheduler.
func NewScheduler(repo storage.RunRepository, cfg Config, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
		cron:   cron.New(cron.WithLocation(time.UTC)),
		now:    time.Now,
	}
	if cfg.Days <= 0 {
		return s, nil
	}

	if _, err := s.cron.AddFunc(cfg.Schedule, func() {
		if _, err := s.RunOnce(); err != nil {
			s.logger.Error("retention purge failed", "error", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

// Start begins running the purge job in the background.
func (s *Scheduler) Start() {
	if s.cfg.Days <= 0 {
		s.logger.Info("retention disabled")
		return
	}
	s.logger.Info("retention scheduler started",
		"schedule", s.cfg.Schedule,
		"retention_days", s.cfg.Days)
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running purge to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce deletes runs older than the retention period now.
func (s *Scheduler) RunOnce() (int, error) {
	if s.cfg.Days <= 0 {
		return 0, nil
	}
	cutoff := s.now().UTC().AddDate(0, 0, -s.cfg.Days)
	n, err := s.repo.DeleteRunsBefore(cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete runs before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	s.logger.Info("retention purge complete",
		"deleted", n,
		"cutoff", cutoff.Format(time.RFC3339))
	return n, nil
}
