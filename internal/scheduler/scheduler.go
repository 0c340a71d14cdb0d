// Package scheduler runs the prediction pipeline on a daily cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/wincast/internal/config"
	"github.com/yourusername/wincast/internal/models"
	"github.com/yourusername/wincast/internal/pipeline"
)

const (
	defaultCronSpec     = "0 9 * * *"
	defaultVenueTimeout = 10 * time.Minute
)

// Scheduler triggers pipeline runs for every configured venue on a cron
// schedule. Venues run sequentially; one venue's failure never blocks the
// rest of the day's card.
type Scheduler struct {
	cron     *cron.Cron
	pipeline *pipeline.Pipeline
	cfg      *config.ScheduleConfig
	venues   []string
	log      *logrus.Entry

	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	gracefulTimeout time.Duration
}

// NewScheduler creates a scheduler driving the given pipeline.
func NewScheduler(pipe *pipeline.Pipeline, cfg *config.ScheduleConfig, venues []string, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(time.Local)),
		pipeline:        pipe,
		cfg:             cfg,
		venues:          venues,
		log:             log.WithField("component", "scheduler"),
		jobIDs:          make([]cron.EntryID, 0),
		gracefulTimeout: 30 * time.Second,
	}
}

// ScheduleDaily registers the daily prediction job using the configured
// cron expression.
func (s *Scheduler) ScheduleDaily() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	spec := s.cfg.Cron
	if spec == "" {
		spec = defaultCronSpec
	}

	entryID, err := s.cron.AddFunc(spec, s.RunAll)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.log.WithField("cron", spec).Info("Scheduled daily prediction job")
	return nil
}

// RunAll executes the pipeline for every configured venue, each under its
// own timeout.
func (s *Scheduler) RunAll() {
	now := time.Now()
	for _, venue := range s.venues {
		s.runVenue(venue, now)
	}
}

func (s *Scheduler) runVenue(venue string, now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), s.venueTimeout())
	defer cancel()

	log := s.log.WithField("venue", venue)
	res, err := s.pipeline.Run(ctx, venue, now)
	switch {
	case errors.Is(err, models.ErrNothingToPredict):
		log.Info("No unresolved races today, skipping venue")
	case err != nil:
		log.WithError(err).Error("Scheduled pipeline run failed")
	default:
		log.WithFields(logrus.Fields{
			"races":  res.Races,
			"horses": res.PredictRows,
			"report": res.ReportPath,
		}).Info("Scheduled pipeline run completed")
	}
}

func (s *Scheduler) venueTimeout() time.Duration {
	if s.cfg.VenueTimeoutMin > 0 {
		return time.Duration(s.cfg.VenueTimeoutMin) * time.Minute
	}
	return defaultVenueTimeout
}

// Start starts the scheduler.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.log.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.gracefulTimeout)
	defer cancel()

	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("Scheduler stop timed out with a job still running")
	}
	s.isRunning = false
	s.log.Info("Scheduler stopped")
	return nil
}

// IsRunning reports whether the scheduler is currently running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the time of the next scheduled run, or the zero time when
// nothing is scheduled.
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	next := time.Time{}
	for _, id := range s.jobIDs {
		entry := s.cron.Entry(id)
		if entry.Valid() && (next.IsZero() || entry.Next.Before(next)) {
			next = entry.Next
		}
	}
	return next
}
