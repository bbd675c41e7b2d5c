// Package scheduler drives periodic refresh and cleanup runs over all users
// with completed profiles.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/models"
)

// Config carries the cron specs and worker settings.
type Config struct {
	Enabled       bool
	RefreshSpec   string
	CleanupSpec   string
	RetentionDays int
	Concurrency   int
}

func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		RefreshSpec:   "0 * * * *",
		CleanupSpec:   "30 3 * * *",
		RetentionDays: 30,
		Concurrency:   4,
	}
}

// Refresher runs one matching pass for a user.
type Refresher interface {
	Refresh(ctx context.Context, userID, trigger string) (*models.DualRecommendations, error)
}

// UserLister enumerates users eligible for scheduled refreshes.
type UserLister interface {
	CompletedProfileUserIDs(ctx context.Context) ([]string, error)
}

// FreshnessChecker reports whether a user was refreshed recently enough to skip.
type FreshnessChecker interface {
	IsFresh(ctx context.Context, userID string) bool
}

// Cleaner prunes stale deactivated recommendations.
type Cleaner interface {
	DeleteInactiveOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Notifier is told about completed scheduled refreshes. May be nil.
type Notifier interface {
	RefreshCompleted(ctx context.Context, result *models.DualRecommendations)
}

// Learner folds recent feedback into a user's learned preferences. May be nil.
type Learner interface {
	UpdatePreferences(ctx context.Context, userID string) (*models.LearnedPreferences, error)
}

// Scheduler owns the cron loop.
type Scheduler struct {
	cfg       Config
	cron      *cron.Cron
	refresher Refresher
	users     UserLister
	freshness FreshnessChecker
	cleaner   Cleaner
	notifier  Notifier
	learner   Learner
	logger    logger.Logger
}

func New(cfg Config, refresher Refresher, users UserLister, freshness FreshnessChecker, cleaner Cleaner, notifier Notifier, learner Learner, log logger.Logger) *Scheduler {
	def := DefaultConfig()
	if cfg.RefreshSpec == "" {
		cfg.RefreshSpec = def.RefreshSpec
	}
	if cfg.CleanupSpec == "" {
		cfg.CleanupSpec = def.CleanupSpec
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = def.RetentionDays
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	return &Scheduler{
		cfg:       cfg,
		cron:      cron.New(),
		refresher: refresher,
		users:     users,
		freshness: freshness,
		cleaner:   cleaner,
		notifier:  notifier,
		learner:   learner,
		logger:    log,
	}
}

// Start registers the cron entries and begins the loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.Info("scheduler disabled", nil)
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.RefreshSpec, func() {
		s.RunRefreshCycle(ctx)
	}); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.CleanupSpec, func() {
		s.RunCleanup(ctx)
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", map[string]interface{}{
		"refreshSpec": s.cfg.RefreshSpec,
		"cleanupSpec": s.cfg.CleanupSpec,
	})
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("scheduler stopped", nil)
}

// RunRefreshCycle refreshes every eligible user, skipping those refreshed
// within the freshness window. Workers run in parallel; one user's failure
// never blocks the rest.
func (s *Scheduler) RunRefreshCycle(ctx context.Context) {
	userIDs, err := s.users.CompletedProfileUserIDs(ctx)
	if err != nil {
		s.logger.Error("could not list users for refresh cycle", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	var refreshed, skipped, failed int
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.cfg.Concurrency)

	for _, userID := range userIDs {
		if s.freshness.IsFresh(ctx, userID) {
			skipped++
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(userID string) {
			defer wg.Done()
			defer func() { <-sem }()

			// Fold in recent feedback first so the refresh searches with
			// up-to-date learned keywords.
			if s.learner != nil {
				if _, err := s.learner.UpdatePreferences(ctx, userID); err != nil {
					s.logger.Warn("preference update failed", map[string]interface{}{
						"userId": userID,
						"error":  err.Error(),
					})
				}
			}

			result, err := s.refresher.Refresh(ctx, userID, "scheduled")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				s.logger.Warn("scheduled refresh failed", map[string]interface{}{
					"userId": userID,
					"error":  err.Error(),
				})
				return
			}
			refreshed++
			if s.notifier != nil {
				s.notifier.RefreshCompleted(ctx, result)
			}
		}(userID)
	}
	wg.Wait()

	s.logger.Info("refresh cycle finished", map[string]interface{}{
		"eligible":  len(userIDs),
		"refreshed": refreshed,
		"skipped":   skipped,
		"failed":    failed,
	})
}

// RunCleanup prunes deactivated recommendations past the retention window.
func (s *Scheduler) RunCleanup(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -s.cfg.RetentionDays)
	deleted, err := s.cleaner.DeleteInactiveOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("cleanup failed", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("cleanup finished", map[string]interface{}{
		"deleted":       deleted,
		"retentionDays": s.cfg.RetentionDays,
	})
}
