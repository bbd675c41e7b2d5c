// cmd/matching-engine/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"jobmatch-engine/internal/common/aws"
	"jobmatch-engine/internal/common/config"
	"jobmatch-engine/internal/common/database"
	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/common/observability"
	"jobmatch-engine/internal/dictionary"
	"jobmatch-engine/internal/engine"
	"jobmatch-engine/internal/feedback"
	"jobmatch-engine/internal/listing"
	"jobmatch-engine/internal/normalizer"
	"jobmatch-engine/internal/notify"
	"jobmatch-engine/internal/scheduler"
	"jobmatch-engine/internal/scoring"
	"jobmatch-engine/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting matching engine...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New("matching-engine")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Load matching dictionary ---
	dict, err := dictionary.Load()
	if err != nil {
		zapLog.Fatal("dictionary load failed", zap.Error(err))
	}
	zapLog.Info("Matching dictionary loaded")

	// --- Build matching components ---
	norm := normalizer.New(normalizer.Config{
		SalaryRelaxation: cfg.Matching.SalaryRelaxation,
		MaxRelatedTitles: cfg.Matching.MaxRelatedTitles,
		MaxQueryTerms:    cfg.Catalog.MaxQueryTerms,
	}, dict, log)

	scorer := scoring.New(dict)

	catalog := listing.NewClient(listing.Config{
		BaseURL:      cfg.Catalog.BaseURL,
		UserAgent:    cfg.Catalog.UserAgent,
		Timeout:      config.GetDuration(cfg.Catalog.Timeout),
		PerPage:      cfg.Catalog.PerPage,
		MaxPages:     cfg.Catalog.MaxPages,
		DetailLimit:  cfg.Catalog.DetailLimit,
		DetailDelay:  config.GetDuration(cfg.Catalog.DetailDelay),
		SearchPeriod: cfg.Catalog.SearchPeriod,
	}, log)

	users := store.NewUserStore(pg.DB, log)
	recs := store.NewRecommendationStore(pg.DB, log)
	prefs := store.NewPreferenceCache(redis.Client, log)

	analyzer := feedback.NewAnalyzer(feedback.Config{
		LookbackDays: cfg.Feedback.LookbackDays,
		MaxPositive:  cfg.Feedback.MaxPositive,
		MaxNegative:  cfg.Feedback.MaxNegative,
	}, users, recs, prefs, log)

	// --- Init notification channels (config-gated) ---
	var events notify.EventPublisher
	if cfg.Notifications.Events.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		events = snsClient
	}

	var email notify.EmailSender
	if cfg.Notifications.Email.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		email = sesClient
	}

	notifier := notify.New(notify.Config{
		EventsEnabled: cfg.Notifications.Events.Enabled,
		TopicARN:      cfg.Notifications.Events.TopicARN,
		EmailEnabled:  cfg.Notifications.Email.Enabled,
		FromEmail:     cfg.Notifications.Email.FromEmail,
	}, events, email, users, log)

	eng := engine.New(engine.Config{
		ProfileBlockSize:  cfg.Matching.ProfileBlockSize,
		StrengthBlockSize: cfg.Matching.StrengthBlockSize,
		MinRelevanceScore: cfg.Matching.MinRelevanceScore,
		FreshnessWindow:   time.Duration(cfg.Matching.FreshnessWindow) * time.Minute,
		AssessmentEnabled: !cfg.Matching.AssessmentDisabled,
	}, users, catalog, norm, scorer, recs, prefs, log)

	sched := scheduler.New(scheduler.Config{
		Enabled:       cfg.Scheduler.Enabled,
		RefreshSpec:   cfg.Scheduler.RefreshSpec,
		CleanupSpec:   cfg.Scheduler.CleanupSpec,
		RetentionDays: cfg.Scheduler.RetentionDays,
		Concurrency:   cfg.Scheduler.Concurrency,
	}, eng, users, prefs, recs, notifier, analyzer, log)

	if err := sched.Start(ctx); err != nil {
		zapLog.Fatal("scheduler start failed", zap.Error(err))
	}

	// --- Health & Metrics Server ---
	if cfg.Metrics.Enabled {
		go func() {
			http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "healthy",
					"time":   time.Now().Format(time.RFC3339),
				})
			})
			http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "ready",
					"time":   time.Now().Format(time.RFC3339),
				})
			})
			http.Handle("/metrics", promhttp.Handler())
			zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
			if err := http.ListenAndServe(cfg.Metrics.Address, nil); err != nil {
				zapLog.Error("Health/Metrics server failed", zap.Error(err))
			}
		}()
	}

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping scheduler...")
	sched.Stop()

	zapLog.Info("Matching engine stopped gracefully")
}
