// Package main is the entry point for the course watch worker: the process
// that polls the PPTLinks catalog for every watched course, detects
// changes, sends notifications and fires scheduled reminders.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/course-watch/course-watch-bot/config"
	"github.com/course-watch/course-watch-bot/internal/application/monitor"
	"github.com/course-watch/course-watch-bot/internal/domain/course"
	"github.com/course-watch/course-watch-bot/internal/infrastructure/external/pptlinks"
	exttg "github.com/course-watch/course-watch-bot/internal/infrastructure/external/telegram"
	"github.com/course-watch/course-watch-bot/internal/infrastructure/persistence/memory"
	"github.com/course-watch/course-watch-bot/internal/infrastructure/persistence/postgres"
	"github.com/course-watch/course-watch-bot/internal/infrastructure/persistence/redis"
	"github.com/course-watch/course-watch-bot/internal/infrastructure/scheduler"
	iftg "github.com/course-watch/course-watch-bot/internal/interface/telegram"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION & LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := setupLogger(cfg)
	log.Info("starting course watch worker",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
		"poll_interval", cfg.Monitor.PollInterval.String(),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. POSTGRES (subscriptions, notification log)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer dbConn.Close()

	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database schema is up to date")

	subscriptionRepo := postgres.NewSubscriptionRepository(dbConn)
	notificationLog := postgres.NewNotificationLog(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (fingerprints, reminder fired markers)
	// ─────────────────────────────────────────────────────────────────────────
	var fingerprintStore course.FingerprintStore
	var firedStore monitor.FiredStore

	if cfg.Redis.Disabled {
		log.Warn("redis disabled, using in-process stores: " +
			"fingerprints reset and reminders may re-fire after a restart")
		fingerprintStore = memory.NewFingerprintStore()
		firedStore = memory.NewFiredStore()
	} else {
		log.Info("connecting to redis")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisClient, err := redis.Connect(redisCfg)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer redisClient.Close()

		fingerprintStore = redis.NewFingerprintStore(redisClient)
		firedStore = redis.NewFiredStore(redisClient)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. EXTERNAL CLIENTS
	// ─────────────────────────────────────────────────────────────────────────
	catalogCfg := pptlinks.DefaultClientConfig(cfg.PPTLinks.BaseURL)
	catalogCfg.AuthToken = cfg.PPTLinks.AuthToken
	catalogCfg.CDNBaseURL = cfg.PPTLinks.CDNBaseURL
	catalogCfg.QuizBaseURL = cfg.PPTLinks.QuizBaseURL
	catalogCfg.TimeZone = cfg.PPTLinks.TimeZone
	catalogCfg.Timeout = cfg.PPTLinks.RequestTimeout
	catalogCfg.RateLimiterConfig.RequestsPerSecond = cfg.PPTLinks.RateLimit
	catalogCfg.RateLimiterConfig.BurstSize = cfg.PPTLinks.RateLimitBurst
	catalogCfg.Logger = log
	catalogClient := pptlinks.NewClient(catalogCfg)

	tgCfg := exttg.DefaultClientConfig(cfg.Telegram.Token)
	tgCfg.RetryAttempts = cfg.Telegram.RetryAttempts
	tgCfg.RetryDelay = cfg.Telegram.RetryDelay
	tgCfg.Logger = log
	tgClient := exttg.NewClient(tgCfg)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. MONITORING CORE
	// ─────────────────────────────────────────────────────────────────────────
	dispatcher := monitor.NewDispatcher(monitor.DispatcherConfig{
		Channel:     iftg.NewDeliveryChannel(tgClient),
		Subs:        subscriptionRepo,
		Log:         notificationLog,
		Logger:      log,
		KindEnabled: kindFilter(cfg.Features),
	})

	reminders := monitor.NewReminderScheduler(
		monitor.ReminderConfig{
			StartLead:   cfg.Monitor.ReminderLead,
			QuizEndLead: cfg.Monitor.QuizEndLead,
		},
		firedStore,
		func(ctx context.Context, ev course.ChangeEvent) {
			if _, err := dispatcher.Dispatch(ctx, ev); err != nil {
				log.Error("reminder dispatch failed",
					"kind", ev.Kind.String(),
					"error", err,
				)
			}
		},
		log,
	)
	defer reminders.Stop()

	orchestrator := monitor.NewOrchestrator(monitor.OrchestratorConfig{
		Catalog:          catalogClient,
		Subs:             subscriptionRepo,
		Dropper:          subscriptionRepo,
		Store:            fingerprintStore,
		Differ:           course.NewDiffer(cfg.Monitor.ExpiryLookahead),
		Dispatcher:       dispatcher,
		Reminders:        reminders,
		Logger:           log,
		FetchConcurrency: cfg.Monitor.FetchConcurrency,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 6. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	schedCfg := scheduler.DefaultConfig()
	schedCfg.Logger = log
	sched := scheduler.New(schedCfg)

	pollJob := monitor.NewPollJob(orchestrator)
	if err := sched.Register(pollJob, scheduler.NewIntervalSchedule(cfg.Monitor.PollInterval)); err != nil {
		return fmt.Errorf("registering poll job: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	// Prime the fingerprints right away instead of waiting a full interval.
	if _, err := sched.RunNow(ctx, pollJob.Name()); err != nil {
		log.Warn("initial poll cycle failed", "error", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("course watch worker is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
	}

	if err := sched.Stop(); err != nil {
		log.Warn("scheduler stop failed", "error", err)
	}

	log.Info("shutdown completed")
	return nil
}

// kindFilter maps event kinds onto the notification feature flags.
func kindFilter(features *config.FeatureFlags) func(course.EventKind) bool {
	return func(kind course.EventKind) bool {
		switch kind {
		case course.EventFileAdded:
			return features.IsEnabled(config.FeatureNotifyFileAdded)
		case course.EventLiveClassScheduled:
			return features.IsEnabled(config.FeatureNotifyLiveClass)
		case course.EventLiveClassStartingSoon:
			return features.IsEnabled(config.FeatureRemindLiveClass)
		case course.EventQuizCreated:
			return features.IsEnabled(config.FeatureNotifyQuiz)
		case course.EventQuizStartingSoon:
			return features.IsEnabled(config.FeatureRemindQuizStart)
		case course.EventQuizEndingSoon:
			return features.IsEnabled(config.FeatureRemindQuizEnd)
		case course.EventCourseExpiringSoon:
			return features.IsEnabled(config.FeatureNotifyExpiry)
		case course.EventGeneralUpdate:
			return features.IsEnabled(config.FeatureNotifyGeneralUpdate)
		default:
			return true
		}
	}
}

// setupLogger configures structured logging per the observability config.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevel(cfg.Observability.LogLevel)}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "text" || cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
