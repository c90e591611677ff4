// Package main is the entry point for the Telegram bot: the process that
// handles subscriber commands (/start, /subscribe, /courses, /stats) and
// maintains the watchlist the worker polls against.
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
	exttg "github.com/course-watch/course-watch-bot/internal/infrastructure/external/telegram"
	"github.com/course-watch/course-watch-bot/internal/infrastructure/persistence/postgres"
	"github.com/course-watch/course-watch-bot/internal/infrastructure/persistence/redis"
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
	log.Info("starting course watch bot",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
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

	subscriptionRepo := postgres.NewSubscriptionRepository(dbConn)
	notificationLog := postgres.NewNotificationLog(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (fingerprint garbage collection on unsubscribe)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to redis")
	redisCfg := redis.DefaultConfig()
	redisCfg.Host = cfg.Redis.Host
	redisCfg.Port = cfg.Redis.Port
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	redisCfg.DialTimeout = cfg.Redis.DialTimeout
	redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
	redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

	redisClient, err := redis.Connect(redisCfg)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer redisClient.Close()

	fingerprintStore := redis.NewFingerprintStore(redisClient)

	// The bot only uses the orchestrator's state-dropping side: when a
	// course loses its last subscriber its fingerprint must go, so a
	// re-subscribe starts from a silent baseline. Polling stays in the
	// worker process.
	forgetter := monitor.NewOrchestrator(monitor.OrchestratorConfig{
		Store:  fingerprintStore,
		Logger: log,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 4. TELEGRAM BOT
	// ─────────────────────────────────────────────────────────────────────────
	tgCfg := exttg.DefaultClientConfig(cfg.Telegram.Token)
	tgCfg.RetryAttempts = cfg.Telegram.RetryAttempts
	tgCfg.RetryDelay = cfg.Telegram.RetryDelay
	tgCfg.Logger = log
	tgClient := exttg.NewClient(tgCfg)

	botCfg := iftg.DefaultBotConfig()
	botCfg.MaxConcurrentUpdates = cfg.Telegram.MaxConcurrentUpdates
	botCfg.Logger = log

	bot := iftg.NewBot(botCfg, tgClient, iftg.BotDependencies{
		Subs:      subscriptionRepo,
		Log:       notificationLog,
		Forgetter: forgetter,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 5. RUN UNTIL SIGNALLED
	// ─────────────────────────────────────────────────────────────────────────
	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("course watch bot is running")
	if err := bot.Run(runCtx); err != nil {
		return fmt.Errorf("bot stopped: %w", err)
	}

	log.Info("shutdown completed")
	return nil
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
