package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/course-watch/course-watch-bot/internal/domain/notification"
	"github.com/course-watch/course-watch-bot/internal/domain/subscription"
	"github.com/course-watch/course-watch-bot/internal/infrastructure/external/telegram"
	"github.com/course-watch/course-watch-bot/internal/interface/telegram/handler"
)

// ══════════════════════════════════════════════════════════════════════════════
// BOT CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// BotConfig contains configuration for the Telegram bot.
type BotConfig struct {
	// MaxConcurrentUpdates limits concurrent update processing.
	MaxConcurrentUpdates int

	// UpdateTimeout bounds the handling of a single update.
	UpdateTimeout time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultBotConfig returns sensible defaults.
func DefaultBotConfig() BotConfig {
	return BotConfig{
		MaxConcurrentUpdates: 32,
		UpdateTimeout:        30 * time.Second,
	}
}

// BotDependencies contains everything the command handlers need.
type BotDependencies struct {
	Subs      subscription.Repository
	Log       notification.Log
	Forgetter handler.CourseForgetter
}

// ══════════════════════════════════════════════════════════════════════════════
// BOT
// ══════════════════════════════════════════════════════════════════════════════

// Bot receives Telegram updates via long polling and routes commands.
type Bot struct {
	config BotConfig
	client *telegram.Client
	router *Router
	logger *slog.Logger

	sem chan struct{}
	wg  sync.WaitGroup
}

// NewBot creates the bot and wires all command handlers.
func NewBot(config BotConfig, client *telegram.Client, deps BotDependencies) *Bot {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MaxConcurrentUpdates <= 0 {
		config.MaxConcurrentUpdates = 32
	}
	if config.UpdateTimeout <= 0 {
		config.UpdateTimeout = 30 * time.Second
	}

	router := NewRouter(client, config.Logger)

	start := handler.NewStartHandler(deps.Subs)
	subscribe := handler.NewSubscribeHandler(deps.Subs)
	unsubscribe := handler.NewUnsubscribeHandler(deps.Subs, deps.Forgetter)
	courses := handler.NewCoursesHandler(deps.Subs)
	stats := handler.NewStatsHandler(deps.Subs, deps.Log)
	help := handler.NewHelpHandler()

	router.Handle("start", func(ctx context.Context, cmd *CommandContext) (*handler.Response, error) {
		req := handler.StartRequest{
			TelegramID: cmd.TelegramID,
			Username:   cmd.Message.From.Username,
			FirstName:  cmd.Message.From.FirstName,
			LastName:   cmd.Message.From.LastName,
		}
		return start.Handle(ctx, req)
	})
	router.Handle("subscribe", func(ctx context.Context, cmd *CommandContext) (*handler.Response, error) {
		return subscribe.Handle(ctx, handler.SubscribeRequest{
			TelegramID: cmd.TelegramID,
			CourseID:   cmd.Args,
		})
	})
	router.Handle("unsubscribe", func(ctx context.Context, cmd *CommandContext) (*handler.Response, error) {
		return unsubscribe.Handle(ctx, handler.UnsubscribeRequest{
			TelegramID: cmd.TelegramID,
			CourseID:   cmd.Args,
		})
	})
	router.Handle("stop", func(ctx context.Context, cmd *CommandContext) (*handler.Response, error) {
		return unsubscribe.HandleStop(ctx, cmd.TelegramID)
	})
	router.Handle("courses", func(ctx context.Context, cmd *CommandContext) (*handler.Response, error) {
		return courses.Handle(ctx, cmd.TelegramID)
	})
	router.Handle("stats", func(ctx context.Context, cmd *CommandContext) (*handler.Response, error) {
		return stats.Handle(ctx, cmd.TelegramID)
	})
	router.Handle("help", func(ctx context.Context, cmd *CommandContext) (*handler.Response, error) {
		return help.Handle(ctx)
	})

	return &Bot{
		config: config,
		client: client,
		router: router,
		logger: config.Logger,
		sem:    make(chan struct{}, config.MaxConcurrentUpdates),
	}
}

// Run starts long polling and blocks until the context is cancelled.
// Outstanding update handlers are waited for before Run returns.
func (b *Bot) Run(ctx context.Context) error {
	me, err := b.client.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("verifying bot token: %w", err)
	}
	b.logger.Info("bot authorized",
		"username", me.Username,
		"bot_id", me.ID,
	)

	pollErr := b.client.StartPolling(ctx, func(_ context.Context, update *telegram.Update) error {
		select {
		case b.sem <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}

		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			defer func() { <-b.sem }()

			// Detached from the polling context so an in-flight command
			// finishes during shutdown.
			updateCtx, cancel := context.WithTimeout(context.Background(), b.config.UpdateTimeout)
			defer cancel()

			if err := b.router.Route(updateCtx, update); err != nil {
				b.logger.Error("update handling failed",
					"update_id", update.UpdateID,
					"error", err,
				)
			}
		}()
		return nil
	})

	b.wg.Wait()
	b.logger.Info("bot stopped")

	if pollErr != nil && ctx.Err() == nil {
		return pollErr
	}
	return nil
}
