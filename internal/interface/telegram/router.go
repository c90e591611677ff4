// Package telegram implements the bot's Telegram interface: routing of
// incoming command updates to handlers and the outgoing delivery channel
// used by the notification dispatcher.
package telegram

import (
	"context"
	"log/slog"

	"github.com/course-watch/course-watch-bot/internal/infrastructure/external/telegram"
	"github.com/course-watch/course-watch-bot/internal/interface/telegram/handler"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER
// ══════════════════════════════════════════════════════════════════════════════

// CommandContext carries one parsed command through routing.
type CommandContext struct {
	// TelegramID is the user's Telegram ID.
	TelegramID int64

	// ChatID is the chat the command was sent in.
	ChatID int64

	// Args is the text after the command.
	Args string

	// Message is the original Telegram message.
	Message *telegram.Message
}

// CommandHandler processes one command and returns the reply.
type CommandHandler func(ctx context.Context, cmd *CommandContext) (*handler.Response, error)

// Router dispatches incoming updates to command handlers.
type Router struct {
	client   *telegram.Client
	logger   *slog.Logger
	commands map[string]CommandHandler
}

// NewRouter creates a Router.
func NewRouter(client *telegram.Client, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		client:   client,
		logger:   logger,
		commands: make(map[string]CommandHandler),
	}
}

// Handle registers a handler for a command name (without the slash).
func (r *Router) Handle(command string, h CommandHandler) {
	r.commands[command] = h
}

// Route processes one update end to end: parse, dispatch, reply.
func (r *Router) Route(ctx context.Context, update *telegram.Update) error {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return nil
	}
	if !telegram.IsPrivateChat(msg) {
		// The bot only operates in private chats; group noise is ignored.
		return nil
	}

	command := telegram.ExtractCommand(msg)
	if command == "" {
		return r.reply(ctx, msg.Chat.ID,
			"I only understand commands. Try /help for the list.")
	}

	h, ok := r.commands[command]
	if !ok {
		r.logger.Debug("unknown command", "command", command)
		return r.reply(ctx, msg.Chat.ID,
			"Unknown command. Try /help for the list.")
	}

	cmd := &CommandContext{
		TelegramID: msg.From.ID,
		ChatID:     msg.Chat.ID,
		Args:       telegram.ExtractCommandArgs(msg),
		Message:    msg,
	}

	resp, err := h(ctx, cmd)
	if err != nil {
		r.logger.Error("command handler failed",
			"command", command,
			"telegram_id", cmd.TelegramID,
			"error", err,
		)
		return r.reply(ctx, cmd.ChatID,
			"Something went wrong on my side. Please try again in a moment.")
	}
	if resp == nil {
		return nil
	}

	return r.reply(ctx, cmd.ChatID, resp.Text)
}

// reply sends an HTML message back to the chat.
func (r *Router) reply(ctx context.Context, chatID int64, text string) error {
	_, err := r.client.SendHTML(ctx, chatID, text)
	return err
}
