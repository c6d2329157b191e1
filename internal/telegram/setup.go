// Package telegram creates the Telegram bot client and wires command handlers
// into it.
package telegram

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/digestbot/internal/bot/handlers"
	"github.com/edgard/digestbot/internal/command"
)

// NewTelegramBot creates a bot client with the given options. Updates are
// handled one at a time on the bot's single worker, in arrival order;
// handlers that do slow work must hand it off themselves.
func NewTelegramBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, errors.New("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	b, err := bot.New(token, append([]bot.Option{bot.WithNotAsyncHandlers()}, opts...)...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("Telegram bot instance created", "token_prefix", tokenPrefix(token))
	return b, nil
}

func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:8] + "..."
}

// applyMiddleware wraps handler so that the first middleware is outermost.
func applyMiddleware(handler bot.HandlerFunc, mw []bot.Middleware) bot.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// CommandMatcher reports whether an update carries a message the router
// classifies as kind.
func CommandMatcher(router *command.Router, kind command.Kind) bot.MatchFunc {
	return func(update *models.Update) bool {
		if update == nil || update.Message == nil {
			return false
		}
		return router.Classify(update.Message.Text).Kind == kind
	}
}

// RegisterHandlers registers each command handler behind a matcher driven by
// the command router. Updates no command claims fall through to the bot's
// default handler.
func RegisterHandlers(b *bot.Bot, logger *slog.Logger, router *command.Router, registered map[command.Kind]handlers.RegisteredHandler) error {
	if b == nil {
		return errors.New("bot instance cannot be nil")
	}
	if router == nil {
		return errors.New("command router cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "handler_registry")

	if len(registered) == 0 {
		log.Warn("No handlers provided for registration")
		return nil
	}

	count := 0
	for kind, reg := range registered {
		if reg.Handler == nil {
			log.Warn("Skipping registration for nil handler", "command", kind.String())
			continue
		}
		if kind == command.None {
			log.Warn("Skipping handler registered for plain content", "command", kind.String())
			continue
		}

		b.RegisterHandlerMatchFunc(CommandMatcher(router, kind), applyMiddleware(reg.Handler, reg.Middleware))
		log.Debug("Registered handler", "command", kind.String(), "middleware_count", len(reg.Middleware))
		count++
	}

	log.Info("Registered Telegram handlers", "count", count)
	return nil
}
