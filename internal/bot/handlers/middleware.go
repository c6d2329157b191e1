// Package handlers contains the Telegram update handlers, the history
// ingestion middleware and the handler registry.
package handlers

import (
	"context"
	"log/slog"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/digestbot/internal/history"
)

// Ingest appends every incoming message, commands included, to the chat's
// history before any handler runs.
func Ingest(store *history.Store, logger *slog.Logger) tgbot.Middleware {
	log := logger.With("middleware", "ingest")
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if update.Message != nil {
				stored := store.Append(update.Message.Chat.ID, MessageFromTelegram(update.Message))
				log.DebugContext(ctx, "Stored message",
					"chat_id", update.Message.Chat.ID,
					"sequence", stored.Sequence,
					"is_command", stored.IsCommand,
					"has_text", stored.HasText())
			}
			next(ctx, b, update)
		}
	}
}

// MessageFromTelegram converts a Telegram message into a history entry.
// Captions and media are not text.
func MessageFromTelegram(msg *models.Message) history.Message {
	var (
		senderID   int64
		senderName string
	)
	if msg.From != nil {
		senderID = msg.From.ID
		senderName = strings.TrimSpace(msg.From.FirstName)
	}
	return history.NewMessage(senderID, senderName, msg.Text, time.Unix(int64(msg.Date), 0))
}

// NewContentHandler handles every update no command matched. The message was
// already stored by Ingest, so there is nothing left to do but note it.
func NewContentHandler(logger *slog.Logger) tgbot.HandlerFunc {
	log := logger.With("handler", "content")
	return func(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
		if update.Message == nil {
			log.DebugContext(ctx, "Ignoring non-message update", "update_id", update.ID)
			return
		}
		log.DebugContext(ctx, "Message kept as content", "chat_id", update.Message.Chat.ID)
	}
}
