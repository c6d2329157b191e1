package handlers

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"

	"github.com/edgard/digestbot/internal/database"
	"github.com/edgard/digestbot/internal/digest"
	"github.com/edgard/digestbot/internal/history"
)

const auditSaveTimeout = 5 * time.Second

// NewDigestHandler returns a handler for /summarise or /favourite.
func NewDigestHandler(deps HandlerDeps, kind digest.Kind) bot.HandlerFunc {
	return digestHandler{deps: deps, kind: kind}.Handle
}

type digestHandler struct {
	deps HandlerDeps
	kind digest.Kind
}

// Handle snapshots the chat on the update worker, so the digest covers
// exactly the messages that arrived before the command, and generates the
// reply in the background.
func (h digestHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil {
		h.deps.Logger.WarnContext(ctx, "Digest handler received update without message", "update_id", update.ID)
		return
	}

	classification := h.deps.Router.Classify(msg.Text)
	if !classification.IsDigest() {
		h.deps.Logger.WarnContext(ctx, "Digest handler received non-digest message", "update_id", update.ID, "kind", classification.Kind.String())
		return
	}

	chatID := msg.Chat.ID
	requestID := uuid.NewString()
	log := h.deps.Logger.With("handler", h.kind.String(), "chat_id", chatID, "request_id", requestID)

	req := digest.Request{ChatID: chatID, Kind: h.kind}
	if h.kind == digest.Summary {
		req.RequestedCount = classification.RequestedCount
	}
	log.InfoContext(ctx, "Handling digest command", "requested_count", derefCount(req.RequestedCount))

	snapshot := h.deps.History.Snapshot(chatID)
	h.deps.goTracked(func() {
		h.respond(ctx, b, log, requestID, req, snapshot)
	})
}

func (h digestHandler) respond(ctx context.Context, b *bot.Bot, log *slog.Logger, requestID string, req digest.Request, snapshot []history.Message) {
	h.send(ctx, b, req.ChatID, Reply{Text: ProgressText(h.deps.Config.Messages, h.kind)})
	if _, err := b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: req.ChatID, Action: models.ChatActionTyping}); err != nil {
		log.DebugContext(ctx, "Failed to send typing action", "error", err)
	}

	start := time.Now()
	res, err := h.deps.Pipeline.Run(ctx, req, snapshot)
	duration := time.Since(start)

	reply := BuildReply(h.deps.Config.Messages, h.kind, res, err)
	if err != nil {
		log.WarnContext(ctx, "Digest not produced", "outcome", reply.Outcome, "error", err, "duration", duration)
	} else {
		log.InfoContext(ctx, "Digest produced", "messages", res.MessagesConsidered, "partial", res.Partial, "duration", duration)
	}
	h.send(ctx, b, req.ChatID, reply)

	h.audit(ctx, log, &database.DigestRecord{
		RequestID:          requestID,
		ChatID:             req.ChatID,
		Kind:               h.kind.String(),
		RequestedCount:     nullCount(req.RequestedCount),
		MessagesConsidered: res.MessagesConsidered,
		Partial:            res.Partial,
		Outcome:            reply.Outcome,
		DurationMS:         duration.Milliseconds(),
		CreatedAt:          start,
	})
}

// send delivers reply, falling back to its plain text when Telegram rejects
// the MarkdownV2 version.
func (h digestHandler) send(ctx context.Context, b *bot.Bot, chatID int64, reply Reply) {
	params := &bot.SendMessageParams{ChatID: chatID, Text: reply.Text}
	if reply.Markdown {
		params.ParseMode = models.ParseModeMarkdown
	}
	_, err := b.SendMessage(ctx, params)
	if err == nil {
		return
	}
	if !reply.Markdown || reply.Plain == "" {
		h.deps.Logger.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
		return
	}

	h.deps.Logger.WarnContext(ctx, "MarkdownV2 reply rejected, resending as plain text", "error", err, "chat_id", chatID)
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: reply.Plain}); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send plain text reply", "error", err, "chat_id", chatID)
	}
}

// audit writes the digest record on a context detached from the update so a
// shutdown mid-request still records the outcome.
func (h digestHandler) audit(ctx context.Context, log *slog.Logger, record *database.DigestRecord) {
	if h.deps.Store == nil {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditSaveTimeout)
	defer cancel()
	if err := h.deps.Store.SaveDigestRecord(saveCtx, record); err != nil {
		log.ErrorContext(ctx, "Failed to record digest", "error", err)
	}
}

func derefCount(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}

func nullCount(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
