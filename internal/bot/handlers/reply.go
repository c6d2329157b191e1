package handlers

import (
	"errors"

	"github.com/edgard/digestbot/internal/config"
	"github.com/edgard/digestbot/internal/database"
	"github.com/edgard/digestbot/internal/digest"
)

// Reply is the text sent back for a digest request and the outcome recorded
// for it. Only successful digests are MarkdownV2; every other reply is plain.
// Plain is sent instead when Telegram rejects the MarkdownV2 text.
type Reply struct {
	Text     string
	Plain    string
	Markdown bool
	Outcome  string
}

// BuildReply turns a pipeline result into the user-facing reply. Raw errors
// never reach the user.
func BuildReply(msgs config.MessagesConfig, kind digest.Kind, res digest.Result, err error) Reply {
	empty, noText, failed := msgs.SummaryEmpty, msgs.SummaryNoText, msgs.SummaryError
	if kind == digest.Favourite {
		empty, noText, failed = msgs.FavouriteEmpty, msgs.FavouriteNoText, msgs.FavouriteError
	}

	switch {
	case err == nil:
		return Reply{Text: res.Text, Plain: res.PlainText, Markdown: true, Outcome: database.OutcomeOK}
	case errors.Is(err, digest.ErrEmptyHistory):
		return Reply{Text: empty, Outcome: database.OutcomeEmptyHistory}
	case errors.Is(err, digest.ErrNoTextMessages):
		return Reply{Text: noText, Outcome: database.OutcomeNoTextMessages}
	default:
		return Reply{Text: failed, Outcome: database.OutcomeGenerationFailed}
	}
}

// ProgressText is the notice sent while a digest is being generated.
func ProgressText(msgs config.MessagesConfig, kind digest.Kind) string {
	if kind == digest.Favourite {
		return msgs.FavouriteProgress
	}
	return msgs.SummaryProgress
}
