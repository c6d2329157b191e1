// Package digest turns a snapshot of chat history into a summary or a
// favourite-message pick by way of the generation service.
package digest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/digestbot/internal/generation"
	"github.com/edgard/digestbot/internal/history"
)

// DefaultWindow is the number of messages summarised when no count is given.
const DefaultWindow = 100

// Kind is the type of digest requested.
type Kind int

const (
	Summary Kind = iota
	Favourite
)

func (k Kind) String() string {
	if k == Favourite {
		return "favourite"
	}
	return "summary"
}

var (
	// ErrEmptyHistory means the chat has no stored messages at all.
	ErrEmptyHistory = errors.New("no messages in history")
	// ErrNoTextMessages means every stored message is a command or has no text.
	ErrNoTextMessages = errors.New("no text messages in history")
	// ErrGeneration wraps any failure of the generation service.
	ErrGeneration = errors.New("generation failed")
)

// Request describes one digest invocation.
type Request struct {
	ChatID int64
	Kind   Kind
	// RequestedCount is the optional /summarise argument. Nil or
	// non-positive means the pipeline default.
	RequestedCount *int
}

// Result is a rendered digest ready to send with MarkdownV2 parse mode.
type Result struct {
	Kind Kind
	// Text is MarkdownV2; PlainText carries the same reply without markup.
	Text               string
	PlainText          string
	MessagesConsidered int
	// Requested and Partial are set when the caller asked for more messages
	// than were available.
	Requested int
	Partial   bool
}

// Pipeline builds prompts from history snapshots and renders the replies.
// It is safe for concurrent use.
type Pipeline struct {
	client        generation.Client
	log           *slog.Logger
	defaultWindow int
}

// NewPipeline returns a pipeline using client for generation. A non-positive
// defaultWindow falls back to DefaultWindow.
func NewPipeline(client generation.Client, log *slog.Logger, defaultWindow int) *Pipeline {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if defaultWindow <= 0 {
		defaultWindow = DefaultWindow
	}
	return &Pipeline{
		client:        client,
		log:           log.With("component", "digest"),
		defaultWindow: defaultWindow,
	}
}

// Run dispatches req to Summarize or Favourite.
func (p *Pipeline) Run(ctx context.Context, req Request, snapshot []history.Message) (Result, error) {
	if req.Kind == Favourite {
		return p.Favourite(ctx, snapshot)
	}
	return p.Summarize(ctx, snapshot, req.RequestedCount)
}

// Summarize summarises the most recent text messages of snapshot.
func (p *Pipeline) Summarize(ctx context.Context, snapshot []history.Message, requestedCount *int) (Result, error) {
	textMessages, err := filterSnapshot(snapshot)
	if err != nil {
		return Result{}, err
	}

	window, partial := Window(textMessages, requestedCount, p.defaultWindow)
	res := Result{
		Kind:               Summary,
		MessagesConsidered: len(window),
		Partial:            partial,
	}
	if partial {
		res.Requested = *requestedCount
	}

	prompt := SummaryInstruction + "\n\n" + RenderSummaryBody(window)
	generated, err := p.generate(ctx, Summary, prompt, len(window))
	if err != nil {
		return Result{}, err
	}

	scope := "last " + pluralMessages(len(window))
	var md, plain strings.Builder
	fmt.Fprintf(&md, summaryHeaderFormat, Sanitize(scope))
	fmt.Fprintf(&plain, summaryPlainHeaderFormat, scope)
	if partial {
		notice := fmt.Sprintf("Only %s available (you asked for %d).", pluralMessages(len(window)), res.Requested)
		md.WriteString("\n_" + Sanitize(notice) + "_")
		plain.WriteString("\n" + notice)
	}
	md.WriteString("\n\n" + Sanitize(generated))
	plain.WriteString("\n\n" + generated)
	res.Text = md.String()
	res.PlainText = plain.String()
	return res, nil
}

// Favourite asks the generation service to pick one message out of every text
// message in snapshot.
func (p *Pipeline) Favourite(ctx context.Context, snapshot []history.Message) (Result, error) {
	textMessages, err := filterSnapshot(snapshot)
	if err != nil {
		return Result{}, err
	}

	prompt := FavouriteInstruction + "\n\n" + RenderFavouriteBody(textMessages) + "\n\n" + FavouriteReplyFormat
	generated, err := p.generate(ctx, Favourite, prompt, len(textMessages))
	if err != nil {
		return Result{}, err
	}

	scope := "out of " + pluralMessages(len(textMessages))
	return Result{
		Kind:               Favourite,
		Text:               fmt.Sprintf(favouriteHeaderFormat, Sanitize(scope)) + "\n\n" + Sanitize(generated),
		PlainText:          fmt.Sprintf(favouritePlainHeaderFormat, scope) + "\n\n" + generated,
		MessagesConsidered: len(textMessages),
	}, nil
}

func (p *Pipeline) generate(ctx context.Context, kind Kind, prompt string, count int) (string, error) {
	p.log.DebugContext(ctx, "Requesting digest generation", "kind", kind, "messages", count, "prompt_len", len(prompt))
	text, err := p.client.Generate(ctx, prompt)
	if err != nil {
		p.log.ErrorContext(ctx, "Digest generation failed", "kind", kind, "messages", count, "error", err)
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return text, nil
}

func filterSnapshot(snapshot []history.Message) ([]history.Message, error) {
	if len(snapshot) == 0 {
		return nil, ErrEmptyHistory
	}
	textMessages := FilterText(snapshot)
	if len(textMessages) == 0 {
		return nil, ErrNoTextMessages
	}
	return textMessages, nil
}

// FilterText keeps the messages that have text and are not commands,
// preserving order.
func FilterText(snapshot []history.Message) []history.Message {
	out := make([]history.Message, 0, len(snapshot))
	for _, m := range snapshot {
		if m.HasText() && !m.IsCommand {
			out = append(out, m)
		}
	}
	return out
}

// Window returns the most recent messages to summarise. The effective count
// is requestedCount when it is set and positive, otherwise defaultWindow.
// partial reports that a requested count exceeded the available messages.
func Window(messages []history.Message, requestedCount *int, defaultWindow int) (window []history.Message, partial bool) {
	effective := defaultWindow
	if requestedCount != nil && *requestedCount > 0 {
		effective = *requestedCount
		partial = effective > len(messages)
	}
	effective = max(0, min(effective, len(messages)))
	return messages[len(messages)-effective:], partial
}

// RenderSummaryBody renders "<name>: <text>" per line.
func RenderSummaryBody(messages []history.Message) string {
	lines := make([]string, len(messages))
	for i, m := range messages {
		lines[i] = m.SenderName + ": " + m.Text
	}
	return strings.Join(lines, "\n")
}

// RenderFavouriteBody renders "<n>. <name>: <text>" per line, numbering from 1.
func RenderFavouriteBody(messages []history.Message) string {
	lines := make([]string, len(messages))
	for i, m := range messages {
		lines[i] = strconv.Itoa(i+1) + ". " + m.SenderName + ": " + m.Text
	}
	return strings.Join(lines, "\n")
}

// Sanitize escapes every character reserved by Telegram MarkdownV2,
// backslash included.
func Sanitize(s string) string {
	return tgbot.EscapeMarkdown(strings.ReplaceAll(s, `\`, `\\`))
}

func pluralMessages(n int) string {
	if n == 1 {
		return "1 message"
	}
	return strconv.Itoa(n) + " messages"
}
