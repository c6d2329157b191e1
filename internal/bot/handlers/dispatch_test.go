package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/digestbot/internal/bot/handlers"
	"github.com/edgard/digestbot/internal/command"
	"github.com/edgard/digestbot/internal/config"
	"github.com/edgard/digestbot/internal/database"
	"github.com/edgard/digestbot/internal/digest"
	"github.com/edgard/digestbot/internal/history"
	"github.com/edgard/digestbot/internal/telegram"
)

const testChatID = 42

// sentMessage is one sendMessage call received by the fake Bot API.
type sentMessage struct {
	text      string
	parseMode string
}

// fakeBotAPI answers Bot API calls. Messages sent with MarkdownV2 are
// rejected when rejectMarkdown is set.
type fakeBotAPI struct {
	rejectMarkdown bool

	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		msg := sentMessage{text: r.FormValue("text"), parseMode: r.FormValue("parse_mode")}
		if f.rejectMarkdown && msg.parseMode == string(models.ParseModeMarkdown) {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities"}`)
			return
		}
		f.mu.Lock()
		f.sent = append(f.sent, msg)
		f.mu.Unlock()
		fmt.Fprintf(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":%d,"type":"group"}}}`, testChatID)
	default:
		fmt.Fprint(w, `{"ok":true,"result":true}`)
	}
}

func (f *fakeBotAPI) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type recordingGenerator struct {
	reply string

	mu      sync.Mutex
	prompts []string
}

func (g *recordingGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	return g.reply, nil
}

type recordingAuditStore struct {
	database.Store

	mu      sync.Mutex
	records []database.DigestRecord
}

func (s *recordingAuditStore) SaveDigestRecord(_ context.Context, r *database.DigestRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *r)
	return nil
}

type testBot struct {
	bot      *tgbot.Bot
	history  *history.Store
	inflight *sync.WaitGroup
	gen      *recordingGenerator
	audit    *recordingAuditStore
	updateID int64
}

func newTestBot(t *testing.T, api http.Handler, reply string) *testBot {
	t.Helper()

	log := discardLogger()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	tb := &testBot{
		history:  history.NewStore(1000),
		inflight: &sync.WaitGroup{},
		gen:      &recordingGenerator{reply: reply},
		audit:    &recordingAuditStore{},
	}

	b, err := telegram.NewTelegramBot("123456789:TEST", log,
		tgbot.WithSkipGetMe(),
		tgbot.WithServerURL(srv.URL),
		tgbot.WithMiddlewares(handlers.Ingest(tb.history, log)),
		tgbot.WithDefaultHandler(handlers.NewContentHandler(log)),
	)
	if err != nil {
		t.Fatalf("NewTelegramBot() error = %v", err)
	}

	router := command.NewRouter("DigestBot")
	deps := handlers.HandlerDeps{
		Logger:   log,
		Config:   &config.Config{Messages: config.DefaultMessages},
		History:  tb.history,
		Router:   router,
		Pipeline: digest.NewPipeline(tb.gen, log, 0),
		Store:    tb.audit,
		Inflight: tb.inflight,
	}
	if err := telegram.RegisterHandlers(b, log, router, handlers.RegisterAllCommands(deps)); err != nil {
		t.Fatalf("RegisterHandlers() error = %v", err)
	}
	tb.bot = b
	return tb
}

func (tb *testBot) send(text string) {
	tb.updateID++
	tb.bot.ProcessUpdate(context.Background(), &models.Update{
		ID: tb.updateID,
		Message: &models.Message{
			ID:   int(tb.updateID),
			Chat: models.Chat{ID: testChatID},
			From: &models.User{ID: 7, FirstName: "Ann"},
			Text: text,
		},
	})
}

func TestDispatchKeepsArrivalOrder(t *testing.T) {
	t.Parallel()

	tb := newTestBot(t, &fakeBotAPI{}, "unused")
	const n = 500
	for i := range n {
		tb.send(strconv.Itoa(i))
	}

	snap := tb.history.Snapshot(testChatID)
	if len(snap) != n {
		t.Fatalf("stored %d messages, want %d", len(snap), n)
	}
	for i, m := range snap {
		if m.Text != strconv.Itoa(i) {
			t.Fatalf("message %d has text %q, want %q", i, m.Text, strconv.Itoa(i))
		}
		if i > 0 && m.Sequence != snap[i-1].Sequence+1 {
			t.Fatalf("sequence gap at %d: %d after %d", i, m.Sequence, snap[i-1].Sequence)
		}
	}
}

func TestDigestCoversMessagesBeforeCommand(t *testing.T) {
	t.Parallel()

	api := &fakeBotAPI{}
	tb := newTestBot(t, api, "They said hello.")
	tb.send("hello there")
	tb.send("how are you")
	tb.send("/summarise")
	tb.send("sent after the command")
	tb.inflight.Wait()

	if len(tb.gen.prompts) != 1 {
		t.Fatalf("generation called %d times, want 1", len(tb.gen.prompts))
	}
	prompt := tb.gen.prompts[0]
	if !strings.HasSuffix(prompt, "Ann: hello there\nAnn: how are you") {
		t.Errorf("prompt does not end with the two earlier messages:\n%s", prompt)
	}
	if strings.Contains(prompt, "sent after the command") {
		t.Errorf("prompt contains a message sent after the command:\n%s", prompt)
	}

	sent := api.messages()
	if len(sent) != 2 {
		t.Fatalf("sent %d messages, want progress and summary: %+v", len(sent), sent)
	}
	if sent[0].text != config.DefaultMessages.SummaryProgress || sent[0].parseMode != "" {
		t.Errorf("first message = %+v, want plain progress notice", sent[0])
	}
	want := "📝 *Chat Summary* _last 2 messages_\n\nThey said hello\\."
	if sent[1].text != want || sent[1].parseMode != string(models.ParseModeMarkdown) {
		t.Errorf("summary = %+v, want %q as MarkdownV2", sent[1], want)
	}

	if len(tb.audit.records) != 1 || tb.audit.records[0].Outcome != database.OutcomeOK || tb.audit.records[0].ChatID != testChatID {
		t.Errorf("audit records = %+v", tb.audit.records)
	}
}

func TestRejectedMarkdownFallsBackToPlainText(t *testing.T) {
	t.Parallel()

	reply := `Path is C:\*temp* (unbalanced)`
	api := &fakeBotAPI{rejectMarkdown: true}
	tb := newTestBot(t, api, reply)
	tb.send("where are the files?")
	tb.send("/favourite")
	tb.inflight.Wait()

	sent := api.messages()
	if len(sent) != 2 {
		t.Fatalf("sent %d messages, want progress and plain fallback: %+v", len(sent), sent)
	}
	want := "💝 My Favourite Message (out of 1 message)\n\n" + reply
	if sent[1].text != want || sent[1].parseMode != "" {
		t.Errorf("fallback = %+v, want plain %q", sent[1], want)
	}
}

func TestDigestHandlerIgnoresNonDigestText(t *testing.T) {
	t.Parallel()

	api := &fakeBotAPI{}
	tb := newTestBot(t, api, "unused")
	deps := handlers.HandlerDeps{
		Logger:   discardLogger(),
		Config:   &config.Config{Messages: config.DefaultMessages},
		History:  tb.history,
		Router:   command.NewRouter("DigestBot"),
		Pipeline: digest.NewPipeline(tb.gen, nil, 0),
		Inflight: tb.inflight,
	}

	h := handlers.NewDigestHandler(deps, digest.Summary)
	h(context.Background(), tb.bot, &models.Update{ID: 1, Message: &models.Message{Chat: models.Chat{ID: testChatID}, Text: "just chatting"}})
	tb.inflight.Wait()

	if len(api.messages()) != 0 || len(tb.gen.prompts) != 0 {
		t.Errorf("non-digest text triggered a digest: sent %+v, prompts %d", api.messages(), len(tb.gen.prompts))
	}
}
