package telegram

import (
	"context"
	"strings"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/digestbot/internal/command"
)

func TestCommandMatcher(t *testing.T) {
	t.Parallel()

	router := command.NewRouter("DigestBot")
	msg := func(text string) *models.Update {
		return &models.Update{Message: &models.Message{Text: text}}
	}

	tests := []struct {
		name   string
		kind   command.Kind
		update *models.Update
		want   bool
	}{
		{"summarise", command.Summarize, msg("/summarise 20"), true},
		{"summarise addressed", command.Summarize, msg("/summarise@digestbot"), true},
		{"summarise other bot", command.Summarize, msg("/summarise@otherbot"), false},
		{"favourite", command.Favourite, msg("/favourite"), true},
		{"favourite with argument", command.Favourite, msg("/favourite please"), false},
		{"start", command.Start, msg("/start"), true},
		{"plain text", command.Summarize, msg("summarise"), false},
		{"no message", command.Start, &models.Update{}, false},
		{"nil update", command.Start, nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := CommandMatcher(router, tc.kind)(tc.update); got != tc.want {
				t.Errorf("CommandMatcher(%v) = %v, want %v", tc.kind, got, tc.want)
			}
		})
	}
}

func TestApplyMiddlewareOrder(t *testing.T) {
	t.Parallel()

	var trace []string
	mark := func(name string) bot.Middleware {
		return func(next bot.HandlerFunc) bot.HandlerFunc {
			return func(ctx context.Context, b *bot.Bot, u *models.Update) {
				trace = append(trace, name)
				next(ctx, b, u)
			}
		}
	}
	h := applyMiddleware(func(context.Context, *bot.Bot, *models.Update) {
		trace = append(trace, "handler")
	}, []bot.Middleware{mark("outer"), mark("inner")})

	h(context.Background(), nil, &models.Update{})
	if got := strings.Join(trace, ","); got != "outer,inner,handler" {
		t.Errorf("call order = %s", got)
	}
}

func TestTokenPrefix(t *testing.T) {
	t.Parallel()

	if got := tokenPrefix("123456789:ABC"); got != "12345678..." {
		t.Errorf("tokenPrefix() = %q", got)
	}
	if got := tokenPrefix("short"); got != "***" {
		t.Errorf("tokenPrefix(short) = %q", got)
	}
}

func TestNewTelegramBot(t *testing.T) {
	t.Parallel()

	if _, err := NewTelegramBot("", nil); err == nil {
		t.Error("expected error for empty token")
	}
	b, err := NewTelegramBot("123456789:TEST", nil, bot.WithSkipGetMe())
	if err != nil || b == nil {
		t.Fatalf("NewTelegramBot() = %v, %v", b, err)
	}
}

func TestRegisterHandlersRejectsNilBot(t *testing.T) {
	t.Parallel()

	if err := RegisterHandlers(nil, nil, command.NewRouter(""), nil); err == nil {
		t.Error("expected error for nil bot")
	}
}
