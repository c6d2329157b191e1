package handlers

import (
	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/digestbot/internal/command"
	"github.com/edgard/digestbot/internal/digest"
)

// RegisteredHandler is a command handler together with its middleware. The
// command router decides which updates reach it.
type RegisteredHandler struct {
	Command    command.Kind
	Handler    tgbot.HandlerFunc
	Middleware []tgbot.Middleware
}

// RegisterAllCommands returns every command handler keyed by command kind.
func RegisterAllCommands(deps HandlerDeps) map[command.Kind]RegisteredHandler {
	handlers := make(map[command.Kind]RegisteredHandler)

	handlers[command.Start] = RegisteredHandler{
		Command: command.Start,
		Handler: NewStartHandler(deps),
	}
	handlers[command.Summarize] = RegisteredHandler{
		Command: command.Summarize,
		Handler: NewDigestHandler(deps, digest.Summary),
	}
	handlers[command.Favourite] = RegisteredHandler{
		Command: command.Favourite,
		Handler: NewDigestHandler(deps, digest.Favourite),
	}

	return handlers
}
