// Package command classifies incoming message text into the commands the bot
// understands. It performs no I/O.
package command

import (
	"strconv"
	"strings"
)

// Kind identifies a recognised command.
type Kind int

const (
	// None marks ordinary content.
	None Kind = iota
	Start
	Summarize
	Favourite
)

func (k Kind) String() string {
	switch k {
	case Start:
		return "start"
	case Summarize:
		return "summarise"
	case Favourite:
		return "favourite"
	default:
		return "none"
	}
}

const (
	startToken     = "/start"
	summarizeToken = "/summarise"
	favouriteToken = "/favourite"
)

// Classification is the result of routing one message.
type Classification struct {
	Kind Kind
	// RequestedCount is set only for Summarize when the argument is a
	// positive integer.
	RequestedCount *int
}

// IsDigest reports whether the classification triggers a digest.
func (c Classification) IsDigest() bool {
	return c.Kind == Summarize || c.Kind == Favourite
}

// Router matches command text exactly. Commands addressed to another bot
// ("/start@OtherBot") are treated as content.
type Router struct {
	botUsername string
}

// NewRouter returns a router that also accepts commands suffixed with
// "@botUsername". An empty username only accepts bare commands.
func NewRouter(botUsername string) *Router {
	return &Router{botUsername: strings.TrimPrefix(botUsername, "@")}
}

// Classify maps message text to a command classification.
func (r *Router) Classify(text string) Classification {
	if !strings.HasPrefix(text, "/") {
		return Classification{}
	}

	switch {
	case r.matchesToken(text, startToken):
		return Classification{Kind: Start}
	case r.matchesToken(text, favouriteToken):
		return Classification{Kind: Favourite}
	}

	fields := strings.Fields(text)
	if len(fields) == 0 || !r.matchesToken(fields[0], summarizeToken) {
		return Classification{}
	}
	c := Classification{Kind: Summarize}
	if len(fields) >= 2 {
		if n, err := strconv.Atoi(fields[1]); err == nil && n > 0 {
			c.RequestedCount = &n
		}
	}
	return c
}

func (r *Router) matchesToken(s, token string) bool {
	if s == token {
		return true
	}
	if r.botUsername == "" {
		return false
	}
	cmd, addressee, ok := strings.Cut(s, "@")
	return ok && cmd == token && strings.EqualFold(addressee, r.botUsername)
}
