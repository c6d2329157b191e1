// Package generation wraps the external text-generation services behind a
// single prompt-in, text-out contract.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/edgard/digestbot/internal/config"
)

// Client generates text for a prompt. Implementations make a single round
// trip per call and never retry.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrEmptyResponse is returned when the service answers without any text.
var ErrEmptyResponse = errors.New("generation service returned no text")

// NewClient builds the client selected by cfg.Provider.
func NewClient(ctx context.Context, cfg config.GenerationConfig, log *slog.Logger) (Client, error) {
	if log == nil {
		log = slog.Default()
	}
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg, log)
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg, log)
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}

// withTimeout applies the adapter timeout when one is configured.
func withTimeout(ctx context.Context, cfg config.GenerationConfig) (context.Context, context.CancelFunc) {
	if cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cfg.Timeout)
}
