package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/edgard/digestbot/internal/config"
)

type geminiClient struct {
	models        *genai.Models
	log           *slog.Logger
	cfg           config.GenerationConfig
	contentConfig *genai.GenerateContentConfig
}

// NewGeminiClient creates a client for the Gemini API.
func NewGeminiClient(ctx context.Context, cfg config.GenerationConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	temperature := cfg.Temperature
	contentCfg := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}
	if cfg.SystemInstruction != "" {
		contentCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: cfg.SystemInstruction}}}
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized successfully", "model", cfg.Model)
	return &geminiClient{
		models:        gi.Models,
		log:           logger,
		cfg:           cfg,
		contentConfig: contentCfg,
	}, nil
}

func (c *geminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := withTimeout(ctx, c.cfg)
	defer cancel()

	c.log.DebugContext(ctx, "Sending prompt to Gemini", "model", c.cfg.Model, "prompt_len", len(prompt))
	start := time.Now()

	resp, err := c.models.GenerateContent(callCtx, c.cfg.Model, genai.Text(prompt), c.contentConfig)
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	text, err := textFromGeminiResponse(resp)
	if err != nil {
		return "", err
	}

	c.log.DebugContext(ctx, "Gemini response received", "duration", time.Since(start), "response_len", len(text))
	return text, nil
}

// textFromGeminiResponse extracts the reply text, reporting blocked prompts
// and empty candidates as errors.
func textFromGeminiResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified {
		reason := string(fb.BlockReason)
		if fb.BlockReasonMessage != "" {
			reason = fb.BlockReasonMessage
		}
		return "", fmt.Errorf("prompt blocked by safety filter: %s", reason)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		if len(resp.Candidates) > 0 {
			switch reason := resp.Candidates[0].FinishReason; reason {
			case "", genai.FinishReasonUnspecified, genai.FinishReasonStop:
			default:
				return "", fmt.Errorf("%w: finish reason %s", ErrEmptyResponse, reason)
			}
		}
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
