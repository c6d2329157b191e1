package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/edgard/digestbot/internal/config"
)

type openAIClient struct {
	client *openai.Client
	log    *slog.Logger
	cfg    config.GenerationConfig
}

// NewOpenAIClient creates a client for any OpenAI-compatible chat completion
// endpoint. cfg.BaseURL overrides the default API host.
func NewOpenAIClient(cfg config.GenerationConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	logger := log.With("component", "openai_client")
	logger.Info("OpenAI client initialized successfully", "model", cfg.Model, "base_url", clientCfg.BaseURL)
	return &openAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		log:    logger,
		cfg:    cfg,
	}, nil
}

func (c *openAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := withTimeout(ctx, c.cfg)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if c.cfg.SystemInstruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: c.cfg.SystemInstruction})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	c.log.DebugContext(ctx, "Sending prompt to OpenAI", "model", c.cfg.Model, "prompt_len", len(prompt))
	resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
