// Package config loads, defaults and validates the bot configuration. Values
// come from an optional YAML file, then environment variables, on top of the
// defaults in defaults.go.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// Supported generation providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// EnvPrefix prefixes every environment override, e.g. DIGESTBOT_LOGGER_LEVEL.
const EnvPrefix = "DIGESTBOT"

// Config is the complete application configuration.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Generation GenerationConfig `mapstructure:"generation"`
	History    HistoryConfig    `mapstructure:"history"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Messages   MessagesConfig   `mapstructure:"messages"`
}

// LoggerConfig controls slog output.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot credentials. BotInfo is filled at runtime from
// getMe and is never read from configuration.
type TelegramConfig struct {
	Token   string       `mapstructure:"token" validate:"required"`
	BotInfo *models.User `mapstructure:"-"     validate:"-"`
}

// GenerationConfig selects and tunes the text-generation service.
type GenerationConfig struct {
	Provider          string        `mapstructure:"provider"           validate:"oneof=gemini openai"`
	APIKey            string        `mapstructure:"api_key"            validate:"required"`
	BaseURL           string        `mapstructure:"base_url"           validate:"omitempty,url"`
	Model             string        `mapstructure:"model"              validate:"required"`
	Temperature       float32       `mapstructure:"temperature"        validate:"min=0,max=2"`
	SystemInstruction string        `mapstructure:"system_instruction"`
	Timeout           time.Duration `mapstructure:"timeout"            validate:"min=0"`
}

// HistoryConfig bounds the in-memory history and the default digest window.
type HistoryConfig struct {
	Capacity      int `mapstructure:"capacity"       validate:"min=1,max=10000"`
	DefaultWindow int `mapstructure:"default_window" validate:"min=1"`
}

// DatabaseConfig configures the digest audit log.
type DatabaseConfig struct {
	Path          string `mapstructure:"path"           validate:"required"`
	RetentionDays int    `mapstructure:"retention_days" validate:"min=1"`
}

// SchedulerConfig maps task names to their schedule.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig enables a task on a cron schedule (seconds field optional).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MessagesConfig holds every user-facing string.
type MessagesConfig struct {
	Welcome string `mapstructure:"welcome" validate:"required"`

	SummaryProgress string `mapstructure:"summary_progress" validate:"required"`
	SummaryEmpty    string `mapstructure:"summary_empty"    validate:"required"`
	SummaryNoText   string `mapstructure:"summary_no_text"  validate:"required"`
	SummaryError    string `mapstructure:"summary_error"    validate:"required"`

	FavouriteProgress string `mapstructure:"favourite_progress" validate:"required"`
	FavouriteEmpty    string `mapstructure:"favourite_empty"    validate:"required"`
	FavouriteNoText   string `mapstructure:"favourite_no_text"  validate:"required"`
	FavouriteError    string `mapstructure:"favourite_error"    validate:"required"`
}

// LoadConfig reads the YAML file at path (a missing file is not an error),
// applies environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Variable names used by earlier deployments of the bot.
	if err := v.BindEnv("telegram.token", EnvPrefix+"_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind telegram token env: %w", err)
	}
	if err := v.BindEnv("generation.api_key", EnvPrefix+"_GENERATION_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind generation api key env: %w", err)
	}

	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
			// Defaults and environment only.
		default:
			return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	applyLegacyAPIKey(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LegacyAPIKeyEnv returns the provider-specific variable earlier deployments
// used for the generation API key.
func LegacyAPIKeyEnv(provider string) string {
	switch provider {
	case ProviderGemini:
		return "GEMINI_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	}
	return ""
}

// applyLegacyAPIKey overrides the configured key with the selected provider's
// legacy variable unless the prefixed variable is set.
func applyLegacyAPIKey(cfg *Config) {
	if os.Getenv(EnvPrefix+"_GENERATION_API_KEY") != "" {
		return
	}
	name := LegacyAPIKeyEnv(cfg.Generation.Provider)
	if name == "" {
		return
	}
	if key := os.Getenv(name); key != "" {
		cfg.Generation.APIKey = key
	}
}

// Validate checks every field constraint.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
