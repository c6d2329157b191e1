package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for optional configuration.
const (
	DefaultLogLevel = "info"

	DefaultProvider    = ProviderGemini
	DefaultModel       = "gemini-1.5-flash"
	DefaultTemperature = 1.0
	DefaultGenTimeout  = 2 * time.Minute

	DefaultHistoryCapacity = 100
	DefaultDigestWindow    = 100

	DefaultDBPath        = "digests.db"
	DefaultRetentionDays = 30
)

// Default task names and schedules.
const (
	TaskSQLMaintenance = "sql_maintenance"
	TaskHistoryReport  = "history_report"
)

// DefaultMessages are the texts the bot replies with unless configured.
var DefaultMessages = MessagesConfig{
	Welcome: "Hello! I can summarize your chat messages. Use /summarise to get a summary of recent messages.",

	SummaryProgress: "Summarizing recent messages...",
	SummaryEmpty:    "No messages to summarize. Send some messages first!",
	SummaryNoText:   "No text messages found to summarize.",
	SummaryError:    "Sorry, I encountered an error while summarizing the messages. Please try again later.",

	FavouriteProgress: "Finding my favourite message...",
	FavouriteEmpty:    "No messages to choose from. Send some messages first!",
	FavouriteNoText:   "No text messages found to choose from.",
	FavouriteError:    "Sorry, I encountered an error while finding my favourite message. Please try again later.",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", false)

	v.SetDefault("generation.provider", DefaultProvider)
	v.SetDefault("generation.base_url", "")
	v.SetDefault("generation.model", DefaultModel)
	v.SetDefault("generation.temperature", DefaultTemperature)
	v.SetDefault("generation.system_instruction", "")
	v.SetDefault("generation.timeout", DefaultGenTimeout)

	v.SetDefault("history.capacity", DefaultHistoryCapacity)
	v.SetDefault("history.default_window", DefaultDigestWindow)

	v.SetDefault("database.path", DefaultDBPath)
	v.SetDefault("database.retention_days", DefaultRetentionDays)

	v.SetDefault("scheduler.tasks", map[string]any{
		TaskSQLMaintenance: map[string]any{"enabled": true, "schedule": "0 0 4 * * *"},
		TaskHistoryReport:  map[string]any{"enabled": true, "schedule": "0 */15 * * * *"},
	})

	v.SetDefault("messages.welcome", DefaultMessages.Welcome)
	v.SetDefault("messages.summary_progress", DefaultMessages.SummaryProgress)
	v.SetDefault("messages.summary_empty", DefaultMessages.SummaryEmpty)
	v.SetDefault("messages.summary_no_text", DefaultMessages.SummaryNoText)
	v.SetDefault("messages.summary_error", DefaultMessages.SummaryError)
	v.SetDefault("messages.favourite_progress", DefaultMessages.FavouriteProgress)
	v.SetDefault("messages.favourite_empty", DefaultMessages.FavouriteEmpty)
	v.SetDefault("messages.favourite_no_text", DefaultMessages.FavouriteNoText)
	v.SetDefault("messages.favourite_error", DefaultMessages.FavouriteError)
}
