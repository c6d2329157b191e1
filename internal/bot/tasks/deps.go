// Package tasks implements the bot's scheduled maintenance and reporting tasks.
package tasks

import (
	"log/slog"
	"time"

	"github.com/edgard/digestbot/internal/config"
	"github.com/edgard/digestbot/internal/database"
	"github.com/edgard/digestbot/internal/history"
)

// TaskDeps contains the dependencies shared by scheduled tasks.
type TaskDeps struct {
	Logger  *slog.Logger
	Store   database.Store
	History *history.Store
	Config  *config.Config
	// Now returns the current time; nil means time.Now.
	Now func() time.Time
}

func (d TaskDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
