package handlers

import (
	"log/slog"
	"sync"

	"github.com/edgard/digestbot/internal/command"
	"github.com/edgard/digestbot/internal/config"
	"github.com/edgard/digestbot/internal/database"
	"github.com/edgard/digestbot/internal/digest"
	"github.com/edgard/digestbot/internal/history"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	History  *history.Store
	Router   *command.Router
	Pipeline *digest.Pipeline
	// Store records digest outcomes; nil disables the audit log.
	Store database.Store
	// Inflight tracks digests still generating so shutdown can wait for
	// them. Optional.
	Inflight *sync.WaitGroup
}

func (d HandlerDeps) goTracked(f func()) {
	if d.Inflight == nil {
		go f()
		return
	}
	d.Inflight.Add(1)
	go func() {
		defer d.Inflight.Done()
		f()
	}()
}
