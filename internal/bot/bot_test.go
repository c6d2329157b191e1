package bot_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/edgard/digestbot/internal/bot"
	"github.com/edgard/digestbot/internal/bot/tasks"
	"github.com/edgard/digestbot/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type blockingListener struct{}

func (blockingListener) Start(ctx context.Context) { <-ctx.Done() }

type returningListener struct{}

func (returningListener) Start(context.Context) {}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bot.NewBot(discardLogger(), blockingListener{}, nil).Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestRunReportsListenerExit(t *testing.T) {
	t.Parallel()

	if err := bot.NewBot(discardLogger(), returningListener{}, nil).Run(context.Background()); err == nil {
		t.Fatal("expected error when listener stops on its own")
	}
}

func TestSchedulerRunsEnabledTasks(t *testing.T) {
	t.Parallel()

	var ran, disabledRan atomic.Int32
	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		"tick":     {Enabled: true, Schedule: "* * * * * *"},
		"off":      {Enabled: false, Schedule: "* * * * * *"},
		"unlisted": {Enabled: true, Schedule: "* * * * * *"},
	}}
	taskMap := map[string]tasks.ScheduledTaskFunc{
		"tick": func(context.Context) error { ran.Add(1); return nil },
		"off":  func(context.Context) error { disabledRan.Add(1); return nil },
	}

	s, err := bot.NewScheduler(discardLogger(), cfg, taskMap)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(context.Background()); err == nil {
		t.Error("second Start() should fail")
	}

	deadline := time.Now().Add(5 * time.Second)
	for ran.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if ran.Load() == 0 {
		t.Error("enabled task never ran")
	}
	if disabledRan.Load() != 0 {
		t.Error("disabled task ran")
	}
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	t.Parallel()

	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		"broken": {Enabled: true, Schedule: "not a cron"},
	}}
	s, err := bot.NewScheduler(discardLogger(), cfg, map[string]tasks.ScheduledTaskFunc{
		"broken": func(context.Context) error { return nil },
	})
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected schedule error")
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop() on unstarted scheduler = %v", err)
	}
}
