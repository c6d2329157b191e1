// Package main is the entrypoint for the chat digest bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/joho/godotenv"

	"github.com/edgard/digestbot/internal/bot"
	"github.com/edgard/digestbot/internal/bot/handlers"
	"github.com/edgard/digestbot/internal/bot/tasks"
	"github.com/edgard/digestbot/internal/command"
	"github.com/edgard/digestbot/internal/config"
	"github.com/edgard/digestbot/internal/database"
	"github.com/edgard/digestbot/internal/digest"
	"github.com/edgard/digestbot/internal/generation"
	"github.com/edgard/digestbot/internal/history"
	"github.com/edgard/digestbot/internal/logger"
	"github.com/edgard/digestbot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires every component, blocks until shutdown and returns the exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to open digest log database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)
	if err := store.Ping(ctx); err != nil {
		log.Error("Digest log database is not reachable", "path", cfg.Database.Path, "error", err)
		return 1
	}

	genClient, err := generation.NewClient(ctx, cfg.Generation, log)
	if err != nil {
		log.Error("Failed to initialize generation client", "provider", cfg.Generation.Provider, "error", err)
		return 1
	}

	chatHistory := history.NewStore(cfg.History.Capacity)
	pipeline := digest.NewPipeline(genClient, log, cfg.History.DefaultWindow)

	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log,
		tgbot.WithMiddlewares(logger.Middleware(log), handlers.Ingest(chatHistory, log)),
		tgbot.WithDefaultHandler(handlers.NewContentHandler(log)),
	)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	router := command.NewRouter(cfg.Telegram.BotInfo.Username)
	var inflight sync.WaitGroup
	hDeps := handlers.HandlerDeps{
		Logger:   log,
		Config:   cfg,
		History:  chatHistory,
		Router:   router,
		Pipeline: pipeline,
		Store:    store,
		Inflight: &inflight,
	}
	if err := telegram.RegisterHandlers(tg, log, router, handlers.RegisterAllCommands(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	tDeps := tasks.TaskDeps{
		Logger:  log,
		Store:   store,
		History: chatHistory,
		Config:  cfg,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	log.Info("Starting bot...")
	runErr := bot.NewBot(log, tg, sched).Run(ctx)
	log.Info("Waiting for in-flight digests")
	inflight.Wait()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully")
	return 0
}
