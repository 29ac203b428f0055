// Package main contains the entrypoint for the live-chat companion bot.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edgard/livecompanion/internal/ai"
	"github.com/edgard/livecompanion/internal/bot"
	"github.com/edgard/livecompanion/internal/bot/tasks"
	"github.com/edgard/livecompanion/internal/config"
	"github.com/edgard/livecompanion/internal/database"
	"github.com/edgard/livecompanion/internal/logger"
	"github.com/edgard/livecompanion/internal/youtube"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop() // Ensure context cancellation is signaled before exit
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger, db,
// ai responder, youtube client, bot, scheduler), handles graceful shutdown,
// and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db) // Ensure DB is closed on function exit
	store := database.NewStore(db, log)

	responder, err := ai.New(ctx, cfg.AI, cfg.Bot.PersonaName, log)
	if err != nil {
		log.Error("Failed to initialize AI responder", "error", err)
		return 1
	}

	chat := youtube.NewClient(cfg.YouTube, nil, log)

	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Config: cfg,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, cfg, store, chat, responder, sched)

	log.Info("Starting bot...", "persona", cfg.Bot.PersonaName)
	runErr := app.Run(ctx) // Run blocks until context is cancelled or an error occurs
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		if errors.Is(runErr, youtube.ErrNoActiveBroadcast) {
			log.Error("No active live broadcast for the authenticated channel; start a stream and retry")
		} else {
			log.Error("Bot stopped due to error", "error", runErr)
		}
		// Allow logs to flush before exiting on error
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	return 0
}
