// Package bot implements the core companion bot functionality: the live-chat
// polling loop, per-user engagement bookkeeping, command dispatch, achievement
// detection, and lifecycle management of the background scheduler.
package bot

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/edgard/livecompanion/internal/ai"
	"github.com/edgard/livecompanion/internal/config"
	"github.com/edgard/livecompanion/internal/database"
	"github.com/edgard/livecompanion/internal/youtube"
)

// Bot represents the main bot application and manages its components' lifecycle.
type Bot struct {
	logger    *slog.Logger
	cfg       *config.Config
	store     database.Store
	chat      youtube.ChatService
	responder ai.Responder
	tracker   *achievementTracker
	scheduler *Scheduler
}

// NewBot creates a new instance of the bot with all required dependencies.
func NewBot(
	logger *slog.Logger,
	cfg *config.Config,
	store database.Store,
	chat youtube.ChatService,
	responder ai.Responder,
	scheduler *Scheduler,
) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		cfg:       cfg,
		store:     store,
		chat:      chat,
		responder: responder,
		tracker:   newAchievementTracker(cfg.Bot.AchievementTiers),
		scheduler: scheduler,
	}
}

// Run starts the chat loop and the scheduler, handling graceful shutdown on
// context cancellation. It returns an error if any component fails during
// startup or execution.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting live chat loop...")
		err := b.runChatLoop(gCtx)
		b.logger.Info("Live chat loop stopped.")
		return err
	})

	g.Go(func() error {
		b.logger.Info("Starting scheduler...")
		if err := b.scheduler.Start(); err != nil {
			b.logger.Error("Failed to start scheduler", "error", err)
			return err
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}

		return nil
	})

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
