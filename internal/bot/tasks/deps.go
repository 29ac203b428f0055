// Package tasks implements scheduled background tasks for the companion bot.
package tasks

import (
	"log/slog"

	"github.com/edgard/livecompanion/internal/config"
	"github.com/edgard/livecompanion/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
}
