package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrUserNotFound is returned when an operation targets a channel ID with no
// user record. Seeing it from IncrementMessageCount means the caller skipped
// the mandatory UpsertUser call.
var ErrUserNotFound = errors.New("user not found")

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// UpsertUser creates the user record if absent (message_count 0,
	// first_seen now), otherwise refreshes display_name and last_seen.
	UpsertUser(ctx context.Context, channelID, displayName string) error

	// IncrementMessageCount atomically bumps message_count for an existing
	// user and returns the new value. Returns ErrUserNotFound if UpsertUser
	// was never called for this channel ID.
	IncrementMessageCount(ctx context.Context, channelID string) (int64, error)

	// GetUser retrieves a user by channel ID. Returns nil, nil if not found.
	GetUser(ctx context.Context, channelID string) (*User, error)

	// TopChatters returns up to limit users ordered by message_count
	// descending, ties broken by channel_id ascending.
	TopChatters(ctx context.Context, limit int) ([]User, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertUser creates or refreshes a user record.
func (s *sqlxStore) UpsertUser(ctx context.Context, channelID, displayName string) error {
	if channelID == "" {
		return fmt.Errorf("channel_id cannot be empty")
	}
	if displayName == "" {
		return fmt.Errorf("display_name cannot be empty")
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	now := time.Now().UTC()
	query := `
        INSERT INTO users (channel_id, display_name, message_count, first_seen, last_seen)
        VALUES (?, ?, 0, ?, ?)
        ON CONFLICT (channel_id) DO UPDATE
        SET display_name = excluded.display_name,
            last_seen    = excluded.last_seen;
    `

	_, err := s.db.ExecContext(ctx, query, channelID, displayName, now, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error upserting user", "channel_id", channelID, "error", err)
		return fmt.Errorf("failed to upsert user %s: %w", channelID, err)
	}

	s.logger.DebugContext(ctx, "User upserted successfully", "channel_id", channelID, "display_name", displayName)
	return nil
}

// IncrementMessageCount bumps and returns the user's message count inside a
// transaction so the new value is durable before the caller sees it.
func (s *sqlxStore) IncrementMessageCount(ctx context.Context, channelID string) (int64, error) {
	if channelID == "" {
		return 0, fmt.Errorf("channel_id cannot be empty")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for increment",
			"channel_id", channelID, "error", err)
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	result, err := tx.ExecContext(ctx,
		`UPDATE users SET message_count = message_count + 1, last_seen = ? WHERE channel_id = ?`,
		time.Now().UTC(), channelID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error incrementing message count", "channel_id", channelID, "error", err)
		return 0, fmt.Errorf("failed to increment message count for %s: %w", channelID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not get affected row count for increment",
			"channel_id", channelID, "error", err)
	} else if affected == 0 {
		return 0, fmt.Errorf("increment for %s: %w", channelID, ErrUserNotFound)
	}

	var newCount int64
	if err := tx.GetContext(ctx, &newCount,
		`SELECT message_count FROM users WHERE channel_id = ?`, channelID); err != nil {
		// Reached with a missing row only when RowsAffected was unavailable
		// above; keep the sentinel contract intact either way.
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("increment for %s: %w", channelID, ErrUserNotFound)
		}
		s.logger.ErrorContext(ctx, "Error reading message count after increment",
			"channel_id", channelID, "error", err)
		return 0, fmt.Errorf("failed to read message count for %s: %w", channelID, err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit increment transaction",
			"channel_id", channelID, "error", err)
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	// Successfully committed, set tx to nil to avoid rollback
	tx = nil

	s.logger.DebugContext(ctx, "Message count incremented", "channel_id", channelID, "new_count", newCount)
	return newCount, nil
}

// GetUser retrieves a user by channel ID. Returns nil, nil if not found.
func (s *sqlxStore) GetUser(ctx context.Context, channelID string) (*User, error) {
	if channelID == "" {
		return nil, fmt.Errorf("channel_id cannot be empty")
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var user User
	query := `SELECT channel_id, display_name, message_count, first_seen, last_seen
	          FROM users WHERE channel_id = ?`

	err := s.db.GetContext(ctx, &user, query, channelID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Not found is expected for first-time chatters, not an error
		s.logger.DebugContext(ctx, "No user record found", "channel_id", channelID)
		return nil, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching user",
			"channel_id", channelID, "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user", "channel_id", channelID, "error", err)
		return nil, fmt.Errorf("failed to get user %s: %w", channelID, err)
	}

	return &user, nil
}

// TopChatters returns the leaderboard ordered by message count descending.
// The channel_id tie-break keeps the ordering deterministic.
func (s *sqlxStore) TopChatters(ctx context.Context, limit int) ([]User, error) {
	if limit <= 0 {
		limit = 5
		s.logger.DebugContext(ctx, "Invalid limit provided, using default", "default_limit", limit)
	} else if limit > 100 {
		limit = 100
		s.logger.DebugContext(ctx, "Limit exceeded maximum value, capping", "capped_limit", limit)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var users []User
	query := `
        SELECT channel_id, display_name, message_count, first_seen, last_seen
        FROM users
        ORDER BY message_count DESC, channel_id ASC
        LIMIT ?;
    `

	err := s.db.SelectContext(ctx, &users, query, limit)

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching top chatters", "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting top chatters", "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to get top chatters: %w", err)
	}

	s.logger.DebugContext(ctx, "Fetched top chatters successfully", "count", len(users))
	return users, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}
