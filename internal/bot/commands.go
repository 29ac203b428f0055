package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/edgard/livecompanion/internal/database"
	"github.com/edgard/livecompanion/internal/youtube"
)

const commandPrefix = "!"

// command is the transient parse result of one chat message. It only exists
// while that message is being processed.
type command struct {
	name string
	args []string
}

// parseCommand returns nil unless text is non-empty and starts with the
// command prefix. The command name is lower-cased; arguments keep their case.
func parseCommand(text string) *command {
	if text == "" || !strings.HasPrefix(text, commandPrefix) {
		return nil
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return nil
	}

	return &command{
		name: strings.ToLower(parts[0]),
		args: parts[1:],
	}
}

// replyFunc posts a reply back into the live chat.
type replyFunc func(ctx context.Context, text string) error

// commandRouter dispatches parsed commands against the user store and the
// outbound reply sink.
type commandRouter struct {
	store     database.Store
	logger    *slog.Logger
	topLimit  int
	startedAt time.Time // zero when the broadcast start time is unknown
}

func newCommandRouter(store database.Store, logger *slog.Logger, topLimit int, startedAt time.Time) *commandRouter {
	return &commandRouter{
		store:     store,
		logger:    logger.With("component", "command_router"),
		topLimit:  topLimit,
		startedAt: startedAt,
	}
}

// dispatch routes a command to its handler. Unknown commands resolve to the
// default branch; dispatch never panics on user input.
func (r *commandRouter) dispatch(ctx context.Context, cmd *command, msg youtube.Message, reply replyFunc) error {
	r.logger.DebugContext(ctx, "Dispatching command",
		"command", cmd.name, "args", len(cmd.args), "channel_id", msg.ChannelID)

	switch cmd.name {
	case "!help", "!commands":
		return reply(ctx, "Commands: !help, !stats, !uptime, !top. Ask AI with '?your question'.")

	case "!stats":
		return r.handleStats(ctx, msg, reply)

	case "!top":
		return r.handleTop(ctx, reply)

	case "!uptime":
		if r.startedAt.IsZero() {
			return reply(ctx, "I've been here since the stream started.")
		}
		elapsed := time.Since(r.startedAt).Truncate(time.Second)
		return reply(ctx, fmt.Sprintf("Stream has been live for %s.", elapsed))

	case "!settitle":
		if !msg.IsModerator && !msg.IsOwner {
			return reply(ctx, "Only mods or the owner can do that.")
		}
		// Title mutation belongs to an external collaborator; acknowledge only.
		return reply(ctx, "Title updates aren't wired up yet.")

	default:
		return reply(ctx, "Unknown command. Try !help")
	}
}

func (r *commandRouter) handleStats(ctx context.Context, msg youtube.Message, reply replyFunc) error {
	user, err := r.store.GetUser(ctx, msg.ChannelID)
	if err != nil {
		return fmt.Errorf("failed to look up stats for %s: %w", msg.ChannelID, err)
	}

	if user == nil {
		return reply(ctx, fmt.Sprintf("%s: I'm just meeting you!", msg.DisplayName))
	}

	return reply(ctx, fmt.Sprintf("%s: %d messages. First seen %s.",
		msg.DisplayName, user.MessageCount, user.FirstSeen.Format("2006-01-02")))
}

func (r *commandRouter) handleTop(ctx context.Context, reply replyFunc) error {
	users, err := r.store.TopChatters(ctx, r.topLimit)
	if err != nil {
		return fmt.Errorf("failed to load top chatters: %w", err)
	}

	if len(users) == 0 {
		return reply(ctx, "Top chatters: nobody yet!")
	}

	board := make([]string, 0, len(users))
	for i, u := range users {
		board = append(board, fmt.Sprintf("%d. %s(%d)", i+1, u.DisplayName, u.MessageCount))
	}
	return reply(ctx, "Top chatters: "+strings.Join(board, " • "))
}
