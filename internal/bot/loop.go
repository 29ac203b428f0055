package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edgard/livecompanion/internal/ai"
	"github.com/edgard/livecompanion/internal/database"
	"github.com/edgard/livecompanion/internal/youtube"
)

// runChatLoop resolves the active live chat session, then polls it until the
// context is cancelled. Per-message and per-cycle errors are logged and
// isolated; only session resolution failure or cancellation ends the loop.
func (b *Bot) runChatLoop(ctx context.Context) error {
	session, err := b.chat.ResolveActiveSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve active session: %w", err)
	}

	b.logger.Info("Connected to live chat",
		"live_chat_id", session.LiveChatID,
		"started_at", session.StartedAt,
		"persona", b.cfg.Bot.PersonaName)

	router := newCommandRouter(b.store, b.logger, b.cfg.Bot.TopChattersLimit, session.StartedAt)

	var pageToken string
	for {
		page, err := b.chat.FetchPage(ctx, session.LiveChatID, pageToken)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.Warn("Failed to fetch chat page, deferring to next cycle", "error", err)
			if err := b.sleep(ctx, b.cfg.Bot.MinPollInterval); err != nil {
				return err
			}
			continue
		}

		// An empty next token means the API restarts us at the live edge.
		pageToken = page.NextPageToken

		for _, msg := range page.Messages {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.processMessage(ctx, session, router, msg)
		}

		wait := page.PollingInterval
		if wait < b.cfg.Bot.MinPollInterval {
			wait = b.cfg.Bot.MinPollInterval
		}
		if err := b.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// processMessage runs the full pipeline for one chat message: stats
// bookkeeping, achievement check, then command dispatch or conversational
// trigger (mutually exclusive). Errors are logged, never propagated, so one
// bad message cannot take down the rest of the page.
func (b *Bot) processMessage(ctx context.Context, session *youtube.Session, router *commandRouter, msg youtube.Message) {
	log := b.logger.With("message_id", msg.ID, "channel_id", msg.ChannelID)

	if msg.ChannelID == "" || msg.DisplayName == "" {
		log.DebugContext(ctx, "Skipping message without author")
		return
	}

	if err := b.store.UpsertUser(ctx, msg.ChannelID, msg.DisplayName); err != nil {
		log.ErrorContext(ctx, "Failed to upsert user, skipping message", "error", err)
		return
	}

	newCount, err := b.store.IncrementMessageCount(ctx, msg.ChannelID)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			// Upsert above must guarantee the row exists; this is a bug, not a user condition.
			log.ErrorContext(ctx, "Invariant violation: increment without prior upsert", "error", err)
		} else {
			log.ErrorContext(ctx, "Failed to increment message count, skipping message", "error", err)
		}
		return
	}

	if phrase, ok := b.tracker.check(newCount); ok {
		celebration := fmt.Sprintf("%s just hit %s!", msg.DisplayName, phrase)
		if err := b.chat.PostMessage(ctx, session.LiveChatID, celebration); err != nil {
			log.WarnContext(ctx, "Failed to post achievement message", "error", err)
		} else {
			log.InfoContext(ctx, "Achievement reached", "count", newCount)
		}
	}

	// Non-text events (deleted messages, member milestones) still count toward
	// engagement but carry nothing to parse.
	if msg.Text == "" {
		return
	}

	if cmd := parseCommand(msg.Text); cmd != nil {
		reply := func(ctx context.Context, text string) error {
			return b.chat.PostMessage(ctx, session.LiveChatID, text)
		}
		if err := router.dispatch(ctx, cmd, msg, reply); err != nil {
			log.WarnContext(ctx, "Command dispatch failed", "command", cmd.name, "error", err)
		}
		return
	}

	prompt, ok := extractTriggerPrompt(msg.Text, b.cfg.Bot.PersonaName)
	if !ok {
		return
	}

	reply, err := b.responder.Reply(ctx, prompt, msg.DisplayName)
	if err != nil || strings.TrimSpace(reply) == "" {
		log.WarnContext(ctx, "Responder backend degraded, using fallback reply", "error", err)
		reply = ai.FallbackReply(msg.DisplayName)
	}

	reply = truncateReply(strings.TrimSpace(reply), b.cfg.Bot.ReplyMaxLength)
	if err := b.chat.PostMessage(ctx, session.LiveChatID, reply); err != nil {
		log.WarnContext(ctx, "Failed to post conversational reply", "error", err)
	}
}

// sleep waits for d or until the context is cancelled, whichever comes first.
// This is the loop's only intentional yield point.
func (b *Bot) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// extractTriggerPrompt reports whether a non-command message asks for a
// conversational reply: trimmed text starting with '?' or the persona name
// appearing anywhere, case-insensitively. The returned prompt has leading
// question marks stripped; an empty prompt does not trigger.
func extractTriggerPrompt(text, persona string) (string, bool) {
	trimmed := strings.TrimSpace(text)

	triggered := strings.HasPrefix(trimmed, "?") ||
		(persona != "" && strings.Contains(strings.ToLower(text), strings.ToLower(persona)))
	if !triggered {
		return "", false
	}

	prompt := strings.TrimSpace(strings.TrimLeft(trimmed, "?"))
	if prompt == "" {
		return "", false
	}
	return prompt, true
}

// truncateReply caps outbound replies at maxLen runes, replacing the tail
// with an ellipsis marker when something was cut.
func truncateReply(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
