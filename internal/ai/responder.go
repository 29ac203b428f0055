// Package ai produces conversational replies for trigger messages. The
// language-model backend is a capability selected once at startup: either the
// Gemini-backed responder or a static one that always answers with the canned
// fallback. Callers treat any error as a cue to fall back, so a broken or
// unconfigured backend never surfaces to chat.
package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edgard/livecompanion/internal/config"
)

// Responder generates a best-effort conversational reply to a user message.
type Responder interface {
	Reply(ctx context.Context, userText, displayName string) (string, error)
}

// FallbackReply is the deterministic reply used when no backend is configured
// or the backend fails. It never fails.
func FallbackReply(displayName string) string {
	return displayName + ", interesting!"
}

// New selects the responder variant based on configuration: "gemini" wraps the
// Gemini API, "none" always returns the canned fallback.
func New(ctx context.Context, cfg config.AIConfig, persona string, logger *slog.Logger) (Responder, error) {
	switch cfg.Provider {
	case "gemini":
		return newGeminiResponder(ctx, cfg, persona, logger)
	case "none":
		logger.Info("No language-model backend configured, using static replies")
		return staticResponder{}, nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}

// staticResponder is the null backend: every reply is the canned fallback.
type staticResponder struct{}

func (staticResponder) Reply(_ context.Context, _, displayName string) (string, error) {
	return FallbackReply(displayName), nil
}
