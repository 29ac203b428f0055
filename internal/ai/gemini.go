package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/edgard/livecompanion/internal/config"
)

// promptTemplate frames the user's message with the bot persona. Parameters:
// persona name, user display name, user text.
const promptTemplate = "You are %s, a witty but kind livestream co-host. Keep answers concise. User %s says: %s"

type geminiResponder struct {
	genaiClient   *genai.Client
	log           *slog.Logger
	contentConfig *genai.GenerateContentConfig
	modelName     string
	persona       string
	maxRetries    int
	retryDelay    time.Duration
}

// newGeminiResponder creates a Responder backed by the Gemini API.
func newGeminiResponder(ctx context.Context, cfg config.AIConfig, persona string, log *slog.Logger) (Responder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	temperature := cfg.Temperature
	maxTokens := cfg.MaxOutputTokens
	baseCfg := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: maxTokens,
	}

	logger := log.With("component", "gemini_responder")
	logger.Info("Gemini responder initialized successfully", "model", cfg.Model)
	return &geminiResponder{
		genaiClient:   gi,
		log:           logger,
		contentConfig: baseCfg,
		modelName:     cfg.Model,
		persona:       persona,
		maxRetries:    cfg.MaxRetries,
		retryDelay:    time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}, nil
}

// Reply builds the role-framed prompt and requests a completion. Errors are
// returned to the caller, which falls back to FallbackReply.
func (r *geminiResponder) Reply(ctx context.Context, userText, displayName string) (string, error) {
	prompt := fmt.Sprintf(promptTemplate, r.persona, displayName, userText)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := r.generateContentWithRetries(ctx, contents)
	if err != nil {
		r.log.ErrorContext(ctx, "Gemini reply generation failed", "error", err)
		return "", err
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		r.log.WarnContext(ctx, "Gemini returned empty completion")
		return "", fmt.Errorf("gemini returned empty completion")
	}

	return text, nil
}

func (r *geminiResponder) generateContentWithRetries(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= r.maxRetries; i++ {
		resp, err = r.genaiClient.Models.GenerateContent(ctx, r.modelName, contents, r.contentConfig)
		if err == nil {
			return resp, nil
		}

		r.log.WarnContext(ctx, "Gemini API call failed, checking for retry",
			"attempt", i+1, "max_retries", r.maxRetries, "error", err)

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503) {
			if i < r.maxRetries {
				r.log.InfoContext(ctx, "Retrying Gemini API call due to retriable APIError",
					"delay", r.retryDelay, "code", apiErr.Code)
				select {
				case <-time.After(r.retryDelay):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				continue
			}
			return nil, fmt.Errorf("gemini API call failed after %d retries (APIError code %d): %w",
				r.maxRetries, apiErr.Code, err)
		}

		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	return nil, err
}
