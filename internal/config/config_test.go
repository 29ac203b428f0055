package config

import (
	"errors"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "info", JSON: true},
		Bot: BotConfig{
			PersonaName:      "Companion",
			AchievementTiers: []int64{1, 10, 50, 100},
			ReplyMaxLength:   250,
			TopChattersLimit: 5,
			MinPollInterval:  time.Second,
		},
		YouTube: YouTubeConfig{
			BaseURL:     "https://www.googleapis.com/youtube/v3",
			AccessToken: "token",
			Timeout:     30 * time.Second,
		},
		AI: AIConfig{
			Provider:          "none",
			Model:             "gemini-2.0-flash",
			Temperature:       0.6,
			MaxOutputTokens:   120,
			MaxRetries:        2,
			RetryDelaySeconds: 5,
		},
		Database: DatabaseConfig{Path: "test.db"},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	t.Parallel()

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsUnsortedTiers(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Bot.AchievementTiers = []int64{10, 1, 50}
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate should reject non-ascending tiers")
	}

	cfg.Bot.AchievementTiers = []int64{10, 10}
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate should reject duplicate tiers")
	}
}

func TestValidateRequiresGeminiKey(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.AI.Provider = "gemini"
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate should require an API key for the gemini provider")
	}

	cfg.AI.APIKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate with key: %v", err)
	}
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.AI.Provider = "llama"
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate should reject unknown providers")
	}
}

func TestLoadRequiresAccessToken(t *testing.T) {
	// Load reads the process environment, so no t.Parallel here.
	_, err := Load()
	if err == nil {
		t.Fatal("Load without a YouTube access token should fail validation")
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("error = %v, want ErrConfiguration", err)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("BOT_YOUTUBE_ACCESS_TOKEN", "env-token")
	t.Setenv("BOT_BOT_PERSONA_NAME", "Sidekick")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.YouTube.AccessToken != "env-token" {
		t.Errorf("access token = %q, want env value", cfg.YouTube.AccessToken)
	}
	if cfg.Bot.PersonaName != "Sidekick" {
		t.Errorf("persona = %q, want env override", cfg.Bot.PersonaName)
	}
	if cfg.AI.Provider != DefaultAIProvider {
		t.Errorf("ai provider = %q, want default %q", cfg.AI.Provider, DefaultAIProvider)
	}
	if len(cfg.Scheduler.Tasks) == 0 {
		t.Error("scheduler tasks should fall back to defaults")
	}
}
