// Package config manages application configuration from environment variables,
// config files, and default values.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrConfiguration indicates an invalid or unloadable configuration.
var ErrConfiguration = errors.New("configuration error")

// Config defines the application configuration. Values can be set via environment
// variables prefixed with BOT_ (e.g., BOT_YOUTUBE_ACCESS_TOKEN) or through config.yaml.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Bot       BotConfig       `mapstructure:"bot"`
	YouTube   YouTubeConfig   `mapstructure:"youtube"`
	AI        AIConfig        `mapstructure:"ai"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// BotConfig holds the chat-facing behavior settings.
type BotConfig struct {
	PersonaName      string        `mapstructure:"persona_name"      validate:"required"`
	AchievementTiers []int64       `mapstructure:"achievement_tiers" validate:"required,min=1,dive,gt=0"`
	ReplyMaxLength   int           `mapstructure:"reply_max_length"  validate:"min=10"`
	TopChattersLimit int           `mapstructure:"top_chatters_limit" validate:"min=1,max=25"`
	MinPollInterval  time.Duration `mapstructure:"min_poll_interval" validate:"min=100ms,max=1m"`
}

// YouTubeConfig holds settings for the YouTube Data API adapter.
// The access token is obtained by an external OAuth flow; this process only consumes it.
type YouTubeConfig struct {
	BaseURL     string        `mapstructure:"base_url"     validate:"required,url"`
	AccessToken string        `mapstructure:"access_token" validate:"required"`
	Timeout     time.Duration `mapstructure:"timeout"      validate:"min=1s,max=2m"`
}

// AIConfig selects and configures the language-model backend.
// Provider "none" disables the backend; replies fall back to the canned response.
type AIConfig struct {
	Provider          string  `mapstructure:"provider"            validate:"required,oneof=none gemini"`
	APIKey            string  `mapstructure:"api_key"`
	Model             string  `mapstructure:"model"               validate:"required"`
	Temperature       float32 `mapstructure:"temperature"         validate:"min=0,max=2"`
	MaxOutputTokens   int32   `mapstructure:"max_output_tokens"   validate:"min=1,max=8192"`
	MaxRetries        int     `mapstructure:"max_retries"         validate:"min=0,max=10"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds" validate:"min=1,max=60"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// SchedulerConfig configures background tasks keyed by task name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a named scheduled task with a cron expression.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// Validate checks struct tags plus cross-field rules that tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	for i := 1; i < len(c.Bot.AchievementTiers); i++ {
		if c.Bot.AchievementTiers[i] <= c.Bot.AchievementTiers[i-1] {
			return fmt.Errorf("bot.achievement_tiers must be strictly ascending, got %v", c.Bot.AchievementTiers)
		}
	}

	if c.AI.Provider == "gemini" && c.AI.APIKey == "" {
		return errors.New("ai.api_key is required when ai.provider is gemini")
	}

	return nil
}
