package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load loads and validates configuration from:
// 1. Default values
// 2. config.yaml file (optional)
// 3. BOT_* environment variables
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow missing config file; env vars and defaults still apply.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if len(cfg.Scheduler.Tasks) == 0 {
		cfg.Scheduler.Tasks = DefaultSchedulerTasks
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

// setDefaults sets default values for optional configuration parameters
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", DefaultLogJSON)

	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("youtube.base_url", DefaultYouTubeBaseURL)
	v.SetDefault("youtube.timeout", DefaultYouTubeTimeout)
	// Registering the key lets AutomaticEnv populate it without a config file.
	v.SetDefault("youtube.access_token", "")
	v.SetDefault("ai.api_key", "")

	v.SetDefault("ai.provider", DefaultAIProvider)
	v.SetDefault("ai.model", DefaultAIModel)
	v.SetDefault("ai.temperature", DefaultAITemperature)
	v.SetDefault("ai.max_output_tokens", DefaultAIMaxOutputTokens)
	v.SetDefault("ai.max_retries", DefaultAIMaxRetries)
	v.SetDefault("ai.retry_delay_seconds", DefaultAIRetryDelaySeconds)

	v.SetDefault("bot.persona_name", DefaultBotPersonaName)
	v.SetDefault("bot.achievement_tiers", DefaultBotAchievementTiers)
	v.SetDefault("bot.reply_max_length", DefaultBotReplyMaxLength)
	v.SetDefault("bot.top_chatters_limit", DefaultBotTopChattersLimit)
	v.SetDefault("bot.min_poll_interval", DefaultBotMinPollInterval)
}
