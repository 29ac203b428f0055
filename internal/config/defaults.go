package config

import "time"

// Default values for configuration
const (
	// Log defaults
	DefaultLogLevel = "info"
	DefaultLogJSON  = true

	// Database defaults
	DefaultDBPath = "companion.db"

	// YouTube API defaults
	DefaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"
	DefaultYouTubeTimeout = 30 * time.Second

	// AI defaults
	DefaultAIProvider          = "none"
	DefaultAIModel             = "gemini-2.0-flash"
	DefaultAITemperature       = 0.6
	DefaultAIMaxOutputTokens   = 120
	DefaultAIMaxRetries        = 2
	DefaultAIRetryDelaySeconds = 5

	// Bot defaults
	DefaultBotPersonaName      = "Companion"
	DefaultBotReplyMaxLength   = 250             // YouTube live chat keeps short messages readable
	DefaultBotTopChattersLimit = 5               // Size of the !top leaderboard
	DefaultBotMinPollInterval  = 1 * time.Second // Floor for the API-recommended polling interval
)

// DefaultBotAchievementTiers are the message-count thresholds that trigger a
// celebration message. Operators can override the list entirely.
var DefaultBotAchievementTiers = []int64{1, 10, 50, 100}

// DefaultSchedulerTasks enables the nightly database maintenance run.
var DefaultSchedulerTasks = map[string]TaskConfig{
	"sql_maintenance": {Enabled: true, Schedule: "0 0 4 * * *"},
}
