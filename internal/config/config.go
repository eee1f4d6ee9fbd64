package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// placeholder API keys that mean "not configured"
var placeholderKeys = map[string]bool{
	"":             true,
	"changeme":     true,
	"your-api-key": true,
}

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level
	DataDir     string

	// LLM provider settings. Loaded once; immutable for the process
	// lifetime of the gateway.
	APIKey         string
	BaseURL        string
	ModelName      string
	Temperature    float64
	MaxTokens      int
	RequestTimeout time.Duration

	// Conversation tunables.
	HistoryWindow       int // pairs sent to the model per request
	HistoryMaxPairs     int // pairs retained per session
	MaxIterations       int // tool-calling reprompt rounds per turn
	MaxToolsPerResponse int
	MaxDistance         float64
	SessionTimeout      time.Duration
	WatchdogInterval    time.Duration
	DispatchTimeout     time.Duration
	GatewayWorkers      int

	// Optional Redis backend for cooldowns (multi-instance deploys).
	// Empty means the in-memory store.
	RedisURL string
}

// Load reads configuration from the environment with defaults.
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		DataDir:     getEnv("DATA_DIR", "./data"),

		APIKey:         os.Getenv("LLM_API_KEY"),
		BaseURL:        getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		ModelName:      getEnv("LLM_MODEL", "gpt-4o-mini"),
		Temperature:    getEnvFloat("LLM_TEMPERATURE", 0.7),
		MaxTokens:      getEnvInt("LLM_MAX_TOKENS", 256),
		RequestTimeout: getEnvDuration("LLM_TIMEOUT_SECONDS", 30*time.Second),

		HistoryWindow:       getEnvInt("HISTORY_WINDOW", 10),
		HistoryMaxPairs:     getEnvInt("HISTORY_MAX_PAIRS", 20),
		MaxIterations:       getEnvInt("MAX_ITERATIONS", 3),
		MaxToolsPerResponse: getEnvInt("MAX_TOOLS_PER_RESPONSE", 3),
		MaxDistance:         getEnvFloat("MAX_DISTANCE", 10),
		SessionTimeout:      getEnvDuration("SESSION_TIMEOUT_SECONDS", 120*time.Second),
		WatchdogInterval:    getEnvDuration("WATCHDOG_INTERVAL_SECONDS", 2*time.Second),
		DispatchTimeout:     getEnvDuration("DISPATCH_TIMEOUT_SECONDS", 5*time.Second),
		GatewayWorkers:      getEnvInt("GATEWAY_WORKERS", 4),

		RedisURL: os.Getenv("REDIS_URL"),
	}
}

// ProviderConfigured reports whether a usable API key is present.
// A missing or placeholder key disables the feature at startup.
func (c *Config) ProviderConfigured() bool {
	return !placeholderKeys[strings.TrimSpace(c.APIKey)]
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return defaultValue
}
