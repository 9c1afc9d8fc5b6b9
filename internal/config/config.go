package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL string
	DataDir  string

	LLMProvider     string
	AnthropicAPIKey string
	ModelName       string

	// CompactionThresholdTokens is the estimated token count at which
	// the conversation log is compacted. Zero disables compaction.
	CompactionThresholdTokens int
	// CompactionTargetRatio is the compression the compactor asks for,
	// in [0, 1].
	CompactionTargetRatio float64
}

func Load() (*Config, error) {
	threshold, err := getEnvInt("COMPACTION_THRESHOLD_TOKENS", 6000)
	if err != nil {
		return nil, err
	}
	ratio, err := getEnvFloat("COMPACTION_TARGET_RATIO", 0.5)
	if err != nil {
		return nil, err
	}
	if ratio < 0 || ratio > 1 {
		return nil, fmt.Errorf("COMPACTION_TARGET_RATIO must be in [0, 1], got %v", ratio)
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		RedisURL: getEnv("REDIS_URL", "localhost:6379"),
		DataDir:  getEnv("DATA_DIR", "./data"),

		LLMProvider:     getEnv("LLM_PROVIDER", "anthropic"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		ModelName:       getEnv("MODEL_NAME", "claude-sonnet-4-20250514"),

		CompactionThresholdTokens: threshold,
		CompactionTargetRatio:     ratio,
	}, nil
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

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return parsed, nil
}
