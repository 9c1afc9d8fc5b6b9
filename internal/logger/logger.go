package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/campaignforge/dmengine/internal/config"
)

// serviceName tags every production log line so engine output can be
// told apart from co-located services when streams are aggregated.
const serviceName = "dmengine"

// Setup configures the global slog logger from config. Production logs
// JSON with a service attribute; development logs text. Source
// locations are included once the level drops to debug.
func Setup(cfg *config.Config) *slog.Logger {
	logger := slog.New(newHandler(cfg, os.Stdout))
	if cfg.Environment == "production" {
		logger = logger.With("service", serviceName)
	}

	slog.SetDefault(logger)
	return logger
}

func newHandler(cfg *config.Config, w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     cfg.LogLevel,
		AddSource: cfg.LogLevel <= slog.LevelDebug,
	}

	if cfg.Environment == "production" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// WithSession scopes a logger to one game session.
func WithSession(logger *slog.Logger, sessionID uuid.UUID) *slog.Logger {
	return logger.With("session_id", sessionID.String())
}
