// Package logging builds structured slog.Logger instances for the arena
// service, with optional rotating file output.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/gamebattle/arena/pkg/config"
)

// NewLogger creates a configured slog.Logger for the given component.
func NewLogger(component string, cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	writer := createWriter(cfg)

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	return slog.New(handler).With("component", component)
}

// contextKey avoids collisions with other packages' context values.
type contextKey string

const (
	KeyTeamID    contextKey = "team_id"
	KeySessionID contextKey = "session_id"
	KeyVoter     contextKey = "voter"
	KeyGameID    contextKey = "game_id"
)

// WithField stashes a logging field on the context so ContextLogger can pick
// it up at a handler boundary without threading the logger through every
// call.
func WithField(ctx context.Context, key contextKey, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

// ContextLogger enriches logger with any of the well-known fields present on
// ctx (session_id, team_id, voter, game_id).
func ContextLogger(ctx context.Context, logger *slog.Logger) *slog.Logger {
	for _, key := range []contextKey{KeySessionID, KeyTeamID, KeyVoter, KeyGameID} {
		if v := ctx.Value(key); v != nil {
			logger = logger.With(string(key), v)
		}
	}
	return logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func createWriter(cfg config.LoggingConfig) io.Writer {
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		return os.Stderr
	case "file":
		if cfg.File == nil {
			fmt.Fprintln(os.Stderr, "logging: file output requested with no file config, using stdout")
			return os.Stdout
		}
		writer, err := createFileWriter(cfg.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logging: %v, using stdout\n", err)
			return os.Stdout
		}
		return writer
	default:
		return os.Stdout
	}
}

func createFileWriter(cfg *config.FileConfig) (io.Writer, error) {
	if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Directory, cfg.Filename),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxFiles,
		MaxAge:     cfg.MaxAgeDay,
		Compress:   cfg.Compress,
	}, nil
}
