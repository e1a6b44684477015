package cmd

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var appLogger *slog.Logger

// InitLogger initializes the application logger from the -log-level flag, or
// the configured level when the flag is not set.
// Call this once, after parsing the command line.
func InitLogger() {
	level := *logLevel
	if level == "" {
		level = cfg.LogLevel
	}
	appLogger = newLogger(os.Stderr, level)
	slog.SetDefault(appLogger)
}

// newLogger returns a text logger writing to w at the named level.
func newLogger(w io.Writer, levelStr string) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
		slog.Warn("invalid log level, defaulting to warn", "configuredLevel", levelStr)
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// a command line tool does not need timestamps.
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// logger returns the application logger, or the default one before
// InitLogger.
func logger() *slog.Logger {
	if appLogger == nil {
		return slog.Default()
	}
	return appLogger
}
