package logger

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// L is the global logger. InitLogger must run before anything logs through it.
var L *slog.Logger

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// InitLogger sets up the global JSON logger at the configured level. Call it
// once at startup, right after loading config.
func InitLogger(logLevelStr string) {
	level, ok := levels[strings.ToLower(logLevelStr)]
	if !ok {
		level = slog.LevelInfo
		slog.Warn("Invalid LOG_LEVEL specified, defaulting to INFO", "configuredLevel", logLevelStr)
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Timestamps as RFC3339 so log shippers parse them unambiguously.
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format(time.RFC3339))
				}
			}
			return a
		},
	}

	L = slog.New(slog.NewJSONHandler(os.Stdout, opts))
	slog.SetDefault(L)
	L.Info("Logger initialized", "level", level.String())
}
