package app

import (
	"io"
	"log/slog"
)

// newLogger builds an isolated logger for one App. The global default is
// left alone so that tests can run several apps side by side.
func newLogger(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("app", "flowgrid")
}

// parseLevel maps a configured level name to a slog level. NewConfig has
// already rejected unknown names; anything else falls back to info.
func parseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}
