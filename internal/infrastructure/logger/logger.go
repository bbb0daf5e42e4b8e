package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options controls handler construction
type Options struct {
	Level  string
	Format string // "json" or "text"
	Writer io.Writer
}

// NewLogger creates a JSON logger on stdout at the given level
func NewLogger(level string) *slog.Logger {
	return New(Options{Level: level, Format: "json"})
}

// New creates a structured logger and installs it as the slog default
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var h slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		h = slog.NewTextHandler(w, handlerOpts)
	} else {
		h = slog.NewJSONHandler(w, handlerOpts)
	}

	l := slog.New(h).With(slog.String("service", "gymdesk"))
	slog.SetDefault(l)
	return l
}

// ParseLevel maps debug|info|warn|error to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
