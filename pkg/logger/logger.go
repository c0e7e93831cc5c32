package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	EMPTY     = ""
	DEBUG     = "debug"
	INFO      = "info"
	WARN      = "warn"
	ERROR     = "error"
	JSON      = "json"
	TEXT      = "text"
	SERVICE   = "service"
	COMPONENT = "component"
)

type Logger struct {
	*slog.Logger
}

type Config struct {
	Level     string
	Format    string
	Output    io.Writer
	AddSource bool
	Service   string
}

// ParseLevel maps a LOG_LEVEL value onto slog, falling back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case DEBUG:
		return slog.LevelDebug
	case WARN, "warning":
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, TEXT) {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}

	if cfg.Service != EMPTY {
		handler = handler.WithAttrs([]slog.Attr{slog.String(SERVICE, cfg.Service)})
	}

	return &Logger{Logger: slog.New(handler)}
}

// Discard drops every record.
func Discard() *Logger {
	return New(Config{Output: io.Discard})
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Component tags every record with the subsystem that wrote it.
func (l *Logger) Component(name string) *Logger {
	return l.With(COMPONENT, name)
}

// Fatal logs and exits with status 1. Only for startup failures.
func (l *Logger) Fatal(msg string, args ...any) {
	l.Error(msg, args...)
	os.Exit(1)
}
