package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/m-mizutani/masq"
)

type contextKey struct{}

var loggerKey = contextKey{}

// Options controls how Initialize builds the default logger.
type Options struct {
	Level  string
	JSON   bool
	Output io.Writer
}

// ParseLevel maps the textual level used by flags and env vars to a slog level.
// Unknown values fall back to info.
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

// tokenPrefixes are GitHub token formats that must never reach CI logs.
var tokenPrefixes = []string{"ghp_", "gho_", "ghs_", "github_pat_"}

func redactor() func([]string, slog.Attr) slog.Attr {
	opts := make([]masq.Option, 0, len(tokenPrefixes)+1)
	for _, p := range tokenPrefixes {
		opts = append(opts, masq.WithContain(p))
	}
	opts = append(opts, masq.WithFieldName("Token"))
	return masq.New(opts...)
}

// Initialize sets the process-wide default logger and returns it.
func Initialize(o Options) *slog.Logger {
	level := ParseLevel(o.Level)
	out := o.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   level == slog.LevelDebug,
		ReplaceAttr: redactor(),
	}

	var handler slog.Handler
	if o.JSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = NewPrettyHandler(out, opts)
	}

	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}

func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

func With(ctx context.Context, args ...any) context.Context {
	l := FromContext(ctx).With(args...)
	return WithLogger(ctx, l)
}

func Debug(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Debug(msg, args...)
}

func Info(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Info(msg, args...)
}

func Warn(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Warn(msg, args...)
}

func Error(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, slog.Any("error", err))
	}
	FromContext(ctx).Error(msg, args...)
}
