// Package logging configures the process-wide slog logger and carries
// request-scoped loggers through context.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

type ctxKey struct{}

// Init builds the root logger and installs it as the slog default. The
// development environment gets human-readable text; everything else emits
// JSON for the log pipeline. Every record carries the service name.
func Init(service, level, appEnv string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var h slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if appEnv == "development" {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	root := slog.New(h).With("service", service)
	slog.SetDefault(root)
	return root
}

// FromContext returns the request-scoped logger, falling back to the
// process default outside a request.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// parseLevel is forgiving: anything unrecognized lands on info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
