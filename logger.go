package seqgo

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/seqgo/seqgo/index"
)

// Logger wraps slog.Logger with seqgo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithInput adds the input selection to the logger.
func (l *Logger) WithInput(input string) *Logger {
	return &Logger{Logger: l.Logger.With("input", input)}
}

// LogIngest logs the outcome of the ingestion phase.
func (l *Logger) LogIngest(ctx context.Context, files, records int, symbols uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "ingestion failed", "error", err)
		return
	}
	l.InfoContext(ctx, "ingestion completed",
		"files", files,
		"records", records,
		"symbols", symbols,
	)
}

// LogBuild logs one index generation build.
func (l *Logger) LogBuild(ctx context.Context, stats index.Stats, duration time.Duration, err error) {
	direction := "forward"
	if stats.Reverse {
		direction = "reverse"
	}
	if err != nil {
		l.ErrorContext(ctx, "index build failed",
			"direction", direction,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "index built",
		"direction", direction,
		"text_length", stats.TextLength,
		"sampled_positions", stats.SampledPositions,
		"duration", duration,
	)
}

// LogPersist logs one artifact write.
func (l *Logger) LogPersist(ctx context.Context, path string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "artifact write failed", "path", path, "error", err)
		return
	}
	l.DebugContext(ctx, "artifact written", "path", path)
}

// LogArchive logs the artifact archiving step.
func (l *Logger) LogArchive(ctx context.Context, artifacts int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "artifact archiving failed", "error", err)
		return
	}
	l.InfoContext(ctx, "artifacts archived", "count", artifacts)
}
