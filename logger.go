package semshift

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/semshift/align"
)

// Logger wraps slog.Logger with semshift-specific context.
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
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithWord adds a word field to the logger.
func (l *Logger) WithWord(word string) *Logger {
	return &Logger{
		Logger: l.Logger.With("word", word),
	}
}

// LogAlign logs an alignment run.
func (l *Logger) LogAlign(ctx context.Context, kind align.Kind, words, dim int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "alignment failed",
			"alignment_type", kind,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "alignment completed",
			"alignment_type", kind,
			"words", words,
			"dimension", dim,
		)
	}
}

// LogQuery logs a top-k or context query.
func (l *Logger) LogQuery(ctx context.Context, op string, k, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, op+" failed",
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, op+" completed",
			"k", k,
			"results", results,
		)
	}
}

// LogMining logs a sentence mining request.
func (l *Logger) LogMining(ctx context.Context, mode string, pairs int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "sentence mining failed",
			"mode", mode,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "sentence mining completed",
			"mode", mode,
			"pairs", pairs,
		)
	}
}
