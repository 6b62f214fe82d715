// Package logging writes flowbench activity to the project log file so runs
// can be inspected after the terminal session closes.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Logger appends structured records to a log file. Printf is kept for
// components that only need line logging.
type Logger struct {
	file   *os.File
	logger *slog.Logger
}

// New opens (or creates) path for appending and builds a slog logger with
// the given level and format ("text" or "json").
func New(path, level, format string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return &Logger{file: f, logger: newSlog(level, format, f)}, nil
}

// NewWriter builds a logger over w without owning it.
func NewWriter(w io.Writer, level, format string) *Logger {
	return &Logger{logger: newSlog(level, format, w)}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{logger: slog.New(slog.DiscardHandler)}
}

func newSlog(levelStr, formatStr string, out io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(strings.TrimSpace(formatStr), "json") {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

// Slog exposes the structured logger.
func (l *Logger) Slog() *slog.Logger {
	if l == nil || l.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.logger
}

// Printf writes a single info record.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Info(strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

// Close releases the file handle.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
