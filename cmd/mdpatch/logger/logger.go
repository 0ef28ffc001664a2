// Package logger holds the process-wide logger of the mdpatch command.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// L is the global logger instance. It discards all output until Init is
// called.
var L = slog.New(slog.NewTextHandler(io.Discard, nil))

var file *os.File

// Options configures the logger initialization.
type Options struct {
	Level slog.Level // Minimum log level
	File  string     // If set, JSON records go to this file instead of Stderr
	// Stderr receives text records when File is empty. Default: os.Stderr
	Stderr io.Writer
}

// Init configures logging. Call it before any log calls; calling it again
// closes the previously opened log file.
func Init(opts Options) error {
	if err := Close(); err != nil {
		return err
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	if opts.File == "" {
		w := opts.Stderr
		if w == nil {
			w = os.Stderr
		}
		L = slog.New(slog.NewTextHandler(w, handlerOpts))
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	file = f
	L = slog.New(slog.NewJSONHandler(f, handlerOpts))
	return nil
}

// Close closes the log file opened by Init, if any, and resets L to discard.
func Close() error {
	L = slog.New(slog.NewTextHandler(io.Discard, nil))
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

// ParseLevel parses a level name such as "debug" or "warn". An empty name
// is LevelInfo.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, err
	}
	return level, nil
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { L.Error(msg, args...) }
