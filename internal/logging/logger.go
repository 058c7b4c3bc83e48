// Package logging writes ctfterm's human-readable log to a dated file.
// The terminal belongs to the dashboard, so nothing is logged to stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// Logger is the global logger instance. Discards until Init is called.
	Logger = log.New(io.Discard)

	logFile *os.File
)

// Init opens ctfterm-YYYY-MM-DD.log under dir/logs at the given level.
func Init(dir, level string) error {
	logDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	name := fmt.Sprintf("ctfterm-%s.log", time.Now().Format("2006-01-02"))
	f, err := os.OpenFile(filepath.Join(logDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f

	SetOutput(f, lvl)
	return nil
}

// SetOutput replaces the global logger. Used by Init and by tests.
func SetOutput(w io.Writer, level log.Level) {
	Logger = log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           level,
	})
}

// Close closes the log file.
func Close() {
	if logFile != nil {
		Logger.Info("ctfterm shutting down")
		logFile.Close()
		logFile = nil
	}
	Logger = log.New(io.Discard)
}

func Info(msg string, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

func Debug(msg string, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

func Warn(msg string, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

func Error(msg string, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}

// WithPrefix returns a logger that tags every line with prefix.
func WithPrefix(prefix string) *log.Logger {
	return Logger.WithPrefix(prefix)
}
