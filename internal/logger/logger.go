package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Logger defines the logging interface used throughout autopush.
//
// Info, Warning and Error feed the diagnostic log (the log file when debug
// logging is enabled). The *ToUser, Success and StatusMessage methods are the
// user channel and always reach the terminal. All methods take
// fmt.Printf style arguments.
type Logger interface {
	// Info logs an informational message to the diagnostic log.
	Info(format string, args ...interface{})

	// Warning logs a warning to the diagnostic log and, in verbose mode, to the user.
	Warning(format string, args ...interface{})

	// Error logs an error to the diagnostic log and always to stderr.
	Error(format string, args ...interface{})

	// InfoToUser shows an informational message to the user.
	InfoToUser(format string, args ...interface{})

	// WarningToUser shows a warning to the user.
	WarningToUser(format string, args ...interface{})

	// Success shows a success message to the user.
	Success(format string, args ...interface{})

	// Diagnostic records msg with slog key/value attrs in the diagnostic log
	// only. Cycle failures use it so full git output stays off the terminal.
	Diagnostic(msg string, attrs ...any)

	// StatusMessage prints a plain status line to stdout without logging it.
	StatusMessage(format string, args ...interface{})

	// Close flushes and closes the log file, if any.
	Close() error
}

// DefaultLogger provides structured logging capability and implements the Logger interface
type DefaultLogger struct {
	mu      sync.Mutex
	logger  *slog.Logger
	enabled bool
	logFile string
	verbose bool
	stdout  io.Writer
	stderr  io.Writer
	file    *os.File
}

// New creates a new Logger instance
func New(enabled bool, logFile string, verbose bool) *DefaultLogger {
	return NewWithOutput(enabled, logFile, verbose, os.Stdout, os.Stderr)
}

// NewWithOutput creates a DefaultLogger with custom output writers
func NewWithOutput(enabled bool, logFile string, verbose bool, stdout, stderr io.Writer) *DefaultLogger {
	var logger *slog.Logger

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	var file *os.File

	if enabled {
		logDir := filepath.Dir(logFile)
		if logDir != "." {
			if err := os.MkdirAll(logDir, 0o755); err != nil {
				_, _ = fmt.Fprintf(stderr, "⚠️ Failed to create log directory: %v\n", err)
			}
		}

		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err == nil {
			file = f
			logger = slog.New(slog.NewTextHandler(f, opts))
			_, _ = fmt.Fprintf(stdout, "🔍 Debug logging enabled. Logs will be written to: %s\n", logFile)

			logger.Info("autopush debug logging started")
		} else {
			logger = slog.New(slog.NewTextHandler(stderr, opts))
			_, _ = fmt.Fprintf(stderr, "⚠️ Failed to open log file: %v, using stderr instead\n", err)
		}
	} else {
		logger = slog.New(slog.NewTextHandler(stderr, opts))
	}

	return &DefaultLogger{
		logger:  logger,
		enabled: enabled,
		logFile: logFile,
		verbose: verbose,
		stdout:  stdout,
		stderr:  stderr,
		file:    file,
	}
}

// channel selects where the user-facing copy of a log line goes.
type channel int

const (
	fileOnly channel = iota
	toStdout
	toStdoutIfVerbose
	toStderr
)

// emit writes msg to the diagnostic log at level and, depending on ch, to
// the terminal with prefix.
func (l *DefaultLogger) emit(level slog.Level, ch channel, prefix, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.enabled {
		l.logger.Log(context.Background(), level, msg)
	}

	switch {
	case ch == toStdout, ch == toStdoutIfVerbose && l.verbose:
		_, _ = fmt.Fprintf(l.stdout, "%s %s\n", prefix, msg)
	case ch == toStderr:
		_, _ = fmt.Fprintf(l.stderr, "%s %s\n", prefix, msg)
	}
}

// Info logs an informational message (file only)
func (l *DefaultLogger) Info(format string, args ...interface{}) {
	l.emit(slog.LevelInfo, fileOnly, "", fmt.Sprintf(format, args...))
}

// InfoToUser logs an informational message to both file and stdout
func (l *DefaultLogger) InfoToUser(format string, args ...interface{}) {
	l.emit(slog.LevelInfo, toStdout, "ℹ️ ", fmt.Sprintf(format, args...))
}

// Success logs a success message to both file and stdout
func (l *DefaultLogger) Success(format string, args ...interface{}) {
	l.emit(slog.LevelInfo, toStdout, "✅", fmt.Sprintf(format, args...))
}

// Warning logs a warning message; verbose mode also prints it
func (l *DefaultLogger) Warning(format string, args ...interface{}) {
	l.emit(slog.LevelWarn, toStdoutIfVerbose, "⚠️ ", fmt.Sprintf(format, args...))
}

// WarningToUser logs a warning message to both file and stdout
func (l *DefaultLogger) WarningToUser(format string, args ...interface{}) {
	l.emit(slog.LevelWarn, toStdout, "⚠️ ", fmt.Sprintf(format, args...))
}

// Error logs an error message. Errors reach the user whether or not file
// logging is on.
func (l *DefaultLogger) Error(format string, args ...interface{}) {
	l.emit(slog.LevelError, toStderr, "❌", fmt.Sprintf(format, args...))
}

// Diagnostic records msg with structured attributes in the log file. It
// never writes to the terminal, so it can carry full git output.
func (l *DefaultLogger) Diagnostic(msg string, attrs ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled {
		return
	}
	l.logger.Warn(msg, attrs...)
}

// StatusMessage prints a status message to stdout only (no logging)
func (l *DefaultLogger) StatusMessage(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, _ = fmt.Fprintln(l.stdout, fmt.Sprintf(format, args...))
}

// Close ensures any buffered data is written and closes open log file handles
func (l *DefaultLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		if err := l.file.Sync(); err != nil {
			return err
		}
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// SetStdout sets a custom writer for user-facing stdout messages only.
// NOTE: This does not affect where structured log messages from slog are directed.
func (l *DefaultLogger) SetStdout(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stdout = w
}

// SetStderr sets a custom writer for user-facing stderr messages only.
// NOTE: This does not affect where structured log messages from slog are directed.
func (l *DefaultLogger) SetStderr(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stderr = w
}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})          {}
func (nopLogger) Warning(string, ...interface{})       {}
func (nopLogger) Error(string, ...interface{})         {}
func (nopLogger) InfoToUser(string, ...interface{})    {}
func (nopLogger) WarningToUser(string, ...interface{}) {}
func (nopLogger) Success(string, ...interface{})       {}
func (nopLogger) StatusMessage(string, ...interface{}) {}
func (nopLogger) Diagnostic(string, ...any)            {}
func (nopLogger) Close() error                         { return nil }
