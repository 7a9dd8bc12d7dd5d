// Package logging provides structured logging for sessiondiff using slog.
//
// Usage:
//
//	if err := logging.Init(sessionID, cfg.LogLevel); err != nil {
//	    // handle error
//	}
//	defer logging.Close()
//
//	ctx = logging.WithComponent(ctx, "watch")
//	logging.Info(ctx, "change detected", slog.Int("files", n))
package logging

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LogLevelEnvVar is the environment variable that controls log level.
// It takes precedence over the configured level.
const LogLevelEnvVar = "SESSIONDIFF_LOG_LEVEL"

var (
	logger       *slog.Logger
	logFile      *os.File
	logBufWriter *bufio.Writer

	// currentSessionID is attached to every record written after Init.
	currentSessionID string

	// mu protects logger, logFile, logBufWriter, and currentSessionID
	mu sync.RWMutex
)

// LogsDir returns the directory session log files are written to:
// $XDG_DATA_HOME/sessiondiff/logs or ~/.local/share/sessiondiff/logs.
func LogsDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "sessiondiff", "logs"), nil
}

// Init initializes the logger for a session, writing JSON logs to
// <LogsDir>/<session-id>.log. An empty sessionID logs to stderr.
//
// If the log file cannot be created, falls back to stderr.
func Init(sessionID, configuredLevel string) error {
	if strings.ContainsAny(sessionID, `/\`) || strings.Contains(sessionID, "..") {
		return fmt.Errorf("invalid session ID for logging: %q", sessionID)
	}

	mu.Lock()
	defer mu.Unlock()

	closeLocked()

	levelStr := os.Getenv(LogLevelEnvVar)
	if levelStr == "" {
		levelStr = configuredLevel
	}
	level := parseLogLevel(levelStr)
	if levelStr != "" && !isValidLogLevel(levelStr) {
		fmt.Fprintf(os.Stderr, "[sessiondiff] Warning: invalid log level %q, defaulting to INFO\n", levelStr)
	}

	if sessionID == "" {
		logger = createLogger(os.Stderr, level)
		return nil
	}

	dir, err := LogsDir()
	if err != nil {
		logger = createLogger(os.Stderr, level)
		return nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		logger = createLogger(os.Stderr, level)
		return nil
	}

	f, err := os.OpenFile(filepath.Join(dir, sessionID+".log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		logger = createLogger(os.Stderr, level)
		return nil
	}

	logFile = f
	logBufWriter = bufio.NewWriterSize(f, 8192)
	logger = createLogger(logBufWriter, level)
	currentSessionID = sessionID
	return nil
}

// SetOutput replaces the logger with one writing JSON records to w.
// Used by tests and by commands that want logs on a specific stream.
func SetOutput(w io.Writer, level string) {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
	logger = createLogger(w, parseLogLevel(level))
}

// Close flushes and closes the log file if one is open.
// Safe to call multiple times.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
	logger = nil
}

func closeLocked() {
	if logBufWriter != nil {
		_ = logBufWriter.Flush()
		logBufWriter = nil
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	currentSessionID = ""
}

// getLogger returns the current logger, or slog's default if not initialized.
func getLogger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil {
		return slog.Default()
	}
	return logger
}

func getSessionID() string {
	mu.RLock()
	defer mu.RUnlock()
	return currentSessionID
}

func createLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// parseLogLevel returns slog.LevelInfo for empty or invalid values.
func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isValidLogLevel(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR", "":
		return true
	default:
		return false
	}
}

// Debug logs at DEBUG level with context values automatically extracted.
func Debug(ctx context.Context, msg string, attrs ...any) {
	log(ctx, slog.LevelDebug, msg, attrs...)
}

// Info logs at INFO level with context values automatically extracted.
func Info(ctx context.Context, msg string, attrs ...any) {
	log(ctx, slog.LevelInfo, msg, attrs...)
}

// Warn logs at WARN level with context values automatically extracted.
func Warn(ctx context.Context, msg string, attrs ...any) {
	log(ctx, slog.LevelWarn, msg, attrs...)
}

// Error logs at ERROR level with context values automatically extracted.
func Error(ctx context.Context, msg string, attrs ...any) {
	log(ctx, slog.LevelError, msg, attrs...)
}

// LogDuration logs msg with a duration_ms attribute measured from start.
// Designed for use with defer:
//
//	defer logging.LogDuration(ctx, slog.LevelDebug, "diff computed", time.Now())
func LogDuration(ctx context.Context, level slog.Level, msg string, start time.Time, attrs ...any) {
	all := make([]any, 0, len(attrs)+1)
	all = append(all, slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	all = append(all, attrs...)
	log(ctx, level, msg, all...)
}

func log(ctx context.Context, level slog.Level, msg string, attrs ...any) {
	l := getLogger()
	if !l.Enabled(context.Background(), level) {
		return
	}

	var all []any
	sid := getSessionID()
	if sid != "" {
		all = append(all, slog.String("session_id", sid))
	}
	for _, a := range attrsFromContext(ctx, sid) {
		all = append(all, a)
	}
	all = append(all, attrs...)

	l.Log(context.Background(), level, msg, all...)
}
