package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu        sync.Mutex
	level     = new(slog.LevelVar)
	log       = newLogger(os.Stderr)
	installed bool
)

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Init installs the package logger as the slog default so library code
// logging through slog ends up on the same stream.
func Init() {
	mu.Lock()
	defer mu.Unlock()

	installed = true
	slog.SetDefault(log)
}

// SetOutput redirects all log output to w, including the slog default
// once Init has run.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	log = newLogger(w)
	if installed {
		slog.SetDefault(log)
	}
}

// SetLevel sets the minimum level. Unknown names fall back to info.
func SetLevel(levelStr string) {
	switch strings.ToLower(levelStr) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
}

// Slog returns the underlying structured logger.
func Slog() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	return log
}

func logf(l slog.Level, format string, v ...interface{}) {
	lg := Slog()
	ctx := context.Background()
	if !lg.Enabled(ctx, l) {
		return
	}
	lg.Log(ctx, l, fmt.Sprintf(format, v...))
}

// Debug logs a debug message
func Debug(format string, v ...interface{}) {
	logf(slog.LevelDebug, format, v...)
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	logf(slog.LevelInfo, format, v...)
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	logf(slog.LevelWarn, format, v...)
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	logf(slog.LevelError, format, v...)
}
