package logging

import (
	"io"
	"log/slog"
	"sync"

	"github.com/jarv/justread/internal/database"
)

var (
	mu     sync.RWMutex
	logger *slog.Logger
)

// SetLogger replaces the process-wide logger
func SetLogger(l *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// GetLogger returns the process-wide logger, or a discarding one if none is set
func GetLogger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}

// Setup installs a logger that persists records to the log_messages table.
// When echo is non-nil records are also written there as text.
func Setup(queries *database.Queries, debug bool, echo io.Writer) *slog.Logger {
	var handler slog.Handler = NewDatabaseHandler(queries, debug)
	if echo != nil {
		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		handler = teeHandler{handler, slog.NewTextHandler(echo, &slog.HandlerOptions{Level: level})}
	}
	l := slog.New(handler)
	SetLogger(l)
	return l
}

func Info(msg string, args ...any) {
	GetLogger().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	GetLogger().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	GetLogger().Error(msg, args...)
}

func Debug(msg string, args ...any) {
	GetLogger().Debug(msg, args...)
}
