package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// ParseLevel converts a string to a slog.Level. Unknown values map to INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a logger writing to w. format is "json" (default) or "text".
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Event identifies a sync or activation event in log output.
type Event string

// Event constants identify the lifecycle events of playlist sync and fullscreen activation
const (
	EventSyncAttempt      Event = "sync_attempt"      // EventSyncAttempt indicates a fetch attempt is starting
	EventSyncSucceeded    Event = "sync_succeeded"    // EventSyncSucceeded indicates an attempt completed
	EventSyncFailed       Event = "sync_failed"       // EventSyncFailed indicates an attempt failed
	EventSyncRejected     Event = "sync_rejected"     // EventSyncRejected indicates a request was dropped because a sync is running
	EventActivationFailed Event = "activation_failed" // EventActivationFailed indicates fullscreen activation failed
)

// SyncAttempt logs the start of a fetch attempt (INFO level)
func SyncAttempt(logger *slog.Logger, url string, attempt int) {
	logger.Info("Playlist sync attempt",
		"event", EventSyncAttempt,
		"url", url,
		"attempt", attempt,
	)
}

// SyncSucceeded logs a completed attempt (INFO level)
func SyncSucceeded(logger *slog.Logger, attempt, channels int, changed bool, elapsed time.Duration) {
	logger.Info("Playlist sync succeeded",
		"event", EventSyncSucceeded,
		"attempt", attempt,
		"channels", channels,
		"changed", changed,
		"elapsed", elapsed.String(),
	)
}

// SyncFailed logs a failed attempt (WARN level when a retry follows, ERROR otherwise)
func SyncFailed(logger *slog.Logger, kind string, attempt int, err error, willRetry bool, retryIn time.Duration) {
	attrs := []any{
		"event", EventSyncFailed,
		"kind", kind,
		"attempt", attempt,
		"error", err.Error(),
		"will_retry", willRetry,
	}
	if willRetry {
		logger.Warn("Playlist sync failed", append(attrs, "retry_in", retryIn.String())...)
		return
	}
	logger.Error("Playlist sync failed", attrs...)
}

// SyncRejected logs a sync request dropped by the single-flight guard (INFO level)
func SyncRejected(logger *slog.Logger) {
	logger.Info("Playlist sync already in progress",
		"event", EventSyncRejected,
	)
}

// ActivationFailed logs a failed fullscreen activation (WARN level)
func ActivationFailed(logger *slog.Logger, adapter, url, step string, err error) {
	logger.Warn("Fullscreen activation failed",
		"event", EventActivationFailed,
		"adapter", adapter,
		"url", url,
		"step", step,
		"error", err.Error(),
	)
}
