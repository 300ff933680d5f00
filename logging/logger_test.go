package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo}, // default to INFO
		{"", slog.LevelInfo},        // default to INFO
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("json format by default", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, slog.LevelInfo, "")
		logger.Info("hello", "key", "value")

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("expected JSON output, got %q", buf.String())
		}
		if entry["msg"] != "hello" || entry["key"] != "value" {
			t.Errorf("unexpected entry %v", entry)
		}
	})

	t.Run("text format", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, slog.LevelInfo, "TEXT")
		logger.Info("hello")

		if !strings.Contains(buf.String(), "msg=hello") {
			t.Errorf("expected text output, got %q", buf.String())
		}
	})

	t.Run("filters below level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, slog.LevelWarn, "json")
		logger.Debug("debug message")
		logger.Info("info message")
		logger.Warn("warn message")

		output := buf.String()
		if strings.Contains(output, "debug message") || strings.Contains(output, "info message") {
			t.Error("messages below WARN should be filtered")
		}
		if !strings.Contains(output, "warn message") {
			t.Error("WARN message should be logged")
		}
	})
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("dropped")
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log entry %q: %v", buf.String(), err)
	}
	buf.Reset()
	return entry
}

func TestSyncEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelDebug, "json")

	t.Run("attempt", func(t *testing.T) {
		SyncAttempt(logger, "http://x/list.txt", 2)
		entry := decodeEntry(t, &buf)
		if entry["event"] != string(EventSyncAttempt) || entry["attempt"] != float64(2) {
			t.Errorf("unexpected entry %v", entry)
		}
	})

	t.Run("succeeded", func(t *testing.T) {
		SyncSucceeded(logger, 1, 42, true, 1500*time.Millisecond)
		entry := decodeEntry(t, &buf)
		if entry["event"] != string(EventSyncSucceeded) || entry["channels"] != float64(42) || entry["changed"] != true {
			t.Errorf("unexpected entry %v", entry)
		}
	})

	t.Run("failed with retry logs warn", func(t *testing.T) {
		SyncFailed(logger, "fetch", 1, errors.New("connection refused"), true, 10*time.Second)
		entry := decodeEntry(t, &buf)
		if entry["level"] != "WARN" || entry["retry_in"] != "10s" {
			t.Errorf("unexpected entry %v", entry)
		}
	})

	t.Run("failed without retry logs error", func(t *testing.T) {
		SyncFailed(logger, "parse", 3, errors.New("boom"), false, 0)
		entry := decodeEntry(t, &buf)
		if entry["level"] != "ERROR" || entry["kind"] != "parse" {
			t.Errorf("unexpected entry %v", entry)
		}
		if _, ok := entry["retry_in"]; ok {
			t.Error("retry_in should be absent when no retry follows")
		}
	})

	t.Run("rejected", func(t *testing.T) {
		SyncRejected(logger)
		entry := decodeEntry(t, &buf)
		if entry["event"] != string(EventSyncRejected) {
			t.Errorf("unexpected entry %v", entry)
		}
	})

	t.Run("activation failed", func(t *testing.T) {
		ActivationFailed(logger, "4gtv", "https://www.4gtv.tv/", "fullscreen", errors.New("element not found"))
		entry := decodeEntry(t, &buf)
		if entry["event"] != string(EventActivationFailed) || entry["adapter"] != "4gtv" || entry["step"] != "fullscreen" {
			t.Errorf("unexpected entry %v", entry)
		}
	})
}

func TestWriteJSONError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, "json")
	rec := httptest.NewRecorder()

	WriteJSONError(rec, logger, "bad input", http.StatusBadRequest, "path", "/api/x")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}
	var body HTTPErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Error != "bad input" {
		t.Errorf("unexpected body %+v", body)
	}
	if !strings.Contains(buf.String(), `"path":"/api/x"`) {
		t.Errorf("expected context in log, got %s", buf.String())
	}
}

func TestWriteJSONSuccess(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteJSONSuccess(rec, nil, http.StatusAccepted, map[string]bool{"started": true})

	if rec.Code != http.StatusAccepted {
		t.Errorf("expected status 202, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"started":true`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}
