package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	return entry
}

func TestContextLogger_WithContext_AllKeys(t *testing.T) {
	var buf bytes.Buffer
	cl := NewContextLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = WithUserID(ctx, "42")
	ctx = WithOperation(ctx, "login")
	ctx = WithCacheKey(ctx, "auth/check")

	cl.WithContext(ctx).Info("test message")
	entry := decodeLine(t, &buf)

	tests := []struct {
		key      string
		expected string
	}{
		{"request_id", "req-123"},
		{"user_id", "42"},
		{"operation", "login"},
		{"portal.cache.key", "auth/check"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := entry[tt.key]
			if !ok {
				t.Errorf("expected key %q to be present in log", tt.key)
				return
			}
			if got != tt.expected {
				t.Errorf("expected %q to be %q, got %q", tt.key, tt.expected, got)
			}
		})
	}
}

func TestContextLogger_WithContext_PartialKeys(t *testing.T) {
	var buf bytes.Buffer
	cl := NewContextLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx := WithUserID(context.Background(), "user-only")
	cl.WithContext(ctx).Info("test message")
	entry := decodeLine(t, &buf)

	if got, ok := entry["user_id"]; !ok || got != "user-only" {
		t.Errorf("expected user_id to be 'user-only', got %v", got)
	}
	for _, key := range []string{"request_id", "operation", "portal.cache.key"} {
		if _, ok := entry[key]; ok {
			t.Errorf("expected key %q to not be present in log", key)
		}
	}
}

func TestContextLogger_LogDuration(t *testing.T) {
	var buf bytes.Buffer
	cl := NewContextLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx := WithRequestID(context.Background(), "req-timing")
	cl.LogDuration(ctx, "fetch_self", 25)
	entry := decodeLine(t, &buf)

	if got := entry["operation"]; got != "fetch_self" {
		t.Errorf("expected operation to be 'fetch_self', got %v", got)
	}
	if got := entry["duration_ms"]; got != float64(25) {
		t.Errorf("expected duration_ms to be 25, got %v", got)
	}
	if got := entry["request_id"]; got != "req-timing" {
		t.Errorf("expected request_id to be 'req-timing', got %v", got)
	}
}

func TestContextLogger_LogError(t *testing.T) {
	var buf bytes.Buffer
	cl := NewContextLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	cl.LogError(context.Background(), "csrf_bootstrap", errors.New("connection refused"))
	entry := decodeLine(t, &buf)

	if got := entry["level"]; got != "ERROR" {
		t.Errorf("expected level ERROR, got %v", got)
	}
	if got := entry["error"]; got != "connection refused" {
		t.Errorf("expected error text, got %v", got)
	}
}

func TestRequestIDFrom(t *testing.T) {
	if _, ok := RequestIDFrom(context.Background()); ok {
		t.Error("expected no request id in empty context")
	}
	id, ok := RequestIDFrom(WithRequestID(context.Background(), "abc"))
	if !ok || id != "abc" {
		t.Errorf("expected 'abc', got %q (%v)", id, ok)
	}
}
