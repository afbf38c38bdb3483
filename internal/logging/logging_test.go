package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := ContextWithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatal("expected logger from context")
	}
	if FromContext(context.Background()) != nil {
		t.Fatal("expected nil logger for bare context")
	}
	if got := ContextWithLogger(context.Background(), nil); FromContext(got) != nil {
		t.Fatal("nil logger must not be stored")
	}
}

func TestNewJSONRespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(&buf, "warn", "json")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "tool", "tool0001")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if record["msg"] != "shown" || record["tool"] != "tool0001" {
		t.Fatalf("unexpected record %v", record)
	}
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	t.Parallel()

	if _, err := New(&bytes.Buffer{}, "loud", "json"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, err := New(&bytes.Buffer{}, "info", "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if logger, err := New(&bytes.Buffer{}, "debug", "text"); err != nil || logger == nil {
		t.Fatalf("expected text logger, got %v", err)
	}
}

func TestScopedPrefersContextLogger(t *testing.T) {
	t.Parallel()

	var fromCtx, fallback bytes.Buffer
	ctxLogger := slog.New(slog.NewJSONHandler(&fromCtx, nil))
	base := slog.New(slog.NewJSONHandler(&fallback, nil))

	Scoped(ContextWithLogger(context.Background(), ctxLogger), base, "service", "JournalService", "List", "limit", 5).Info("listed")
	if fallback.Len() != 0 {
		t.Fatalf("expected fallback to stay unused, got %q", fallback.String())
	}
	var record map[string]any
	if err := json.Unmarshal(fromCtx.Bytes(), &record); err != nil {
		t.Fatalf("failed to decode record: %v", err)
	}
	if record["service"] != "JournalService" || record["operation"] != "List" || record["limit"] != float64(5) {
		t.Fatalf("unexpected record %v", record)
	}

	Scoped(context.Background(), base, "handler", "CalendarHandler", "").Info("served")
	if !strings.Contains(fallback.String(), `"handler":"CalendarHandler"`) || strings.Contains(fallback.String(), "operation") {
		t.Fatalf("unexpected fallback record %q", fallback.String())
	}
}
