package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerFormatsComponent(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	NewComponentLogger(logger, "queue").Info("task enqueued", String("app_id", "org.deepin.calculator"))

	line := buf.String()
	if !strings.Contains(line, "INFO queue: task enqueued") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "app_id=org.deepin.calculator") {
		t.Fatalf("missing attribute: %q", line)
	}
}

func TestConsoleHandlerQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger.Warn("install failed", String("message", "network error: timeout"))

	if !strings.Contains(buf.String(), `message="network error: timeout"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("debug") != slog.LevelDebug {
		t.Fatal("debug not parsed")
	}
	if parseLevel("") != slog.LevelInfo {
		t.Fatal("empty level should default to info")
	}
	if parseLevel("nonsense") != slog.LevelInfo {
		t.Fatal("unknown level should default to info")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
