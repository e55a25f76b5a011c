package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"portfolio-ai/internal/infra/config"
)

func TestNewHandlerJSON(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, config.LoggerConfig{Level: "info", Format: "json"}))

	log.Info("chat completed", "session_id", "abc")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON: %v, output: %s", err, buf.String())
	}
	if entry["msg"] != "chat completed" {
		t.Errorf("msg = %q, want %q", entry["msg"], "chat completed")
	}
	if entry["session_id"] != "abc" {
		t.Errorf("session_id = %v", entry["session_id"])
	}
}

func TestNewHandlerTextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, config.LoggerConfig{Level: "warn", Format: "text"}))

	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered: %s", out)
	}
	if !strings.Contains(out, "msg=shown") {
		t.Errorf("expected text record, got %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestOpenOutputStd(t *testing.T) {
	for _, out := range []string{"stdout", "stderr", ""} {
		w, closer, err := openOutput(out)
		if err != nil {
			t.Fatalf("openOutput(%q): %v", out, err)
		}
		if w == nil {
			t.Errorf("openOutput(%q) returned nil writer", out)
		}
		if err := closer(); err != nil {
			t.Errorf("closer: %v", err)
		}
	}
}

func TestNewFileWritesToPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "chat.log")

	log, closer, err := NewFile(config.LoggerConfig{Level: "info", Format: "json", Output: "stderr"}, path)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	log.Info("widget opened")
	if err := closer(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "widget opened") {
		t.Errorf("log file missing record: %s", data)
	}
}

func TestNewFileEmptyPathDiscards(t *testing.T) {
	log, closer, err := NewFile(config.LoggerConfig{}, "")
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	defer closer()
	log.Info("dropped")
}

func TestNewBadPath(t *testing.T) {
	_, _, err := New(config.LoggerConfig{Output: "/nonexistent-dir/x/y.log"})
	if err == nil {
		t.Error("expected error for unwritable path")
	}
}
