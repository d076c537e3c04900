package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/obsidianstack/framewatch/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.in)
		if err != nil {
			t.Errorf("ParseLevel(%q) error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("ParseLevel(verbose) expected error")
	}
}

func TestNew_JSONAndLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := newWithOutput(config.LogConfig{Level: "warn"}, &buf)
	if err != nil {
		t.Fatalf("newWithOutput: %v", err)
	}
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("monitor: status not recognised, dropped", "status", "bogus")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if rec["status"] != "bogus" {
		t.Errorf("status attr = %v, want bogus", rec["status"])
	}
}

func TestNew_TeesToRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "framewatch.log")
	var buf bytes.Buffer
	logger, closer, err := newWithOutput(config.LogConfig{Level: "info", File: path, MaxSizeMB: 1}, &buf)
	if err != nil {
		t.Fatalf("newWithOutput: %v", err)
	}
	logger.Info("hello", "pipeline", "cam0")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"pipeline":"cam0"`) {
		t.Errorf("file log missing entry: %q", data)
	}
	if !strings.Contains(buf.String(), `"pipeline":"cam0"`) {
		t.Errorf("stdout log missing entry: %q", buf.String())
	}
}

func TestNew_BadLevel(t *testing.T) {
	if _, _, err := New(config.LogConfig{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
