package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestSetupWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "todo.log")

	logger, cleanup, err := Setup(Options{File: path, Level: "debug", Format: "json"})
	if err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}

	logger.Debug("loaded items", "count", 3)
	logger.Warn("saved items are malformed", "key", "todo_list_items")

	if err := cleanup(); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %q", len(lines), content)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON entry, got %q: %v", lines[0], err)
	}
	if entry["msg"] != "loaded items" || entry["level"] != "debug" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestSetupAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.log")
	if err := os.WriteFile(path, []byte("earlier run\n"), 0o644); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	logger, cleanup, err := Setup(Options{File: path})
	if err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}
	logger.Info("started")
	if err := cleanup(); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}

	content, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(content), "earlier run\n") || !strings.Contains(string(content), "started") {
		t.Fatalf("expected appended content, got %q", content)
	}
}

func TestSetupWithoutFileDiscards(t *testing.T) {
	logger, cleanup, err := Setup(Options{})
	if err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}
	logger.Error("nowhere")
	if err := cleanup(); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{Level: "warn"})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("info entry should be filtered at warn level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("warn entry missing: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    log.Level
		wantErr bool
	}{
		{"", log.InfoLevel, false},
		{"debug", log.DebugLevel, false},
		{" WARN ", log.WarnLevel, false},
		{"error", log.ErrorLevel, false},
		{"chatty", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLevel(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestParseFormatter(t *testing.T) {
	for in, want := range map[string]log.Formatter{
		"":       log.TextFormatter,
		"text":   log.TextFormatter,
		"JSON":   log.JSONFormatter,
		"logfmt": log.LogfmtFormatter,
	} {
		got, err := ParseFormatter(in)
		if err != nil || got != want {
			t.Errorf("ParseFormatter(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseFormatter("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestSetupRejectsBadLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.log")
	if _, _, err := Setup(Options{File: path, Level: "chatty"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
