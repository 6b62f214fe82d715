package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewAppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "flowbench.log")
	l, err := New(path, "info", "text")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	l.Printf("started %s\n", "run")
	l.Slog().Debug("hidden")
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, `msg="started run"`) {
		t.Fatalf("expected printf record, got %q", text)
	}
	if strings.Contains(text, "hidden") {
		t.Fatalf("debug record should be filtered at info level")
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "debug", "json")
	l.Slog().Debug("node finished", "session", "s1", "node", "A")
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected json record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "node finished" || rec["node"] != "A" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestNilAndDiscardAreSafe(t *testing.T) {
	var l *Logger
	l.Printf("ignored")
	l.Slog().Info("ignored")
	if err := l.Close(); err != nil {
		t.Fatalf("close nil: %v", err)
	}
	Discard().Printf("ignored")
}
