package telemetry

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func TestInfoWritesJSONLineWithFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel("info")
	t.Cleanup(func() { SetOutput(os.Stdout) })

	Info("agent_run", map[string]any{"agent_id": "heuristics", "status": 200})

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("invalid json log: %v (%s)", err, buf.String())
	}
	if entry["level"] != "info" || entry["message"] != "agent_run" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if entry["agent_id"] != "heuristics" {
		t.Fatalf("missing field: %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Fatalf("missing timestamp: %v", entry)
	}
}

func TestDebugSuppressedAtInfoLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetLevel("info")
		SetOutput(os.Stdout)
	})

	SetLevel("info")
	Debug("hidden", nil)
	if buf.Len() != 0 {
		t.Fatalf("expected debug suppressed, got %s", buf.String())
	}

	SetLevel("debug")
	Debug("shown", nil)
	if !strings.Contains(buf.String(), `"shown"`) {
		t.Fatalf("expected debug line, got %s", buf.String())
	}
}
