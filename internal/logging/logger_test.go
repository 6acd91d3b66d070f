package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{name: "info", input: "info", want: slog.LevelInfo},
		{name: "debug", input: "debug", want: slog.LevelDebug},
		{name: "trace", input: "trace", want: LevelTrace},
		{name: "uppercase", input: "DEBUG", want: slog.LevelDebug},
		{name: "unknown defaults to info", input: "verbose", want: slog.LevelInfo},
		{name: "empty defaults to info", input: "", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("info", &buf)

	logger.Debug("hidden")
	logger.Info("visible")

	out := buf.String()
	if bytes.Contains([]byte(out), []byte("hidden")) {
		t.Error("debug message logged at info level")
	}
	if !bytes.Contains([]byte(out), []byte("visible")) {
		t.Error("info message missing")
	}
}

func TestNewLogger_TraceLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("trace", &buf)

	logger.Log(nil, LevelTrace, "round detail")
	if !bytes.Contains(buf.Bytes(), []byte("TRACE")) {
		t.Errorf("trace level not labeled: %s", buf.String())
	}
}

func TestNewTraceLogger_NilAtInfoLevel(t *testing.T) {
	tl := NewTraceLogger(t.TempDir(), "info")
	if tl != nil {
		t.Fatal("expected nil trace logger at info level")
	}

	// Nil receiver is safe.
	tl.Log(map[string]any{"step": 1})
	tl.Close()
}

func TestTraceLogger_WritesJSONL(t *testing.T) {
	dir := t.TempDir()
	tl := NewTraceLogger(dir, "debug")
	if tl == nil {
		t.Fatal("expected trace logger at debug level")
	}

	tl.Log(map[string]any{"step": 0, "mean": 49.5})
	tl.Log(map[string]any{"step": 1, "mean": 49.8})
	tl.Close()

	f, err := os.Open(filepath.Join(dir, "rounds.jsonl"))
	if err != nil {
		t.Fatalf("open rounds.jsonl: %v", err)
	}
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines++
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines, err)
		}
		if _, ok := entry["time"]; !ok {
			t.Errorf("line %d missing time field", lines)
		}
	}
	if lines != 2 {
		t.Errorf("got %d lines, want 2", lines)
	}
}

func TestTraceLogger_DoesNotMutateCaller(t *testing.T) {
	tl := NewTraceLogger(t.TempDir(), "debug")
	defer tl.Close()

	event := map[string]any{"step": 0}
	tl.Log(event)
	if _, ok := event["time"]; ok {
		t.Error("Log mutated the caller's map")
	}
}
