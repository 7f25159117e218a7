package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Failed to parse log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"DEBUG", DebugLevel},
		{"debug", DebugLevel},
		{" Info ", InfoLevel},
		{"warning", WarnLevel},
		{"ERROR", ErrorLevel},
		{"invalid", InfoLevel},
		{"", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLevel_UnmarshalText(t *testing.T) {
	var l Level
	if err := l.UnmarshalText([]byte("warn")); err != nil || l != WarnLevel {
		t.Errorf("UnmarshalText(warn) = %v, %v", l, err)
	}
	if err := l.UnmarshalText([]byte("loud")); err == nil {
		t.Error("Expected error for unknown level")
	}
	text, _ := DebugLevel.MarshalText()
	if string(text) != "debug" {
		t.Errorf("MarshalText() = %q, want debug", text)
	}
}

func TestDomainFields(t *testing.T) {
	type nodeID int

	if f := NodeID(nodeID(7)); f.Key != "node_id" || f.Value != 7 {
		t.Errorf("NodeID() = %+v", f)
	}
	if f := Path([]nodeID{0, 1, 3}); f.Key != "path" {
		t.Errorf("Path() key = %q", f.Key)
	} else if ids, ok := f.Value.([]int); !ok || len(ids) != 3 || ids[2] != 3 {
		t.Errorf("Path() value = %#v", f.Value)
	}
	if f := Cost(math.Inf(1)); f.Value != "+Inf" {
		t.Errorf("Cost(+Inf) = %#v, want string +Inf", f.Value)
	}
	if f := Cost(20); f.Value != 20.0 {
		t.Errorf("Cost(20) = %#v", f.Value)
	}
	if f := Error(nil); f.Value != nil {
		t.Errorf("Error(nil) = %+v", f)
	}
}

func TestJSONLogger_BasicLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	logger.Info("path found", RequestID("abc"), Path([]int{0, 1}), Cost(math.Inf(1)))

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Level != "INFO" || entry.Message != "path found" {
		t.Errorf("Unexpected entry: %+v", entry)
	}
	if entry.Fields["request_id"] != "abc" {
		t.Errorf("request_id = %v", entry.Fields["request_id"])
	}
	if entry.Fields["cost"] != "+Inf" {
		t.Errorf("cost = %v, want +Inf", entry.Fields["cost"])
	}
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != "WARN" || entries[1].Level != "ERROR" {
		t.Errorf("Unexpected levels: %s, %s", entries[0].Level, entries[1].Level)
	}
}

func TestJSONLogger_WithSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	parent := NewJSONLogger(&buf, InfoLevel)
	child := parent.With(Component("engine"))

	child.Debug("hidden")
	parent.SetLevel(DebugLevel)
	child.Debug("visible", Operation("route"))

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Fields["component"] != "engine" || entries[0].Fields["operation"] != "route" {
		t.Errorf("Unexpected fields: %v", entries[0].Fields)
	}
	if child.GetLevel() != DebugLevel {
		t.Errorf("child level = %v, want DEBUG", child.GetLevel())
	}
}

func TestJSONLogger_NoFieldsOmitted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)
	logger.Info("bare")

	if strings.Contains(buf.String(), `"fields"`) {
		t.Errorf("Expected fields to be omitted: %s", buf.String())
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	StartTimer(logger, "find path", Source(1)).End(Hops(2))
	StartTimer(logger, "route", Source(0)).EndError(errors.New("stalled"))

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if _, ok := entries[0].Fields["latency"]; !ok {
		t.Error("Expected latency field")
	}
	if entries[0].Fields["hops"] != float64(2) {
		t.Errorf("hops = %v", entries[0].Fields["hops"])
	}
	if entries[1].Level != "WARN" || entries[1].Fields["error"] != "stalled" {
		t.Errorf("Unexpected error entry: %+v", entries[1])
	}
}

func TestDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	SetDefaultLogger(NewJSONLogger(&buf, InfoLevel))
	t.Cleanup(func() { SetDefaultLogger(nil) })

	DefaultLogger().Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("Expected default logger output, got %q", buf.String())
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("discarded")
	if logger.With(Count(1)) == nil {
		t.Error("With must return a logger")
	}
}

func BenchmarkJSONLogger_Info(b *testing.B) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark", NodeID(i), Cost(float64(i)))
	}
}
