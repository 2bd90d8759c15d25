package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if tt.in != "bogus" && !ValidLevel(tt.in) {
			t.Errorf("ValidLevel(%q) = false", tt.in)
		}
	}
	if ValidLevel("bogus") {
		t.Error("ValidLevel(bogus) = true")
	}
}

func TestJSONLoggerFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, "warn")
	logger.Info().Msg("hidden")
	logger.Warn().Str("tx", "abc").Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["message"] != "shown" || entry["tx"] != "abc" {
		t.Errorf("entry = %v", entry)
	}
}

func TestInitComponentLoggers(t *testing.T) {
	var buf bytes.Buffer
	prev := Output
	Output = &buf
	defer func() {
		Output = prev
		Init("info", false, "")
	}()

	file := filepath.Join(t.TempDir(), "vesting.log")
	if err := Init("debug", true, file); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Vesting.Debug().Msg("resolving")

	if !strings.Contains(buf.String(), `"component":"vesting"`) {
		t.Errorf("console output missing component: %q", buf.String())
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "resolving") {
		t.Errorf("log file missing entry: %q", data)
	}
}
