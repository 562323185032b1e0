package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  slog.LevelInfo,
		Format: FormatJSON,
		Output: &buf,
	})

	logger.Warn("skipping subtree", "path", `HKEY_LOCAL_MACHINE\SAM`)

	output := buf.String()
	if output == "" {
		t.Fatal("expected output, got empty string")
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(output), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput: %s", err, output)
	}

	if _, ok := parsed["msg"]; !ok {
		t.Errorf("JSON output missing 'msg' field: %s", output)
	}
	if parsed["path"] != `HKEY_LOCAL_MACHINE\SAM` {
		t.Errorf("JSON output missing path attribute: got %v", parsed["path"])
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  slog.LevelInfo,
		Format: FormatText,
		Output: &buf,
	})

	logger.Info("scan started", "pattern", "bitlocker")

	output := buf.String()
	if output == "" {
		t.Fatal("expected output, got empty string")
	}
	if !strings.Contains(output, "scan started") {
		t.Errorf("output missing message: %s", output)
	}
	if !strings.Contains(output, "pattern=bitlocker") {
		t.Errorf("output missing pattern attribute: %s", output)
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  slog.LevelWarn,
		Format: FormatText,
		Output: &buf,
	})

	logger.Info("should be discarded")
	logger.Warn("should appear")

	output := buf.String()
	if strings.Contains(output, "discarded") {
		t.Errorf("info message should be filtered at warn level: %s", output)
	}
	if !strings.Contains(output, "should appear") {
		t.Errorf("warn message missing: %s", output)
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		want      slog.Level
	}{
		{0, slog.LevelWarn},
		{1, slog.LevelInfo},
		{2, slog.LevelDebug},
		{5, slog.LevelDebug},
	}

	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.verbosity); got != tt.want {
			t.Errorf("LevelFromVerbosity(%d) = %v, want %v", tt.verbosity, got, tt.want)
		}
	}
}

func TestNewDiscard(t *testing.T) {
	logger := NewDiscard()
	// Must not panic and must swallow everything.
	logger.Error("nobody sees this")
}

func TestFromContext_Default(t *testing.T) {
	logger := FromContext(t.Context())
	if logger == nil {
		t.Fatal("FromContext should never return nil")
	}
}

func TestNewContext_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Output: &buf})

	ctx := NewContext(t.Context(), logger)
	got := FromContext(ctx)

	got.Info("via context")
	if !strings.Contains(buf.String(), "via context") {
		t.Errorf("context logger should write to the original buffer: %q", buf.String())
	}
}
