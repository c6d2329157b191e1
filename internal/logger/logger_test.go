package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLoggerFormats(t *testing.T) {
	t.Parallel()

	var jsonBuf bytes.Buffer
	newLogger(&jsonBuf, "info", true).Info("hello", "chat_id", 42)
	var entry map[string]any
	if err := json.Unmarshal(jsonBuf.Bytes(), &entry); err != nil {
		t.Fatalf("JSON output did not parse: %v (%q)", err, jsonBuf.String())
	}
	if entry["msg"] != "hello" || entry["chat_id"] != float64(42) {
		t.Errorf("unexpected JSON entry: %v", entry)
	}

	var textBuf bytes.Buffer
	l := newLogger(&textBuf, "warn", false)
	l.Info("suppressed")
	l.Warn("shown")
	out := textBuf.String()
	if strings.Contains(out, "suppressed") || !strings.Contains(out, "msg=shown") {
		t.Errorf("unexpected text output: %q", out)
	}
	if l.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("warn logger reports info as enabled")
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{in: "short", max: 10, want: "short"},
		{in: "exactly ten", max: 11, want: "exactly ten"},
		{in: "this is far too long", max: 10, want: "this is..."},
		{in: "héllo wörld", max: 8, want: "héllo..."},
		{in: "abc", max: 2, want: "..."},
	}
	for _, tc := range tests {
		if got := truncateString(tc.in, tc.max); got != tc.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}
