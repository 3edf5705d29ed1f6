package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func newBufLogger(t *testing.T, level, format string) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := New(Config{Level: level, Format: format, Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l, &buf
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parse JSON log %q: %v", buf.String(), err)
	}
	return entry
}

func TestLogger_Levels(t *testing.T) {
	l, buf := newBufLogger(t, "debug", "json")

	tests := []struct {
		level   string
		logFunc func(string, ...any)
	}{
		{"DEBUG", l.Debug},
		{"INFO", l.Info},
		{"WARN", l.Warn},
		{"ERROR", l.Error},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			tt.logFunc("snapshot written", "collection", "gym")

			entry := decodeEntry(t, buf)
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
			if entry["msg"] != "snapshot written" {
				t.Errorf("msg = %v", entry["msg"])
			}
			if entry["collection"] != "gym" {
				t.Errorf("collection = %v", entry["collection"])
			}
		})
	}
}

func TestLogger_FiltersBelowLevel(t *testing.T) {
	l, buf := newBufLogger(t, "warn", "json")

	l.Info("hidden")
	l.Debug("hidden")
	if buf.Len() > 0 {
		t.Fatalf("entries below warn were written: %q", buf.String())
	}
	l.Warn("shown")
	if buf.Len() == 0 {
		t.Error("warn entry was dropped")
	}
}

func TestLogger_LevelsAreIndependent(t *testing.T) {
	quiet, quietBuf := newBufLogger(t, "error", "json")
	loud, loudBuf := newBufLogger(t, "debug", "json")

	quiet.Info("hidden")
	loud.Debug("shown")
	if quietBuf.Len() > 0 {
		t.Error("a second logger changed the level of the first")
	}
	if loudBuf.Len() == 0 {
		t.Error("debug logger dropped a debug entry")
	}
}

func TestLogger_With(t *testing.T) {
	l, buf := newBufLogger(t, "info", "json")

	l.With("component", "engine").Info("opened")

	if got := decodeEntry(t, buf)["component"]; got != "engine" {
		t.Errorf("component = %v, want engine", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_RejectsUnknownSettings(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("unknown level accepted")
	}
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestLogger_TextFormat(t *testing.T) {
	l, buf := newBufLogger(t, "info", "text")

	l.Info("persisted", "snapshot", "20250101_120000.000000-0001")

	out := buf.String()
	if !strings.Contains(out, "persisted") || !strings.Contains(out, "snapshot=20250101_120000.000000-0001") {
		t.Errorf("text output = %q", out)
	}
}

func TestLogger_ClipsLongValues(t *testing.T) {
	l, buf := newBufLogger(t, "info", "json")

	l.Info("record", "value", strings.Repeat("x", MaxValueRunes+50))

	got, _ := decodeEntry(t, buf)["value"].(string)
	if !strings.HasSuffix(got, clippedSuffix) {
		t.Fatalf("value not clipped: %d bytes", len(got))
	}
	if len(got) != MaxValueRunes+len(clippedSuffix) {
		t.Errorf("clipped length = %d", len(got))
	}
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Error("dropped")
	l.With("k", "v").Info("dropped")
}

func TestSetDefault(t *testing.T) {
	l, buf := newBufLogger(t, "debug", "json")
	prev := Default()
	SetDefault(l)
	defer SetDefault(prev)

	Default().Debug("message")
	if buf.Len() == 0 {
		t.Error("Default() did not return the logger set by SetDefault")
	}
}
