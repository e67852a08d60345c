package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestPrettyHandler_Structural(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: LevelDebug}, false))

	t.Run("WithAttrs", func(t *testing.T) {
		buf.Reset()
		l.With("run_id", "abc-123").Info("panel done", "view", "localize")
		out := buf.String()
		if !strings.Contains(out, "run_id=abc-123") || !strings.Contains(out, "view=localize") {
			t.Errorf("output missing attrs: %q", out)
		}
	})

	t.Run("WithGroup", func(t *testing.T) {
		buf.Reset()
		l.WithGroup("batch").With("total", 3).Info("progress", "done", 1)
		out := buf.String()
		if !strings.Contains(out, "batch.total=3") || !strings.Contains(out, "batch.done=1") {
			t.Errorf("output missing grouped attrs: %q", out)
		}
	})

	t.Run("NestedGroups", func(t *testing.T) {
		buf.Reset()
		l.WithGroup("outer").WithGroup("inner").With("k", "v").Info("msg")
		if out := buf.String(); !strings.Contains(out, "outer.inner.k=v") {
			t.Errorf("output missing nested grouped attr: %q", out)
		}
	})

	t.Run("LevelFilter", func(t *testing.T) {
		buf.Reset()
		quiet := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: LevelWarn}, false))
		quiet.Info("hidden")
		if buf.Len() != 0 {
			t.Errorf("info should be filtered at warn: %q", buf.String())
		}
	})
}

func TestRedactAttr(t *testing.T) {
	tests := []struct {
		name   string
		attr   slog.Attr
		redact bool
	}{
		{name: "api key by name", attr: slog.String("api_key", "sk-1234567890abcdef"), redact: true},
		{name: "bearer in value", attr: slog.String("message", "bearer sk-1234567890abcdef"), redact: true},
		{name: "prompt", attr: slog.String("prompt", "Place the text..."), redact: true},
		{name: "source text", attr: slog.String("source_text", "こんにちは"), redact: true},
		{name: "image b64 by name", attr: slog.String("image_b64", "QUJD"), redact: true},
		{name: "long base64 value", attr: slog.String("data", strings.Repeat("QUJD", 100)), redact: true},
		{name: "path", attr: slog.String("path", "/tmp/page01.png"), redact: false},
		{name: "status", attr: slog.Int("status", 500), redact: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RedactAttr(nil, tt.attr)
			if (got.Value.String() == redacted) != tt.redact {
				t.Fatalf("RedactAttr(%s) = %q, redact=%v", tt.attr.Key, got.Value.String(), tt.redact)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"debug": LevelDebug, "": LevelInfo, "INFO": LevelInfo, "warning": LevelWarn, "error": LevelError}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func withStderr(t *testing.T, w *os.File, tty bool) {
	t.Helper()
	prevTTY, prevStderr := isTerminal, stderr
	isTerminal = func(int) bool { return tty }
	stderr = w
	t.Cleanup(func() {
		isTerminal, stderr = prevTTY, prevStderr
		Init(LevelInfo, nil)
	})
}

func readAll(t *testing.T, r *os.File, w *os.File) string {
	t.Helper()
	w.Close()
	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func TestInit_NoColorWhenNotTTY(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	withStderr(t, w, false)

	Init(LevelInfo, nil)
	Info("test message", "k", "v")

	if out := readAll(t, r, w); strings.Contains(out, "\033[") || !strings.Contains(out, "test message") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestInit_ColorOnTTY(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	withStderr(t, w, true)

	Init(LevelInfo, nil)
	Info("test message")

	if out := readAll(t, r, w); !strings.Contains(out, "\033[") {
		t.Fatalf("expected ANSI codes on a terminal: %q", out)
	}
}

func TestInit_LogFileGetsRedactedJSON(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	withStderr(t, w, true)

	var logBuf bytes.Buffer
	Init(LevelDebug, &logBuf)
	Debug("request", "endpoint", "images/edits", "api_key", "sk-abcdefghijklmnop")

	if out := readAll(t, r, w); strings.Contains(out, "\033[") {
		t.Fatalf("console must not be colored when a log file is set: %q", out)
	}
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(logBuf.Bytes()), &rec); err != nil {
		t.Fatalf("log file is not JSONL: %v (%q)", err, logBuf.String())
	}
	if rec["endpoint"] != "images/edits" || rec["api_key"] != redacted {
		t.Fatalf("unexpected record: %v", rec)
	}
}
