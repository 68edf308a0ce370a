package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	logger := Get()
	if logger == nil {
		t.Fatal("logger is nil after initialization")
	}

	logger.Info(context.Background(), "test message", String("k", "v"))
	if !strings.Contains(buf.String(), "test message") || !strings.Contains(buf.String(), "k=v") {
		t.Fatalf("expected record in writer, got %q", buf.String())
	}
}

func TestLoggerInitRejectsUnknownFormat(t *testing.T) {
	if err := Init(WithFormat("xml")); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf), WithFormat(FormatJSON)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Get().Warn(context.Background(), "json message", Int("n", 3), Error(errors.New("boom")))
	out := buf.String()
	if !strings.Contains(out, `"msg":"json message"`) || !strings.Contains(out, `"error":"boom"`) {
		t.Fatalf("unexpected json output %q", out)
	}
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Get().Debug(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug record written at info level: %q", buf.String())
	}

	if err := SetLevelString("debug"); err != nil {
		t.Fatalf("set level: %v", err)
	}
	Get().Debug(context.Background(), "visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("debug record missing: %q", buf.String())
	}

	if err := SetLevelString("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestLoggerNamedAndWith(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, FormatText, slog.LevelInfo)

	l.Named("lifecycle").With(String("run_id", "abc")).Info(context.Background(), "decided")
	out := buf.String()
	if !strings.Contains(out, "component=lifecycle") || !strings.Contains(out, "run_id=abc") {
		t.Fatalf("expected component and run_id, got %q", out)
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info(context.Background(), "dropped")
	if l.Named("x").With(String("a", "b")) == nil {
		t.Fatal("nop logger must stay usable")
	}
}
