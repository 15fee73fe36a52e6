package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	// Test development mode
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize development logger: %v", err)
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

	// Test production mode
	err = Init()
	if err != nil {
		t.Fatalf("failed to initialize production logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	logger = Get()
	if logger == nil {
		t.Fatal("logger is nil after initialization")
	}
}

// Basic logging test (slog-backed; no Sugar)
func TestLoggerBasic(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	logger := Get()
	if logger == nil {
		t.Fatal("logger is nil")
	}

	ctx := context.Background()
	logger.Info(ctx, "test message", String("k", "v"))
}

func TestLoggerNamed(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	namedLogger := Named("test")
	if namedLogger == nil {
		t.Fatal("named logger is nil")
	}

	ctx := context.Background()
	namedLogger.Info(ctx, "test message")
}

func TestSetLevelString(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	for _, lvl := range []string{"debug", "INFO", " warn ", "warning", "error", ""} {
		if err := SetLevelString(lvl); err != nil {
			t.Errorf("expected %q to be accepted, got %v", lvl, err)
		}
	}
	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected unknown level to be rejected")
	}
	_ = SetLevelString("info")
}

func TestInitWithHandler(t *testing.T) {
	var buf bytes.Buffer
	h := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: Level()})
	if err := InitWithHandler(h); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = Init() }()

	Named("kiosk").Info(context.Background(), "punch accepted",
		String("employee_id", "123456789"),
		Bool("durable", true),
		Time("at", time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)),
	)

	out := buf.String()
	for _, want := range []string{`"msg":"punch accepted"`, `"employee_id":"123456789"`, `"durable":true`, `"kiosk"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log output to contain %s, got %s", want, out)
		}
	}
	if Slog() == nil {
		t.Error("expected slog logger to be exposed")
	}
}

func TestLoggerSource(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: Level()})); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = Init() }()

	Named("session").Warn(context.Background(), "idle logout", String("employee_id", "123456789"))
	if !strings.Contains(buf.String(), `"source":"logger_test.go:`) {
		t.Errorf("expected the call site in the source attribute, got %s", buf.String())
	}

	buf.Reset()
	Get().Debug(context.Background(), "refresh skipped")
	if buf.Len() != 0 {
		t.Errorf("expected debug to be dropped at info level, got %s", buf.String())
	}
}
