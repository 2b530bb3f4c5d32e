package logger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	// Development encoder
	if err := Init(WithEnv("dev")); err != nil {
		t.Fatalf("failed to initialize development logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	// Production encoder
	if err := Init(WithEnv("prod")); err != nil {
		t.Fatalf("failed to initialize production logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerWritesToConfiguredPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	if err := Init(WithOutputPaths(path)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	Get().Info(ctx, "snapshot applied", String("k", "v"), Int("events", 3), Error(errors.New("boom")))
	if err := Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected log output")
	}
	for _, want := range []string{"snapshot applied", `"k":"v"`, `"events":3`, "boom"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log output %q missing %q", data, want)
		}
	}
}

func TestLoggerNamed(t *testing.T) {
	if err := Init(WithOutputPaths(filepath.Join(t.TempDir(), "named.log"))); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	namedLogger := Named("test")
	if namedLogger == nil {
		t.Fatal("named logger is nil")
	}
	namedLogger.Info(context.Background(), "test message")
}

func TestSetLevelString(t *testing.T) {
	cases := map[string]string{
		"debug":   "debug",
		"INFO":    "info",
		"":        "info",
		"warning": "warn",
		"error":   "error",
	}
	for in, want := range cases {
		if err := SetLevelString(in); err != nil {
			t.Fatalf("SetLevelString(%q): %v", in, err)
		}
		if got := Level(); got != want {
			t.Errorf("SetLevelString(%q) level = %q, want %q", in, got, want)
		}
	}
	if err := SetLevelString("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
	_ = SetLevelString("info")
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info(context.Background(), "discarded")
	l.Named("x").Warn(context.Background(), "discarded")
}
