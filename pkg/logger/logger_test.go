package logger

import (
	"log/slog"
	"testing"
)

func TestInit_ValidLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			if err := Init(level); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if Get() == nil {
				t.Fatal("Get() returned nil")
			}
		})
	}
}

func TestInit_InvalidLevel(t *testing.T) {
	if err := Init("invalid"); err == nil {
		t.Error("expected error for invalid log level, got nil")
	}
}

func TestGet_BeforeInit(t *testing.T) {
	globalLogger = nil

	got := Get()
	if got != slog.Default() {
		t.Error("Get() should return slog.Default() before Init")
	}
}

func TestGet_AfterInit(t *testing.T) {
	if err := Init("info"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Get() != globalLogger {
		t.Error("Get() should return the initialized logger")
	}
}

func TestDiscard(t *testing.T) {
	Discard()
	if Get() == nil {
		t.Fatal("Get() returned nil after Discard")
	}
}
