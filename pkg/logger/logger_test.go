package logger

import (
	"testing"

	"acadef/backend/config"
)

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := NewLogger(&config.LogConfig{Level: "debug", Format: format})
		if err != nil {
			t.Fatalf("format %s: unexpected error: %v", format, err)
		}
		l.Debug("hello")
	}
}

func TestNewLogger_BadLevel(t *testing.T) {
	if _, err := NewLogger(&config.LogConfig{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}
