package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	if err != nil {
		t.Fatalf("parse level: %v", err)
	}
	if lvl != zapcore.DebugLevel {
		t.Fatalf("expected debug, got %s", lvl)
	}

	if lvl, err := ParseLevel(""); err != nil || lvl != zapcore.InfoLevel {
		t.Fatalf("expected info default, got %s (%v)", lvl, err)
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "botgate.log")

	log, err := New("info", path)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	log.Info("entity detected")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "entity detected") {
		t.Fatalf("expected record in log file, got %q", string(data))
	}
}
