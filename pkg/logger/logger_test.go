package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/journeylab-dev/journey-runner/pkg/config"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	log, err := New(&Config{Level: "info", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log.Info("journey started")
	log.Debug("suppressed at info level")
	if err := log.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "journey started") {
		t.Errorf("expected info entry in log file, got: %s", out)
	}
	if strings.Contains(out, "suppressed at info level") {
		t.Errorf("debug entry should be filtered at info level, got: %s", out)
	}
	if !strings.Contains(out, `"level":"info"`) {
		t.Errorf("expected json encoding, got: %s", out)
	}
}

func TestNewRejectsUnwritableFile(t *testing.T) {
	_, err := New(&Config{Level: "info", Format: "json", Output: "/nonexistent/dir/run.log"})
	if err == nil {
		t.Error("expected error for unwritable output path")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"ERROR", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.expected {
			t.Errorf("parseLevel(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func TestFromSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	log, err := FromSettings(config.LogSettings{Level: "debug", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log.Debug("visible at debug level")
	if err := log.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "visible at debug level") {
		t.Errorf("expected debug entry, got: %s", string(data))
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stdout" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if _, err := New(cfg); err != nil {
		t.Fatalf("default config should build: %v", err)
	}
}
