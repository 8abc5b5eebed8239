package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInit(t *testing.T) {
	tests := []struct {
		name      string
		logFile   string
		level     string
		wantLevel zerolog.Level
	}{
		{"default level", "", "", zerolog.InfoLevel},
		{"debug level", "", "debug", zerolog.DebugLevel},
		{"info level", "", "info", zerolog.InfoLevel},
		{"warn level", "", "warn", zerolog.WarnLevel},
		{"error level", "", "error", zerolog.ErrorLevel},
		{"case insensitive", "", "DEBUG", zerolog.DebugLevel},
		{"unknown falls back to info", "", "verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup, err := Init(tt.logFile, tt.level)
			if err != nil {
				t.Fatalf("Init() failed: %v", err)
			}
			defer cleanup()

			if zerolog.GlobalLevel() != tt.wantLevel {
				t.Errorf("expected level %v, got %v", tt.wantLevel, zerolog.GlobalLevel())
			}
		})
	}
}

func TestInitSplitsErrorsToStderr(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cleanup, err := InitWithWriters(&stdout, &stderr, "", "info")
	if err != nil {
		t.Fatalf("InitWithWriters() failed: %v", err)
	}
	defer cleanup()

	Get().Info().Msg("received response")
	Get().Error().Msg("request failed")

	if !strings.Contains(stdout.String(), "received response") {
		t.Errorf("expected info entry on stdout, got %q", stdout.String())
	}
	if strings.Contains(stdout.String(), "request failed") {
		t.Errorf("error entry leaked to stdout: %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "request failed") {
		t.Errorf("expected error entry on stderr, got %q", stderr.String())
	}
}

func TestInitWithFile(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "nested", "agent.log")

	var stdout, stderr bytes.Buffer
	cleanup, err := InitWithWriters(&stdout, &stderr, logPath, "info")
	if err != nil {
		t.Fatalf("Init() with file failed: %v", err)
	}

	Get().Info().Msg("to file")
	Get().Error().Msg("error to file")
	cleanup()

	b, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file was not created at %s: %v", logPath, err)
	}
	if !strings.Contains(string(b), "to file") || !strings.Contains(string(b), "error to file") {
		t.Errorf("log file missing entries: %q", string(b))
	}
}
