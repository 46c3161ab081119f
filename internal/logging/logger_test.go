package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestInitializeSilent(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("silent logger should not be enabled at any level")
	}
}

func TestInitializeFromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "warn")
	if err := InitializeFromEnv(); err != nil {
		t.Fatalf("InitializeFromEnv() error = %v", err)
	}
	defer Initialize("")

	if GetLogger().Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !GetLogger().Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should be enabled at warn level")
	}
}

func TestInitializeWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whoomp.log")

	err := InitializeWithOptions(Options{Level: "debug", File: path, Stderr: true})
	if err != nil {
		t.Fatalf("InitializeWithOptions() error = %v", err)
	}
	defer Initialize("")

	LogFrame("test", "from_strap", []byte{0xAA, 0x08, 0x00})
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "aa0800") {
		t.Errorf("log file missing hex dump: %s", data)
	}
}

func TestDumps(t *testing.T) {
	if got := hexDump([]byte{0xDE, 0xAD}); got != "dead" {
		t.Errorf("hexDump() = %q, want dead", got)
	}
	if got := hexDump(make([]byte, 300)); !strings.HasSuffix(got, "...") || len(got) != 515 {
		t.Errorf("hexDump(300 bytes) length = %d", len(got))
	}
	if got := asciiDump([]byte("hi\x00")); got != "hi." {
		t.Errorf("asciiDump() = %q, want %q", got, "hi.")
	}
}
