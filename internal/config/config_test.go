package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/karo-systems/karo-logger/internal/message"
)

func TestLoadMissingFileYieldsZeroValueNoError(t *testing.T) {
	d, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *d != (FileDefaults{}) {
		t.Fatalf("expected zero-value defaults, got %+v", d)
	}
}

func TestLoadParsesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := "log_level: debug\nlog_location: /var/log/karo/karo.log\nnum_bytes_rotate: 1048576\nkeep_num_files: 5\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", d.LogLevel)
	}
	if d.LogLocation != "/var/log/karo/karo.log" {
		t.Errorf("LogLocation = %q, want /var/log/karo/karo.log", d.LogLocation)
	}
	if d.NumBytesRotate != 1048576 {
		t.Errorf("NumBytesRotate = %d, want 1048576", d.NumBytesRotate)
	}
	if d.KeepNumFiles != 5 {
		t.Errorf("KeepNumFiles = %d, want 5", d.KeepNumFiles)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log_level: [unterminated"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for malformed YAML, got nil")
	}
}

func TestResolveLevelAcceptsKnownLevels(t *testing.T) {
	l, err := ResolveLevel("warn")
	if err != nil {
		t.Fatalf("ResolveLevel: %v", err)
	}
	if l != message.LevelWarn {
		t.Errorf("ResolveLevel(warn) = %v, want LevelWarn", l)
	}
}

func TestResolveLevelRejectsUnknownLevelWithError(t *testing.T) {
	if _, err := ResolveLevel("verbose"); err == nil {
		t.Fatal("expected an error for an unrecognized level, got nil")
	}
}
