// ABOUTME: Tests for configuration loading
// ABOUTME: Covers defaults, YAML layering and validation
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Playback.PeriodFrames != 256 {
		t.Errorf("PeriodFrames = %d, want 256", cfg.Playback.PeriodFrames)
	}
	if cfg.Playback.Device != -1 {
		t.Errorf("Device = %d, want -1", cfg.Playback.Device)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
playback:
  backend: oto
  sample_rate: 48000
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Playback.Backend != "oto" {
		t.Errorf("Backend = %q, want oto", cfg.Playback.Backend)
	}
	if cfg.Playback.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want 48000", cfg.Playback.SampleRate)
	}
	// Unset keys keep their defaults.
	if cfg.Playback.PeriodFrames != 256 {
		t.Errorf("PeriodFrames = %d, want default 256", cfg.Playback.PeriodFrames)
	}
	if cfg.Logging.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel = %v, want debug", cfg.Logging.SlogLevel())
	}
}

func TestLoadRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown backend", "playback:\n  backend: pulse\n"},
		{"zero period", "playback:\n  period_frames: -1\n"},
		{"bad level", "logging:\n  level: loud\n"},
		{"not yaml", "{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load accepted an invalid config")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load succeeded on a missing file")
	}
}
