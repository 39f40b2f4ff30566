// ABOUTME: Application configuration loading
// ABOUTME: YAML file config with defaults and validation
package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Playback PlaybackConfig `yaml:"playback"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PlaybackConfig controls the audio pipeline.
type PlaybackConfig struct {
	Backend      string `yaml:"backend"`       // "", "malgo", "oto", "portaudio"
	Device       int    `yaml:"device"`        // -1 selects the default device
	PeriodFrames int    `yaml:"period_frames"` // hardware period size
	SampleRate   int    `yaml:"sample_rate"`   // 0 uses the stream's native rate
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
	File  string `yaml:"file"`  // "" logs to stderr
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Playback: PlaybackConfig{
			Device:       -1,
			PeriodFrames: 256,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file, layered over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not parse config file %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Playback.Validate(); err != nil {
		return fmt.Errorf("playback: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

func (p *PlaybackConfig) Validate() error {
	switch p.Backend {
	case "", "malgo", "oto", "portaudio":
	default:
		return fmt.Errorf("unknown backend %q", p.Backend)
	}
	if p.Device < -1 {
		return fmt.Errorf("invalid device index %d", p.Device)
	}
	if p.PeriodFrames <= 0 {
		return fmt.Errorf("period_frames must be positive, got %d", p.PeriodFrames)
	}
	if p.SampleRate < 0 {
		return fmt.Errorf("sample_rate must not be negative, got %d", p.SampleRate)
	}
	return nil
}

func (l *LoggingConfig) Validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("unknown log level %q", l.Level)
}

// SlogLevel maps the configured level string to a slog level.
func (l *LoggingConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
