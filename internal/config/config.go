// ABOUTME: Optional JSON configuration with defaults for device tests.
// ABOUTME: CLI flags override anything loaded from the file.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the audioprobe configuration file.
type Config struct {
	Defaults TestDefaults `json:"defaults"`
	Output   OutputConfig `json:"output"`
}

// TestDefaults holds the parameters applied when a test flag or menu prompt
// leaves a value unset.
type TestDefaults struct {
	DurationSeconds float64 `json:"durationSeconds"` // default 2.0
	FrequencyHz     float64 `json:"frequencyHz"`     // default 1000.0
	Amplitude       float64 `json:"amplitude"`       // 0..1, default 0.2
	SampleRate      float64 `json:"sampleRate"`      // fallback rate when a device reports none
	EchoGain        float64 `json:"echoGain"`        // gain for playing back a capture, default 0.8
}

// OutputConfig holds listing and capture settings.
type OutputConfig struct {
	Sort           string `json:"sort"` // index, name, in, out
	ShowSampleRate bool   `json:"showSampleRate"`
	JSON           bool   `json:"json"`
	CaptureDir     string `json:"captureDir"` // empty disables capture export
}

// DefaultConfig returns a config with the built-in test defaults.
func DefaultConfig() *Config {
	return &Config{
		Defaults: TestDefaults{
			DurationSeconds: 2.0,
			FrequencyHz:     1000.0,
			Amplitude:       0.2,
			SampleRate:      44100,
			EchoGain:        0.8,
		},
		Output: OutputConfig{
			Sort: "index",
		},
	}
}

// DefaultPath returns the conventional config location under the user's
// config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "audioprobe", "config.json")
}

// Load loads configuration from a file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills in zero-valued fields with built-in defaults.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.Defaults.DurationSeconds == 0 {
		c.Defaults.DurationSeconds = d.Defaults.DurationSeconds
	}
	if c.Defaults.FrequencyHz == 0 {
		c.Defaults.FrequencyHz = d.Defaults.FrequencyHz
	}
	if c.Defaults.Amplitude == 0 {
		c.Defaults.Amplitude = d.Defaults.Amplitude
	}
	if c.Defaults.SampleRate == 0 {
		c.Defaults.SampleRate = d.Defaults.SampleRate
	}
	if c.Defaults.EchoGain == 0 {
		c.Defaults.EchoGain = d.Defaults.EchoGain
	}
	if c.Output.Sort == "" {
		c.Output.Sort = d.Output.Sort
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Defaults.DurationSeconds < 0 {
		return fmt.Errorf("durationSeconds must be >= 0 (got %.2f)", c.Defaults.DurationSeconds)
	}
	if c.Defaults.Amplitude < 0 || c.Defaults.Amplitude > 1 {
		return fmt.Errorf("amplitude must be between 0.0 and 1.0 (got %.2f)", c.Defaults.Amplitude)
	}
	if c.Defaults.FrequencyHz < 0 {
		return fmt.Errorf("frequencyHz must be >= 0 (got %.2f)", c.Defaults.FrequencyHz)
	}
	if c.Defaults.EchoGain < 0 || c.Defaults.EchoGain > 1 {
		return fmt.Errorf("echoGain must be between 0.0 and 1.0 (got %.2f)", c.Defaults.EchoGain)
	}
	validSorts := map[string]bool{"index": true, "name": true, "in": true, "out": true}
	if !validSorts[c.Output.Sort] {
		return fmt.Errorf("invalid sort mode: %s (must be one of: index, name, in, out)", c.Output.Sort)
	}
	return nil
}
