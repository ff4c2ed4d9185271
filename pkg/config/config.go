// Package config handles settings for journey-runner: a YAML settings
// file plus a one-time read of environment overrides. The engine itself
// never consults the environment; timeouts and URLs reach it through
// explicit constructor options.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings represents the workspace configuration (journey-runner.yaml).
type Settings struct {
	// Target journey
	BaseURL string `yaml:"baseURL"` // Base URL journeys start from

	// Wait ceilings
	Timeouts TimeoutSettings `yaml:"timeouts"`

	// Browser session
	Browser BrowserSettings `yaml:"browser"`

	// Logging
	Log LogSettings `yaml:"log"`
}

// TimeoutSettings carries the wait ceilings in milliseconds.
type TimeoutSettings struct {
	SubmitMillis  int `yaml:"submitMillis"`  // Submission confirmation wait
	HeadingMillis int `yaml:"headingMillis"` // Heading visibility wait
	FindMillis    int `yaml:"findMillis"`    // Control resolution wait
}

// BrowserSettings selects and tunes the browser session.
type BrowserSettings struct {
	Headless  bool   `yaml:"headless"`  // Run without a window
	RemoteURL string `yaml:"remoteURL"` // Attach to a running browser instead of launching
	UserAgent string `yaml:"userAgent"`
}

// LogSettings configures the logger.
type LogSettings struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
	Output string `yaml:"output"` // stdout, stderr or a file path
}

// Default returns settings with the documented defaults: a two-minute
// submission ceiling, a one-minute heading ceiling, headless browsing
// and console logging at info.
func Default() *Settings {
	return &Settings{
		Timeouts: TimeoutSettings{
			SubmitMillis:  120_000,
			HeadingMillis: 60_000,
			FindMillis:    10_000,
		},
		Browser: BrowserSettings{Headless: true},
		Log: LogSettings{
			Level:  "info",
			Format: "console",
			Output: "stdout",
		},
	}
}

// Submit returns the submission ceiling as a duration.
func (t TimeoutSettings) Submit() time.Duration {
	return time.Duration(t.SubmitMillis) * time.Millisecond
}

// Heading returns the heading ceiling as a duration.
func (t TimeoutSettings) Heading() time.Duration {
	return time.Duration(t.HeadingMillis) * time.Millisecond
}

// Find returns the control resolution ceiling as a duration.
func (t TimeoutSettings) Find() time.Duration {
	return time.Duration(t.FindMillis) * time.Millisecond
}

// Load loads settings from a file, on top of the defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided settings file
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir looks for journey-runner.yaml or journey-runner.yml in
// the directory. Without either, the defaults are returned.
func LoadFromDir(dir string) (*Settings, error) {
	// Try journey-runner.yaml first
	path := filepath.Join(dir, "journey-runner.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	// Try journey-runner.yml
	path = filepath.Join(dir, "journey-runner.yml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return Default(), nil
}
