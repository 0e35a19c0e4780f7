// Package config handles configuration for the CLI component, including
// defaults, JSON overlay, and command-line flags.
package config

import (
	"os"
	"path/filepath"
)

// Config holds runtime settings for the Open Mool CLI.
//
// Fields:
//   - ServerBaseURL: base URL of the upload API (e.g., "http://127.0.0.1:8080").
//   - Token: bearer token for the API; prompted for interactively when empty.
//   - StateDir: directory holding the persisted upload session state.
type Config struct {
	ServerBaseURL string
	Token         string
	StateDir      string
}

// LoadDefaults populates c with sensible defaults. Session state lives
// under the user config directory when one is available.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080"
	c.StateDir = defaultStateDir()
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "openmool")
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
