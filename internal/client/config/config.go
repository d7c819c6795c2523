// Package config handles configuration for the student app, layering
// defaults, environment variables, an optional JSON file, and command-line
// flags (later sources win).
package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the student app.
//
// Fields:
//   - Endpoint: URL of the content-index GraphQL endpoint.
//   - APIKey: x-api-key value for content-index queries.
//   - UserID / DeviceID: identity used in manifests and attempt reports.
//   - BasePath: root of the local data directory (quiz cache, stats).
//   - Subject: default subject filter for sync ("All" = no filter).
type Config struct {
	Endpoint string
	APIKey   string
	UserID   string
	DeviceID string
	BasePath string
	Subject  string

	ManifestTimeout time.Duration
	DownloadTimeout time.Duration
}

// LoadDefaults populates c with defaults, honoring the environment
// variables the deployment scripts set.
func (c *Config) LoadDefaults() {
	c.Endpoint = os.Getenv("STUDAXIS_ENDPOINT")
	c.APIKey = os.Getenv("STUDAXIS_API_KEY")
	c.UserID = "anonymous"
	c.DeviceID = "unknown"
	c.BasePath = "."
	c.Subject = "All"
	c.ManifestTimeout = 15 * time.Second
	c.DownloadTimeout = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present).
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
