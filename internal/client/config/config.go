package config

import "time"

// Config holds runtime settings for the studymatch CLI.
//
// Fields:
//   - ServerURL: base URL of the HTTP API; the WebSocket endpoint is derived from it.
//   - RequestTimeout: upper bound for a single API call.
//   - CachePath: SQLite file holding the local message cache.
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
	CachePath      string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 10 * time.Second
	c.CachePath = "studymatch.db"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present).
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
