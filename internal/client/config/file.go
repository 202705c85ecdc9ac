package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/studymatch/internal/flagx"
	"github.com/dmitrijs2005/studymatch/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// accept "10s"-style strings or integer nanoseconds.
type JsonConfig struct {
	ServerURL      string         `json:"server_url"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	CachePath      string         `json:"cache_path"`
}

// parseJson overlays cfg with values from the file named by -c/-config.
// Empty fields in the file leave cfg untouched. Read or decode errors panic.
func parseJson(cfg *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.CachePath != "" {
		cfg.CachePath = jc.CachePath
	}
}
