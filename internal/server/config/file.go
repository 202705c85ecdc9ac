package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/studymatch/internal/flagx"
	"github.com/dmitrijs2005/studymatch/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Durations accept
// "1h"-style strings or integer nanoseconds. Zero values leave the
// corresponding Config field untouched.
type FileConfig struct {
	HTTPAddr              string         `json:"http_addr" yaml:"http_addr"`
	DatabaseDSN           string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey             string         `json:"secret_key" yaml:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration" yaml:"token_validity_duration"`
	LoginRateLimit        int            `json:"login_rate_limit" yaml:"login_rate_limit"`
	LoginRateWindow       timex.Duration `json:"login_rate_window" yaml:"login_rate_window"`
	TrustedProxies        []string       `json:"trusted_proxies" yaml:"trusted_proxies"`
	SecureCookies         *bool          `json:"secure_cookies" yaml:"secure_cookies"`
	StoreTimeout          timex.Duration `json:"store_timeout" yaml:"store_timeout"`
	AllowedOrigins        []string       `json:"allowed_origins" yaml:"allowed_origins"`
	S3RootUser            string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region              string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	ImageURLValidity      timex.Duration `json:"image_url_validity" yaml:"image_url_validity"`
}

// parseFile overlays values from the file named by -c/-config. Files ending
// in .yaml or .yml are decoded as YAML, everything else as JSON. A missing
// flag is a no-op; an unreadable or malformed file panics, matching the
// behaviour of flag parsing.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(config)
}

func (fc *FileConfig) apply(config *Config) {
	setString(&config.HTTPAddr, fc.HTTPAddr)
	setString(&config.DatabaseDSN, fc.DatabaseDSN)
	setString(&config.SecretKey, fc.SecretKey)
	setString(&config.S3RootUser, fc.S3RootUser)
	setString(&config.S3RootPassword, fc.S3RootPassword)
	setString(&config.S3Bucket, fc.S3Bucket)
	setString(&config.S3Region, fc.S3Region)
	setString(&config.S3BaseEndpoint, fc.S3BaseEndpoint)

	if fc.TokenValidityDuration.Duration > 0 {
		config.TokenValidityDuration = fc.TokenValidityDuration.Duration
	}
	if fc.LoginRateLimit > 0 {
		config.LoginRateLimit = fc.LoginRateLimit
	}
	if fc.LoginRateWindow.Duration > 0 {
		config.LoginRateWindow = fc.LoginRateWindow.Duration
	}
	if fc.StoreTimeout.Duration > 0 {
		config.StoreTimeout = fc.StoreTimeout.Duration
	}
	if fc.ImageURLValidity.Duration > 0 {
		config.ImageURLValidity = fc.ImageURLValidity.Duration
	}
	if fc.TrustedProxies != nil {
		config.TrustedProxies = fc.TrustedProxies
	}
	if fc.AllowedOrigins != nil {
		config.AllowedOrigins = fc.AllowedOrigins
	}
	if fc.SecureCookies != nil {
		config.SecureCookies = *fc.SecureCookies
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
