package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func Test_parseFile(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("json overlay", func(t *testing.T) {
		b, err := json.Marshal(map[string]any{
			"http_addr":               "www.example:9000",
			"database_dsn":            "postgres://x",
			"secret_key":              "my_secret_key",
			"token_validity_duration": "30m",
			"login_rate_limit":        10,
			"login_rate_window":       "2m",
			"trusted_proxies":         []string{"10.0.0.1"},
			"secure_cookies":          true,
			"store_timeout":           3000000000,
			"s3_bucket":               "bucket",
		})
		require.NoError(t, err)
		os.Args = []string{"testbin", "-config", writeTemp(t, "cfg.json", b)}

		var cfg Config
		cfg.LoadDefaults()
		parseFile(&cfg)

		assert.Equal(t, "www.example:9000", cfg.HTTPAddr)
		assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 30*time.Minute, cfg.TokenValidityDuration)
		assert.Equal(t, 10, cfg.LoginRateLimit)
		assert.Equal(t, 2*time.Minute, cfg.LoginRateWindow)
		assert.Equal(t, []string{"10.0.0.1"}, cfg.TrustedProxies)
		assert.True(t, cfg.SecureCookies)
		assert.Equal(t, 3*time.Second, cfg.StoreTimeout)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		// untouched
		assert.Equal(t, "us-east-1", cfg.S3Region)
		assert.Equal(t, 15*time.Minute, cfg.ImageURLValidity)
	})

	t.Run("yaml overlay", func(t *testing.T) {
		yml := []byte("http_addr: \":7000\"\nsecret_key: yaml-secret\nlogin_rate_window: 90s\nallowed_origins:\n  - https://app.example\n")
		os.Args = []string{"testbin", "-c", writeTemp(t, "cfg.yaml", yml)}

		var cfg Config
		cfg.LoadDefaults()
		parseFile(&cfg)

		assert.Equal(t, ":7000", cfg.HTTPAddr)
		assert.Equal(t, "yaml-secret", cfg.SecretKey)
		assert.Equal(t, 90*time.Second, cfg.LoginRateWindow)
		assert.Equal(t, []string{"https://app.example"}, cfg.AllowedOrigins)
		assert.Equal(t, time.Hour, cfg.TokenValidityDuration)
	})

	t.Run("no flag leaves config unchanged", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := Config{HTTPAddr: "defaults:1234", SecretKey: "key"}
		parseFile(&cfg)

		assert.Equal(t, Config{HTTPAddr: "defaults:1234", SecretKey: "key"}, cfg)
	})

	t.Run("invalid json panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", writeTemp(t, "bad.json", []byte(`{ nope`))}
		require.Panics(t, func() { parseFile(&Config{}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(t.TempDir(), "absent.yaml")}
		require.Panics(t, func() { parseFile(&Config{}) })
	})
}
