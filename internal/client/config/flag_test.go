package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd", "-a", "http://chat.local:9090", "-r", "3", "-f", "/tmp/c.db"},
			expected: &Config{ServerURL: "http://chat.local:9090", RequestTimeout: 3 * time.Second, CachePath: "/tmp/c.db"}},
		{name: "foreign flags ignored", args: []string{"cmd", "-d", "dsn", "-a", "http://x"},
			expected: &Config{ServerURL: "http://x"}},
		{name: "bad timeout", args: []string{"cmd", "-r", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
