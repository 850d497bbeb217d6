package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func validConfig() Config {
	cfg := Default()
	cfg.Crypto.Key = testKey
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http", cfg.Transport.Mode)
	assert.Equal(t, 10*time.Second, cfg.Liveness.Interval)
	assert.Equal(t, 30*time.Second, cfg.Liveness.Threshold)
	assert.True(t, cfg.Cache.Enabled)
}

func TestValidate(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	cases := map[string]func(*Config){
		"zero port":          func(c *Config) { c.Server.Port = 0 },
		"empty host":         func(c *Config) { c.Server.Host = "" },
		"empty db path":      func(c *Config) { c.DB.Path = "" },
		"bad log level":      func(c *Config) { c.Log.Level = "verbose" },
		"bad transport":      func(c *Config) { c.Transport.Mode = "grpc" },
		"no crypto":          func(c *Config) { c.Crypto.Key = "" },
		"short key":          func(c *Config) { c.Crypto.Key = "abcd" },
		"sub-second sweep":   func(c *Config) { c.Liveness.Interval = 100 * time.Millisecond },
		"zero threshold":     func(c *Config) { c.Liveness.Threshold = 0 },
		"stdio without user": func(c *Config) { c.Transport.Mode = "stdio" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := validConfig()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestValidate_Passphrase(t *testing.T) {
	cfg := Default()
	cfg.Crypto.Passphrase = "correct horse battery staple"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  host: 127.0.0.1
  port: 9090
db:
  path: /tmp/pulse.db
crypto:
  passphrase: from-file
liveness:
  interval: 15s
  threshold: 45s
cache:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("CODEPULSE_CONFIG_PATH", path)
	t.Setenv("CODEPULSE_SERVER_PORT", "9191")
	t.Setenv("CODEPULSE_LOG_LEVEL", "debug")
	t.Setenv("CODEPULSE_LIVENESS_THRESHOLD", "1m")
	t.Setenv("CODEPULSE_METRICS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "/tmp/pulse.db", cfg.DB.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "from-file", cfg.Crypto.Passphrase)
	assert.Equal(t, 15*time.Second, cfg.Liveness.Interval)
	assert.Equal(t, time.Minute, cfg.Liveness.Threshold)
	assert.False(t, cfg.Cache.Enabled)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("CODEPULSE_CRYPTO_KEY", testKey)
	t.Setenv("CODEPULSE_SERVER_PORT", "eighty")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CODEPULSE_SERVER_PORT")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CODEPULSE_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	require.Error(t, err)
}
