package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("WSRELAY_LISTEN_ADDR", ":9999")
	t.Setenv("WSRELAY_TCP_LISTEN_ADDR", ":9998")
	t.Setenv("WSRELAY_WRITE_TIMEOUT", "250ms")
	t.Setenv("WSRELAY_RATE_LIMIT_BURST", "5")
	t.Setenv("WSRELAY_LOG_FORMAT", "json")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, ":9998", cfg.TCPListenAddr)
	assert.Equal(t, 250*time.Millisecond, cfg.WriteTimeout)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Equal(t, "json", cfg.Log.Format)

	// Untouched keys keep their defaults.
	assert.Equal(t, Default().SendBuffer, cfg.SendBuffer)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wsrelay.yaml")
	body := `
listen_addr: ":7777"
allowed_origins:
  - "https://example.com"
  - "https://app.example.com"
max_message_size: 4096
rate_limit:
  burst: 3
  refill_interval: 2s
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.ListenAddr)
	assert.Equal(t, []string{"https://example.com", "https://app.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(4096), cfg.MaxMessageSize)
	assert.Equal(t, 3, cfg.RateLimit.Burst)
	assert.Equal(t, 2*time.Second, cfg.RateLimit.RefillInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wsrelay.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":7777\"\n"), 0o644))
	t.Setenv("WSRELAY_LISTEN_ADDR", ":6666")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":6666", cfg.ListenAddr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wsrelay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":: not yaml ::"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestSanitizeClampsBadValues(t *testing.T) {
	cfg := &Config{
		MaxMessageSize: -1,
		SendBuffer:     0,
		WriteTimeout:   -time.Second,
		PingInterval:   time.Minute,
		PongWait:       time.Second, // shorter than the ping interval
		RateLimit:      RateLimitConfig{Burst: 10, RefillInterval: 0},
	}
	cfg.sanitize()

	def := Default()
	assert.Equal(t, def.ListenAddr, cfg.ListenAddr)
	assert.Equal(t, def.MaxMessageSize, cfg.MaxMessageSize)
	assert.Equal(t, def.SendBuffer, cfg.SendBuffer)
	assert.Equal(t, def.WriteTimeout, cfg.WriteTimeout)
	assert.Greater(t, cfg.PongWait, cfg.PingInterval)
	assert.Equal(t, def.RateLimit.RefillInterval, cfg.RateLimit.RefillInterval)
	assert.Equal(t, def.Log.Level, cfg.Log.Level)
}

func TestSanitizeDisablesNegativeBurst(t *testing.T) {
	cfg := &Config{RateLimit: RateLimitConfig{Burst: -3}}
	cfg.sanitize()
	assert.Zero(t, cfg.RateLimit.Burst)
}
