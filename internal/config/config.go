// Package config loads and validates the relay's runtime configuration.
//
// Values are resolved from three sources with clear precedence: built-in
// defaults (lowest), an optional YAML config file, and WSRELAY_* environment
// variables (highest). Nested keys map to environment variables by joining
// with underscores, e.g. rate_limit.burst becomes WSRELAY_RATE_LIMIT_BURST.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the relay's runtime settings.
type Config struct {
	// ListenAddr is the HTTP/WebSocket bind address.
	ListenAddr string `mapstructure:"listen_addr"`

	// TCPListenAddr is the framed TCP bind address. Empty disables the
	// TCP listener.
	TCPListenAddr string `mapstructure:"tcp_listen_addr"`

	// AllowedOrigins lists browser origins accepted for WebSocket
	// upgrades. "*" allows every origin. Requests without an Origin
	// header (CLIs, native clients) are always accepted.
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// MaxMessageSize caps inbound frame payloads in bytes.
	MaxMessageSize int64 `mapstructure:"max_message_size"`

	// SendBuffer is the per-peer outbound queue length.
	SendBuffer int `mapstructure:"send_buffer"`

	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	PongWait        time.Duration `mapstructure:"pong_wait"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

// RateLimitConfig defines per-peer inbound throttling. A Burst of zero
// disables throttling.
type RateLimitConfig struct {
	Burst          int           `mapstructure:"burst"`
	RefillInterval time.Duration `mapstructure:"refill_interval"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
	// Format is text or json.
	Format string `mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr:      ":8080",
		TCPListenAddr:   "",
		AllowedOrigins:  []string{"*"},
		MaxMessageSize:  32 << 10,
		SendBuffer:      256,
		WriteTimeout:    10 * time.Second,
		PingInterval:    54 * time.Second,
		PongWait:        60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		RateLimit: RateLimitConfig{
			Burst:          64,
			RefillInterval: time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load resolves the configuration. path names an explicit config file; when
// empty, wsrelay.yaml in the working directory is used if present.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("WSRELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("wsrelay")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.sanitize()
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("listen_addr", def.ListenAddr)
	v.SetDefault("tcp_listen_addr", def.TCPListenAddr)
	v.SetDefault("allowed_origins", def.AllowedOrigins)
	v.SetDefault("max_message_size", def.MaxMessageSize)
	v.SetDefault("send_buffer", def.SendBuffer)
	v.SetDefault("write_timeout", def.WriteTimeout)
	v.SetDefault("ping_interval", def.PingInterval)
	v.SetDefault("pong_wait", def.PongWait)
	v.SetDefault("shutdown_timeout", def.ShutdownTimeout)
	v.SetDefault("rate_limit.burst", def.RateLimit.Burst)
	v.SetDefault("rate_limit.refill_interval", def.RateLimit.RefillInterval)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
}

// sanitize clamps out-of-range values back to their defaults so a bad
// config degrades instead of breaking the server.
func (c *Config) sanitize() {
	def := Default()

	if c.ListenAddr == "" {
		c.ListenAddr = def.ListenAddr
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = def.SendBuffer
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.PingInterval <= 0 {
		c.PingInterval = def.PingInterval
	}
	if c.PongWait <= c.PingInterval {
		c.PongWait = c.PingInterval + 6*time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}
	if c.RateLimit.Burst < 0 {
		c.RateLimit.Burst = 0
	}
	if c.RateLimit.Burst > 0 && c.RateLimit.RefillInterval <= 0 {
		c.RateLimit.RefillInterval = def.RateLimit.RefillInterval
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
}
