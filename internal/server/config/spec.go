package config

import "time"

// ServerConfig is the root configuration for netkv-server.
type ServerConfig struct {
	Server    ServerSection    `koanf:"server"`
	Store     StoreSection     `koanf:"store"`
	Telemetry TelemetrySection `koanf:"telemetry"`
	Log       LogSection       `koanf:"log"`
}

// ServerSection configures the TCP listener and worker pool.
type ServerSection struct {
	// Addr is the listen address for the text protocol.
	Addr string `koanf:"addr"`

	// Workers is the size of the fixed worker pool draining the shared
	// readiness queue.
	Workers int `koanf:"workers"`

	// IdleTimeout closes connections idle for longer. Zero disables.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// RateLimit is the maximum commands per second per client IP.
	// Zero disables rate limiting.
	RateLimit int `koanf:"rate_limit"`
}

// StoreSection configures the hash table and protocol limits.
type StoreSection struct {
	// InitialCapacity is the bucket count at startup and after wipe.
	InitialCapacity int `koanf:"initial_capacity"`

	// DefaultTTL applies to writes without an explicit TTL.
	DefaultTTL time.Duration `koanf:"default_ttl"`

	// MaxKeyLen and MaxValueLen bound key/value sizes in bytes.
	// Longer inputs are truncated by the parser, not rejected.
	MaxKeyLen   int `koanf:"max_key_len"`
	MaxValueLen int `koanf:"max_value_len"`

	// SweepInterval enables a periodic expiry sweep. Zero disables it:
	// sweeps then happen only on size/dump.
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// TelemetrySection configures the metrics endpoint.
type TelemetrySection struct {
	// MetricsAddr is the /metrics HTTP listen address. Empty disables.
	MetricsAddr string `koanf:"metrics_addr"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
