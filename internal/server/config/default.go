package config

import (
	"time"

	"github.com/ebalduf/netkv/internal/core/domain"
	"github.com/ebalduf/netkv/internal/storage/hashtable"
)

// Default configuration values.
const (
	DefaultAddr        = "127.0.0.1:8080"
	DefaultWorkers     = 4
	DefaultIdleTimeout = 5 * time.Minute

	DefaultMaxKeyLen   = 255
	DefaultMaxValueLen = 767

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Addr:        DefaultAddr,
			Workers:     DefaultWorkers,
			IdleTimeout: DefaultIdleTimeout,
			RateLimit:   0,
		},
		Store: StoreSection{
			InitialCapacity: hashtable.DefaultInitialCapacity,
			DefaultTTL:      domain.DefaultTTL,
			MaxKeyLen:       DefaultMaxKeyLen,
			MaxValueLen:     DefaultMaxValueLen,
			SweepInterval:   0,
		},
		Telemetry: TelemetrySection{
			MetricsAddr: "",
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
