package config

import "errors"

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	return verifyStore(&cfg.Store)
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Addr == "" {
		return errors.New("server.addr is required")
	}
	if cfg.Workers < 1 {
		return errors.New("server.workers must be at least 1")
	}
	if cfg.IdleTimeout < 0 {
		return errors.New("server.idle_timeout must not be negative")
	}
	if cfg.RateLimit < 0 {
		return errors.New("server.rate_limit must not be negative")
	}
	return nil
}

func verifyStore(cfg *StoreSection) error {
	if cfg.InitialCapacity < 1 {
		return errors.New("store.initial_capacity must be at least 1")
	}
	if cfg.DefaultTTL <= 0 {
		return errors.New("store.default_ttl must be positive")
	}
	if cfg.MaxKeyLen < 1 {
		return errors.New("store.max_key_len must be at least 1")
	}
	if cfg.MaxValueLen < 1 {
		return errors.New("store.max_value_len must be at least 1")
	}
	if cfg.SweepInterval < 0 {
		return errors.New("store.sweep_interval must not be negative")
	}
	return nil
}
