package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ebalduf/netkv/internal/infra/buildinfo"
	"github.com/ebalduf/netkv/internal/infra/confloader"
	"github.com/ebalduf/netkv/internal/infra/shutdown"
	"github.com/ebalduf/netkv/internal/server/config"
	"github.com/ebalduf/netkv/internal/server/lineserver"
	"github.com/ebalduf/netkv/internal/storage/hashtable"
	"github.com/ebalduf/netkv/internal/telemetry/logger"
	"github.com/ebalduf/netkv/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		listenAddr  = flag.String("addr", "", "Listen address (overrides config)")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("netkv-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *listenAddr != "" {
		cfg.Server.Addr = *listenAddr
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	log.Info("starting netkv-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", *configFile)

	table := hashtable.New(
		hashtable.WithInitialCapacity(cfg.Store.InitialCapacity),
		hashtable.WithDefaultTTL(cfg.Store.DefaultTTL),
	)

	metrics := metric.NewRegistry()
	metrics.MustRegister(metric.NewTableCollector(table))

	handler := lineserver.NewCommandHandler(table, metrics, cfg.Store.MaxKeyLen, cfg.Store.MaxValueLen)
	srv := lineserver.New(&lineserver.Config{
		Addr:        cfg.Server.Addr,
		Workers:     cfg.Server.Workers,
		IdleTimeout: cfg.Server.IdleTimeout,
		RateLimit:   cfg.Server.RateLimit,
		MaxKeyLen:   cfg.Store.MaxKeyLen,
		MaxValueLen: cfg.Store.MaxValueLen,
	}, handler, log, metrics)

	shutdownHandler := shutdown.NewHandler(30 * time.Second)

	if err := srv.Start(context.Background()); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down line server")
		return srv.Shutdown(ctx)
	})

	if cfg.Telemetry.MetricsAddr != "" {
		metricsServer := startMetricsServer(cfg.Telemetry.MetricsAddr, metrics, log)
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down metrics server")
			return metricsServer.Shutdown(ctx)
		})
	}

	if cfg.Store.SweepInterval > 0 {
		stopSweep := startSweepLoop(table, metrics, cfg.Store.SweepInterval, log)
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			stopSweep()
			return nil
		})
	}

	if *configFile != "" {
		watcher, err := watchConfig(*configFile, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown(func(ctx context.Context) error {
				return watcher.Stop()
			})
		}
	}

	log.Info("server started", "addr", cfg.Server.Addr)
	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig merges defaults, the optional config file, and NETKV_*
// environment variables.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

func startMetricsServer(addr string, metrics *metric.Registry, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("metrics server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server error", "error", err)
		}
	}()

	return srv
}

// startSweepLoop runs a periodic expiry sweep. The table already
// sweeps lazily on lookup and on size/dump; the loop only tightens
// memory bounds for workloads that never call those.
func startSweepLoop(table *hashtable.Table, metrics *metric.Registry, interval time.Duration, log logger.Logger) func() {
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				start := time.Now()
				removed := table.Sweep()
				metrics.SweepDuration.Observe(time.Since(start).Seconds())
				if removed > 0 {
					log.Debug("expiry sweep", "removed", removed)
				}
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }
}

// watchConfig reloads the log level when the config file changes.
// Other settings need a restart.
func watchConfig(path string, log logger.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		return nil, err
	}

	watcher.OnChange(func(changed string) {
		// The watcher reports sibling files in the same directory too.
		if filepath.Base(changed) != filepath.Base(path) {
			return
		}
		cfg := config.Default()
		loader := confloader.NewLoader(confloader.WithConfigFile(path))
		if err := loader.Load(cfg); err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		logger.SetLevel(cfg.Log.Level)
		log.Info("log level reloaded", "level", cfg.Log.Level)
	})

	watcher.StartAsync()
	return watcher, nil
}
