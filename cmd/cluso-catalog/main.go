// Command cluso-catalog serves the product catalog API over a primary and a
// secondary PostgreSQL store, replicating with either the async queue or the
// sync mirror.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dd0wney/cluso-failover/pkg/api"
	"github.com/dd0wney/cluso-failover/pkg/config"
	"github.com/dd0wney/cluso-failover/pkg/health"
	"github.com/dd0wney/cluso-failover/pkg/logging"
	"github.com/dd0wney/cluso-failover/pkg/metrics"
	"github.com/dd0wney/cluso-failover/pkg/mirror"
	"github.com/dd0wney/cluso-failover/pkg/replication"
	"github.com/dd0wney/cluso-failover/pkg/server"
	"github.com/dd0wney/cluso-failover/pkg/store"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	mode := flag.String("mode", "", "Replication mode: async or sync (overrides config)")
	listen := flag.String("listen", "", "Listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cluso-catalog: %v\n", err)
		os.Exit(1)
	}
	if *mode != "" {
		cfg.Replication.Mode = *mode
	}
	if *listen != "" {
		cfg.Catalog.Listen = *listen
	}

	logger := logging.NewJSONLogger(os.Stdout, cfg.Level())
	logging.SetDefaultLogger(logger)

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("cluso-catalog exited", logging.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	if err := cfg.ValidateCatalog(); err != nil {
		return err
	}

	logger.Info("starting catalog",
		logging.String("mode", cfg.Replication.Mode),
		logging.Addr(cfg.Catalog.Listen),
	)

	primary, err := store.Open(ctx, store.PrimaryName, cfg.Primary.StoreOptions())
	if err != nil {
		return err
	}
	secondary, err := store.Open(ctx, store.SecondaryName, cfg.Secondary.StoreOptions())
	if err != nil {
		primary.Close()
		return err
	}

	reg := metrics.DefaultRegistry()
	checker := health.NewHealthChecker()
	checker.RegisterCheck(store.PrimaryName, health.StoreCheck(store.PrimaryName, primary, true))
	checker.RegisterCheck(store.SecondaryName, health.StoreCheck(store.SecondaryName, secondary, false))
	checker.RegisterReadinessCheck(store.PrimaryName, health.StoreCheck(store.PrimaryName, primary, true))
	checker.RegisterLivenessCheck("catalog", health.SimpleCheck("catalog"))

	var (
		backend api.Backend
		status  api.StatusFunc
		stopFn  func(context.Context) error
	)

	switch cfg.Replication.Mode {
	case config.ModeSync:
		coord := mirror.NewCoordinator(primary, secondary,
			mirror.WithLogger(logger),
			mirror.WithMetrics(reg),
		)
		checker.RegisterCheck("mirror", health.MirrorCheck(func() uint64 {
			return coord.Stats().MirrorFailures
		}))
		backend = mirror.Backend{Coordinator: coord}
		status = func() any { return coord.Status() }
		stopFn = func(context.Context) error { return nil }

	default:
		coord := replication.NewCoordinator(primary, secondary, cfg.Replication.ReplicationSettings(),
			replication.WithLogger(logger),
			replication.WithMetrics(reg),
		)
		checker.RegisterCheck("replication", health.ReplicationCheck(func() health.ReplicationState {
			return replicationState(coord.Status())
		}, health.DefaultReplicationThresholds()))
		if err := coord.Start(ctx); err != nil {
			primary.Close()
			secondary.Close()
			return err
		}
		backend = coord
		status = func() any { return coord.Status() }
		stopFn = func(context.Context) error { return coord.Stop() }
	}

	catalog := api.NewServer(backend,
		api.WithLogger(logger),
		api.WithMetrics(reg),
		api.WithHealthChecker(checker),
		api.WithStatus(status),
	)

	srv := server.NewGracefulServer(cfg.Catalog.Listen, catalog.Handler(),
		server.WithLogger(logger),
	)

	// Hooks run in reverse: the coordinator stops (and flushes) before the
	// stores close.
	srv.OnShutdown("stores", func(context.Context) error {
		primary.Close()
		secondary.Close()
		return nil
	})
	srv.OnShutdown("replication", stopFn)

	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				reg.UpdateSystemMetrics(startTime)
			case <-srv.ShutdownChannel():
				return
			}
		}
	}()

	return srv.Run(ctx)
}

func replicationState(s replication.Status) health.ReplicationState {
	state := health.ReplicationState{
		Pending:        s.PendingChanges,
		LastFlushError: s.LastFlushError,
	}
	if s.OldestEnqueuedAt != nil {
		state.OldestEnqueued = *s.OldestEnqueuedAt
	}
	return state
}
