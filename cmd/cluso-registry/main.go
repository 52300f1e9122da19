// Command cluso-registry runs the discovery service: it probes a fixed set
// of catalog backends and tells clients which one to use.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/mux"

	"github.com/dd0wney/cluso-failover/pkg/api/middleware"
	"github.com/dd0wney/cluso-failover/pkg/config"
	"github.com/dd0wney/cluso-failover/pkg/health"
	"github.com/dd0wney/cluso-failover/pkg/logging"
	"github.com/dd0wney/cluso-failover/pkg/metrics"
	"github.com/dd0wney/cluso-failover/pkg/registry"
	"github.com/dd0wney/cluso-failover/pkg/server"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	listen := flag.String("listen", "", "Listen address (overrides config)")
	backends := flag.String("backends", "", "Comma-separated backend addresses (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cluso-registry: %v\n", err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.Registry.Listen = *listen
	}
	if *backends != "" {
		cfg.Registry.Backends = strings.Split(*backends, ",")
	}

	logger := logging.NewJSONLogger(os.Stdout, cfg.Level())
	logging.SetDefaultLogger(logger)

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("cluso-registry exited", logging.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	if err := cfg.ValidateRegistry(); err != nil {
		return err
	}
	settings, err := cfg.Registry.RegistrySettings()
	if err != nil {
		return err
	}

	reg := metrics.DefaultRegistry()
	prober := registry.NewHTTPProber(cfg.Registry.HealthPath)

	r, err := registry.New(cfg.Registry.Backends, prober, settings,
		registry.WithLogger(logger),
		registry.WithMetrics(reg),
	)
	if err != nil {
		return err
	}

	checker := health.NewHealthChecker()
	checker.RegisterCheck("backends", health.BackendsCheck(func() (int, int) {
		return aliveCount(r.Backends())
	}))
	checker.RegisterLivenessCheck("registry", health.SimpleCheck("registry"))

	router := mux.NewRouter()
	registry.NewHandler(r, logger).Register(router)
	router.HandleFunc("/health", checker.HTTPHandler()).Methods(http.MethodGet)
	router.HandleFunc("/health/live", checker.LivenessHandler()).Methods(http.MethodGet)
	router.Handle("/metrics", reg.Handler()).Methods(http.MethodGet)
	router.Use(middleware.Metrics(reg))

	var handler http.Handler = router
	handler = middleware.CORS(middleware.DefaultCORSConfig())(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID()(handler)
	handler = middleware.PanicRecovery(logger)(handler)

	srv := server.NewGracefulServer(cfg.Registry.Listen, handler, server.WithLogger(logger))
	srv.OnShutdown("registry", func(context.Context) error {
		r.Stop()
		return nil
	})

	// The initial refresh runs before the listener accepts lookups.
	if err := r.Start(ctx); err != nil {
		return err
	}

	logger.Info("discovery service ready",
		logging.Addr(cfg.Registry.Listen),
		logging.Count(len(cfg.Registry.Backends)),
	)
	return srv.Run(ctx)
}

func aliveCount(backends []registry.Backend) (alive, total int) {
	for _, b := range backends {
		if b.State == registry.Alive {
			alive++
		}
	}
	return alive, len(backends)
}
