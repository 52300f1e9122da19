package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dd0wney/cluso-failover/pkg/logging"
)

// DefaultShutdownTimeout bounds connection draining plus shutdown hooks.
const DefaultShutdownTimeout = 30 * time.Second

// HookFunc runs during shutdown, after the HTTP server stops accepting
// requests. ctx carries the remaining shutdown budget.
type HookFunc func(ctx context.Context) error

type hook struct {
	name string
	fn   HookFunc
}

// GracefulServer wraps an HTTP server with graceful shutdown capabilities
//
// Concurrent Safety:
//  1. Shutdown runs once; later calls return the first result
//  2. hooksMu guards hook registration against a concurrent shutdown
type GracefulServer struct {
	server          *http.Server
	logger          logging.Logger
	shutdownTimeout time.Duration

	listener     net.Listener
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	shutdownErr  error

	hooksMu sync.Mutex
	hooks   []hook
}

// Option customizes a GracefulServer.
type Option func(*GracefulServer)

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(gs *GracefulServer) { gs.logger = logger }
}

// WithShutdownTimeout sets the total shutdown budget.
func WithShutdownTimeout(d time.Duration) Option {
	return func(gs *GracefulServer) {
		if d > 0 {
			gs.shutdownTimeout = d
		}
	}
}

// NewGracefulServer creates a new graceful HTTP server
func NewGracefulServer(addr string, handler http.Handler, opts ...Option) *GracefulServer {
	gs := &GracefulServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		shutdownTimeout: DefaultShutdownTimeout,
		shutdownCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(gs)
	}
	gs.logger = logging.OrDefault(gs.logger).With(logging.Component("http-server"))
	return gs
}

// OnShutdown registers fn to run after the server has drained. Hooks run in
// reverse registration order, so a component registered after its
// dependencies is stopped before them.
func (gs *GracefulServer) OnShutdown(name string, fn HookFunc) {
	gs.hooksMu.Lock()
	defer gs.hooksMu.Unlock()
	gs.hooks = append(gs.hooks, hook{name: name, fn: fn})
}

// Listen binds the listening socket without serving. Run calls it if it has
// not been called.
func (gs *GracefulServer) Listen() error {
	if gs.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", gs.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", gs.server.Addr, err)
	}
	gs.listener = ln
	return nil
}

// Addr returns the bound address once Listen has succeeded, otherwise the
// configured one.
func (gs *GracefulServer) Addr() string {
	if gs.listener != nil {
		return gs.listener.Addr().String()
	}
	return gs.server.Addr
}

// Run serves until ctx is done or the process receives SIGINT or SIGTERM,
// then shuts down gracefully.
func (gs *GracefulServer) Run(ctx context.Context) error {
	if err := gs.Listen(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		gs.logger.Info("starting HTTP server", logging.Addr(gs.Addr()))
		if err := gs.server.Serve(gs.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			gs.Shutdown(gs.shutdownTimeout)
		}
		return err
	case <-ctx.Done():
		gs.logger.Info("shutdown requested", logging.String("cause", context.Cause(ctx).Error()))
	}

	shutdownErr := gs.Shutdown(gs.shutdownTimeout)
	if err := <-errCh; err != nil {
		return err
	}
	return shutdownErr
}

// Shutdown stops accepting requests, drains in-flight ones and then runs
// the shutdown hooks, all within timeout.
func (gs *GracefulServer) Shutdown(timeout time.Duration) error {
	gs.shutdownOnce.Do(func() {
		close(gs.shutdownCh)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		gs.logger.Info("initiating graceful shutdown", logging.Duration("timeout", timeout))

		var errs []error
		if err := gs.server.Shutdown(ctx); err != nil {
			gs.logger.Error("error during HTTP shutdown", logging.Error(err))
			errs = append(errs, err)
		}

		gs.hooksMu.Lock()
		hooks := append([]hook(nil), gs.hooks...)
		gs.hooksMu.Unlock()

		for i := len(hooks) - 1; i >= 0; i-- {
			h := hooks[i]
			if err := h.fn(ctx); err != nil {
				gs.logger.Error("shutdown hook failed", logging.String("hook", h.name), logging.Error(err))
				errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
				continue
			}
			gs.logger.Debug("shutdown hook done", logging.String("hook", h.name))
		}

		gs.shutdownErr = errors.Join(errs...)
		gs.logger.Info("server shutdown complete")
	})
	return gs.shutdownErr
}

// IsShuttingDown returns true if shutdown has been initiated
func (gs *GracefulServer) IsShuttingDown() bool {
	select {
	case <-gs.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownChannel returns a channel that closes when shutdown is initiated
func (gs *GracefulServer) ShutdownChannel() <-chan struct{} {
	return gs.shutdownCh
}
