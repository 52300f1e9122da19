package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/cluso-failover/pkg/logging"
	"github.com/dd0wney/cluso-failover/pkg/metrics"
)

// Registry tracks backend liveness and the currently selected backend.
//
// Concurrent Safety:
//  1. mu guards the backend set and the current selection; readers take
//     the read lock so lookups never wait on a probe
//  2. refreshMu serializes refresh cycles; a cycle fully completes before
//     the next one starts
//  3. Probes run without holding mu and their results are applied in
//     registration order in one critical section
//  4. Start/Stop use sync.Once
type Registry struct {
	config  Config
	prober  Prober
	logger  logging.Logger
	metrics *metrics.Registry
	now     func() time.Time

	refreshMu sync.Mutex

	mu       sync.RWMutex
	backends []Backend
	current  int

	stopCh    chan struct{}
	doneCh    chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
}

// Option customizes a Registry.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metrics.Registry) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithClock overrides the probe timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// New creates a registry over addrs in priority order. Every backend starts
// Alive and the first one is selected.
func New(addrs []string, prober Prober, config Config, opts ...Option) (*Registry, error) {
	if len(addrs) == 0 {
		return nil, ErrNoBackends
	}
	if config.Selection == "" {
		config.Selection = SelectionPriority
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(addrs))
	backends := make([]Backend, len(addrs))
	for i, addr := range addrs {
		if seen[addr] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateBackend, addr)
		}
		seen[addr] = true
		backends[i] = Backend{Addr: addr, State: Alive}
	}

	r := &Registry{
		config:   config,
		prober:   prober,
		now:      time.Now,
		backends: backends,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = metrics.DefaultRegistry()
	}
	r.logger = logging.OrDefault(r.logger).With(logging.Component("registry"))
	r.metrics.DiscoveryAliveBackends.Set(float64(len(backends)))
	for _, b := range backends {
		r.metrics.SetBackendUp(b.Addr, true)
	}

	return r, nil
}

// probeResult is the outcome of probing one backend.
type probeResult struct {
	err error
	at  time.Time
}

// Refresh probes every backend once, updates their states and reselects
// the current backend. If ctx is cancelled mid-cycle nothing is applied and
// ctx's error is returned.
func (r *Registry) Refresh(ctx context.Context) error {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	timer := logging.StartTimer(r.logger, "refresh")
	start := time.Now()

	results := r.probeAll(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	alive := r.applyLocked(results)
	changed, from, to := r.reselectLocked()
	r.mu.Unlock()

	r.metrics.DiscoveryAliveBackends.Set(float64(alive))
	r.metrics.DiscoveryRefreshDuration.Observe(time.Since(start).Seconds())
	if changed {
		r.metrics.DiscoverySelectionChanges.Inc()
		r.logger.Info("switched server", logging.String("from", from), logging.String("to", to))
	}
	if alive == 0 {
		r.logger.Warn("no servers alive")
	}
	timer.End(logging.Count(alive))

	return nil
}

// probeAll probes every backend and returns results indexed like backends.
func (r *Registry) probeAll(ctx context.Context) []probeResult {
	r.mu.RLock()
	addrs := make([]string, len(r.backends))
	for i, b := range r.backends {
		addrs[i] = b.Addr
	}
	r.mu.RUnlock()

	results := make([]probeResult, len(addrs))

	if r.config.ProbeConcurrency <= 1 {
		for i, addr := range addrs {
			if ctx.Err() != nil {
				break
			}
			results[i] = r.probe(ctx, addr)
		}
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.ProbeConcurrency)
	for i, addr := range addrs {
		i, addr := i, addr
		g.Go(func() error {
			results[i] = r.probe(gctx, addr)
			return nil
		})
	}
	g.Wait()

	return results
}

// probe runs one bounded probe.
func (r *Registry) probe(ctx context.Context, addr string) probeResult {
	ctx, cancel := context.WithTimeout(ctx, r.config.ProbeTimeout)
	defer cancel()

	start := time.Now()
	err := r.prober.Probe(ctx, addr)
	r.metrics.RecordProbe(err == nil, time.Since(start))

	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrProbe, addr, err)
		r.logger.Debug("probe failed", logging.Addr(addr), logging.Error(err))
	}
	return probeResult{err: err, at: r.now()}
}

// applyLocked stores probe results and returns the number of Alive
// backends. r.mu must be held.
func (r *Registry) applyLocked(results []probeResult) int {
	alive := 0
	for i := range r.backends {
		b := &r.backends[i]
		next := Alive
		b.LastError = ""
		if err := results[i].err; err != nil {
			next = Down
			b.LastError = err.Error()
		}
		b.LastProbe = results[i].at

		if b.State != next {
			r.logger.Info("server state changed",
				logging.Addr(b.Addr),
				logging.State(next.String()),
			)
		}
		b.State = next
		r.metrics.SetBackendUp(b.Addr, next == Alive)
		if next == Alive {
			alive++
		}
	}
	return alive
}

// reselectLocked applies the selection policy. If no backend is Alive the
// selection is left where it was. r.mu must be held.
func (r *Registry) reselectLocked() (changed bool, from, to string) {
	prev := r.current

	if r.config.Selection == SelectionSticky && r.backends[prev].State == Alive {
		return false, "", ""
	}

	next := r.firstAliveLocked()
	if next < 0 || next == prev {
		return false, "", ""
	}

	r.current = next
	return true, r.backends[prev].Addr, r.backends[next].Addr
}

func (r *Registry) firstAliveLocked() int {
	for i, b := range r.backends {
		if b.State == Alive {
			return i
		}
	}
	return -1
}

// GetServer returns the current backend's address if it is Alive.
func (r *Registry) GetServer() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b := r.backends[r.current]
	if b.State != Alive {
		r.metrics.DiscoveryLookupsTotal.WithLabelValues("unavailable").Inc()
		return "", false
	}
	r.metrics.DiscoveryLookupsTotal.WithLabelValues("ok").Inc()
	return b.Addr, true
}

// GetStatus reports every backend and the current selection.
func (r *Registry) GetStatus() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Status{
		Servers:       make([]ServerStatus, len(r.backends)),
		CurrentServer: r.backends[r.current].Addr,
	}
	for i, b := range r.backends {
		s.Servers[i] = ServerStatus{URL: b.Addr, Status: b.State.String()}
	}
	return s
}

// Backends returns a copy of the backend set in registration order.
func (r *Registry) Backends() []Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Backend, len(r.backends))
	copy(out, r.backends)
	return out
}
