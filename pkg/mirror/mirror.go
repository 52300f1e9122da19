package mirror

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dd0wney/cluso-failover/pkg/logging"
	"github.com/dd0wney/cluso-failover/pkg/metrics"
	"github.com/dd0wney/cluso-failover/pkg/store"
)

// Coordinator mirrors every statement onto two stores.
//
// Concurrent Safety:
//  1. No state is kept between calls apart from atomic counters
//  2. Concurrent Query calls may interleave on either store; ordering
//     across callers is whatever each store serializes
type Coordinator struct {
	primary   store.Store
	secondary store.Store
	logger    logging.Logger
	metrics   *metrics.Registry

	queries        atomic.Uint64
	mirrored       atomic.Uint64
	mirrorFailures atomic.Uint64
	secondaryOnly  atomic.Uint64
	unavailable    atomic.Uint64
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metrics.Registry) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// NewCoordinator creates a sync mirror over the two stores.
func NewCoordinator(primary, secondary store.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		primary:   primary,
		secondary: secondary,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = metrics.DefaultRegistry()
	}
	c.logger = logging.OrDefault(c.logger).With(logging.Component("sync-mirror"))
	return c
}

// Query runs sql on the primary and mirrors it to the secondary. See
// QueryOutcome for the details of how the stores are tried.
func (c *Coordinator) Query(ctx context.Context, sql string, args ...any) (*store.Result, error) {
	res, _, err := c.QueryOutcome(ctx, sql, args...)
	return res, err
}

// QueryOutcome runs sql on the primary. On success the same statement is
// applied on the secondary before returning; a secondary failure is recorded
// in the Outcome but never returned as an error. If the primary fails, the
// statement is retried on the secondary alone and its result is returned.
// ErrAllStoresUnavailable is returned only when both stores fail.
func (c *Coordinator) QueryOutcome(ctx context.Context, sql string, args ...any) (*store.Result, Outcome, error) {
	c.queries.Add(1)

	res, err := c.primary.Query(ctx, sql, args...)
	if err == nil {
		out := Outcome{Source: store.PrimaryName}
		out.MirrorErr = c.mirror(ctx, sql, args)
		c.metrics.MirrorQueriesTotal.WithLabelValues(store.PrimaryName).Inc()
		return res, out, nil
	}

	out := Outcome{PrimaryErr: err}
	c.logger.Warn("primary query failed, retrying on secondary",
		logging.SQL(sql),
		logging.Error(err),
	)

	res, secErr := c.secondary.Query(ctx, sql, args...)
	if secErr != nil {
		c.unavailable.Add(1)
		c.metrics.MirrorQueriesTotal.WithLabelValues("none").Inc()
		c.logger.Error("query failed on both stores",
			logging.SQL(sql),
			logging.Error(secErr),
		)
		return nil, out, fmt.Errorf("%w: primary: %w; secondary: %w", ErrAllStoresUnavailable, err, secErr)
	}

	out.Source = store.SecondaryName
	c.secondaryOnly.Add(1)
	c.metrics.MirrorQueriesTotal.WithLabelValues(store.SecondaryName).Inc()
	return res, out, nil
}

// mirror applies sql on the secondary after a primary success.
func (c *Coordinator) mirror(ctx context.Context, sql string, args []any) error {
	_, err := c.secondary.Query(ctx, sql, args...)
	c.metrics.MirrorApplyTotal.WithLabelValues(metrics.ResultLabel(err)).Inc()
	if err != nil {
		c.mirrorFailures.Add(1)
		c.logger.Warn("secondary mirror failed, stores may diverge",
			logging.Store(store.SecondaryName),
			logging.SQL(sql),
			logging.Error(err),
		)
		return err
	}
	c.mirrored.Add(1)
	return nil
}

// Stats returns the cumulative counters.
func (c *Coordinator) Stats() Stats {
	return Stats{
		Queries:        c.queries.Load(),
		Mirrored:       c.mirrored.Load(),
		MirrorFailures: c.mirrorFailures.Load(),
		SecondaryOnly:  c.secondaryOnly.Load(),
		Unavailable:    c.unavailable.Load(),
	}
}

// Status returns the counters tagged with the replication mode.
func (c *Coordinator) Status() Status {
	return Status{Mode: "sync", Stats: c.Stats()}
}
