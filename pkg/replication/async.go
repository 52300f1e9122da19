package replication

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dd0wney/cluso-failover/pkg/logging"
	"github.com/dd0wney/cluso-failover/pkg/metrics"
	"github.com/dd0wney/cluso-failover/pkg/store"
)

// Coordinator replicates primary writes to the secondary asynchronously.
//
// Concurrent Safety:
//  1. writeMu serializes writes so queue order matches primary apply order
//  2. mu guards the pending queue and flush bookkeeping
//  3. flushMu allows one flush at a time; appends made while a flush is
//     replaying land behind the replayed prefix and wait for the next cycle
type Coordinator struct {
	primary   store.Store
	secondary store.Store
	config    Config
	logger    logging.Logger
	metrics   *metrics.Registry
	now       func() time.Time

	writeMu sync.Mutex
	flushMu sync.Mutex

	mu         sync.Mutex
	queue      pendingQueue
	lastFlush  time.Time
	lastErr    error
	flushed    uint64
	flushFails uint64

	stopCh    chan struct{}
	doneCh    chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
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

// WithClock overrides the enqueue timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator creates an async coordinator over the two stores. The flush
// loop does not run until Start is called.
func NewCoordinator(primary, secondary store.Store, config Config, opts ...Option) *Coordinator {
	if config.FlushInterval <= 0 {
		config.FlushInterval = DefaultConfig().FlushInterval
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultConfig().ShutdownTimeout
	}

	c := &Coordinator{
		primary:   primary,
		secondary: secondary,
		config:    config,
		now:       time.Now,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = metrics.DefaultRegistry()
	}
	c.logger = logging.OrDefault(c.logger).With(logging.Component("async-replication"))
	return c
}

// Write executes a statement on the primary and, once it has succeeded,
// queues it for replay on the secondary. Primary's result is returned.
func (c *Coordinator) Write(ctx context.Context, sql string, args ...any) (*store.Result, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	res, err := c.primary.Query(ctx, sql, args...)
	if err != nil {
		c.metrics.ReplicationWritesTotal.WithLabelValues("error").Inc()
		c.logger.Error("primary write failed", logging.SQL(sql), logging.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	change := newPendingChange(sql, args, c.now())

	c.mu.Lock()
	depth := c.queue.push(change)
	oldest := c.queue.oldest()
	c.mu.Unlock()

	c.metrics.ReplicationWritesTotal.WithLabelValues("ok").Inc()
	c.metrics.SetPending(depth, oldest)
	c.logger.Debug("change queued",
		logging.ChangeID(change.ID),
		logging.SQL(sql),
		logging.QueueDepth(depth),
	)

	return res, nil
}

// Read runs a query on the primary, retrying the identical query on the
// secondary if the primary fails for any reason.
func (c *Coordinator) Read(ctx context.Context, sql string, args ...any) (*store.Result, error) {
	res, err := c.primary.Query(ctx, sql, args...)
	if err == nil {
		c.metrics.ReplicationReadsTotal.WithLabelValues(store.PrimaryName).Inc()
		return res, nil
	}

	c.logger.Warn("primary read failed, falling back to secondary",
		logging.SQL(sql),
		logging.Error(err),
	)

	res, secErr := c.secondary.Query(ctx, sql, args...)
	if secErr != nil {
		c.metrics.ReplicationReadsTotal.WithLabelValues("none").Inc()
		return nil, fmt.Errorf("%w: primary: %w; secondary: %w", ErrRead, err, secErr)
	}

	c.metrics.ReplicationReadsTotal.WithLabelValues(store.SecondaryName).Inc()
	return res, nil
}

// Flush replays every queued change on the secondary, in arrival order,
// inside one transaction. The replayed changes leave the queue only when the
// transaction commits; on any failure the queue is exactly as it was.
// It returns the number of changes flushed.
func (c *Coordinator) Flush(ctx context.Context) (int, error) {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.mu.Lock()
	batch := c.queue.snapshot()
	c.mu.Unlock()

	if len(batch) == 0 {
		return 0, nil
	}

	start := time.Now()
	c.logger.Info("syncing changes to secondary", logging.Count(len(batch)))

	if err := c.replay(ctx, batch); err != nil {
		c.metrics.RecordFlush(false, len(batch), time.Since(start))

		c.mu.Lock()
		c.lastErr = err
		c.flushFails++
		c.mu.Unlock()

		return 0, fmt.Errorf("%w: %w", ErrFlush, err)
	}

	c.mu.Lock()
	c.queue.dropHead(len(batch))
	depth := c.queue.len()
	oldest := c.queue.oldest()
	c.lastFlush = c.now()
	c.lastErr = nil
	c.flushed += uint64(len(batch))
	c.mu.Unlock()

	c.metrics.RecordFlush(true, len(batch), time.Since(start))
	c.metrics.SetPending(depth, oldest)
	c.logger.Info("sync successful, cleared pending changes",
		logging.Count(len(batch)),
		logging.QueueDepth(depth),
		logging.Latency(time.Since(start)),
	)

	return len(batch), nil
}

// replay applies batch on the secondary in a single transaction.
func (c *Coordinator) replay(ctx context.Context, batch []PendingChange) (err error) {
	tx, err := c.secondary.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err == nil {
			return
		}
		// the caller's context may already be done; rollback regardless
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			c.logger.Warn("rollback after failed replay", logging.Error(rbErr))
		}
	}()

	for i, change := range batch {
		if _, err = tx.Query(ctx, change.SQL, change.Args...); err != nil {
			return fmt.Errorf("replay %d/%d (change %s): %w", i+1, len(batch), change.ID, err)
		}
	}

	return tx.Commit(ctx)
}

// Pending returns a copy of the queued changes, oldest first.
func (c *Coordinator) Pending() []PendingChange {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.snapshot()
}

// Len returns the number of queued changes.
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.len()
}
