package replication

import (
	"context"
	"errors"
	"time"

	"github.com/dd0wney/cluso-failover/pkg/logging"
)

// Start launches the periodic flush loop. The loop exits when ctx is done or
// Stop is called.
func (c *Coordinator) Start(ctx context.Context) error {
	err := ErrAlreadyStarted
	c.startOnce.Do(func() {
		err = nil
		c.mu.Lock()
		c.started = true
		c.mu.Unlock()
		go c.flushLoop(ctx)
		c.logger.Info("flush loop started", logging.Duration("interval", c.config.FlushInterval))
	})
	return err
}

// Stop ends the flush loop and, when configured, makes one final flush
// attempt so a clean shutdown loses nothing that the secondary can accept.
func (c *Coordinator) Stop() error {
	var err error
	c.stopOnce.Do(func() {
		close(c.stopCh)

		c.mu.Lock()
		started := c.started
		c.mu.Unlock()
		if started {
			<-c.doneCh
		}

		if !c.config.FlushOnShutdown {
			if n := c.Len(); n > 0 {
				c.logger.Warn("discarding unflushed changes on shutdown", logging.QueueDepth(n))
			}
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.config.ShutdownTimeout)
		defer cancel()

		if _, err = c.Flush(ctx); err != nil {
			c.logger.Error("final flush failed, unflushed changes are lost",
				logging.QueueDepth(c.Len()),
				logging.Error(err),
			)
		}
	})
	return err
}

func (c *Coordinator) flushLoop(ctx context.Context) {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

// tick runs one scheduled flush. Failures stay inside the loop: callers got
// their confirmation when the primary committed.
func (c *Coordinator) tick(ctx context.Context) {
	if _, err := c.Flush(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.logger.Error("sync failed, will retry",
			logging.QueueDepth(c.Len()),
			logging.Error(err),
		)
	}
}
