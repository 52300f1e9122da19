package registry

import (
	"context"
	"errors"
	"time"

	"github.com/dd0wney/cluso-failover/pkg/logging"
)

// Start runs one refresh immediately and then refreshes every
// ProbeInterval until ctx is done or Stop is called.
func (r *Registry) Start(ctx context.Context) error {
	err := ErrAlreadyStarted
	r.startOnce.Do(func() {
		err = nil

		r.mu.Lock()
		r.started = true
		r.mu.Unlock()

		if rerr := r.Refresh(ctx); rerr != nil {
			// backends may not be up yet; the loop keeps trying
			r.logger.Warn("initial refresh failed", logging.Error(rerr))
		}

		go r.refreshLoop(ctx)
		r.logger.Info("registry started",
			logging.Count(len(r.Backends())),
			logging.Duration("interval", r.config.ProbeInterval),
		)
	})
	return err
}

// Stop ends the refresh loop and waits for an in-progress cycle to finish.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)

		r.mu.RLock()
		started := r.started
		r.mu.RUnlock()
		if started {
			<-r.doneCh
		}
		r.logger.Info("registry stopped")
	})
}

func (r *Registry) refreshLoop(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.config.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
				r.logger.Warn("refresh failed", logging.Error(err))
			}
		}
	}
}
