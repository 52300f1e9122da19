package health

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Pinger is anything that can confirm a live connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SimpleCheck creates a check that always reports healthy
func SimpleCheck(name string) CheckFunc {
	return func(context.Context) Check {
		return Check{Name: name, Status: StatusHealthy}
	}
}

// StoreCheck pings a data store. A critical store that fails is unhealthy;
// a non-critical one only degrades the service.
func StoreCheck(name string, store Pinger, critical bool) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{
			Name:    name,
			Details: map[string]any{"critical": critical},
		}

		if err := store.Ping(ctx); err != nil {
			check.Status = StatusDegraded
			if critical {
				check.Status = StatusUnhealthy
			}
			check.Message = err.Error()
			return check
		}

		check.Status = StatusHealthy
		check.Message = "Connected"
		return check
	}
}

// ReplicationThresholds bound the async backlog before it is reported.
type ReplicationThresholds struct {
	MaxPending int
	MaxAge     time.Duration
}

// DefaultReplicationThresholds returns thresholds suited to a 5s flush.
func DefaultReplicationThresholds() ReplicationThresholds {
	return ReplicationThresholds{
		MaxPending: 1000,
		MaxAge:     time.Minute,
	}
}

// ReplicationState is what the async replication check inspects.
type ReplicationState struct {
	Pending        int
	OldestEnqueued time.Time
	LastFlushError string
}

// ReplicationCheck reports a growing or stuck async replication backlog.
// Replication trouble never makes the service unhealthy: writes still
// commit on the primary.
func ReplicationCheck(getState func() ReplicationState, thresholds ReplicationThresholds) CheckFunc {
	return func(context.Context) Check {
		state := getState()
		check := Check{
			Name: "replication",
			Details: map[string]any{
				"pending_changes": state.Pending,
			},
			Status:  StatusHealthy,
			Message: "Replication healthy",
		}

		var age time.Duration
		if state.Pending > 0 && !state.OldestEnqueued.IsZero() {
			age = time.Since(state.OldestEnqueued)
			check.Details["oldest_pending_seconds"] = age.Seconds()
		}
		if state.LastFlushError != "" {
			check.Details["last_flush_error"] = state.LastFlushError
		}

		switch {
		case state.Pending > thresholds.MaxPending:
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("Replication backlog of %d changes", state.Pending)
		case thresholds.MaxAge > 0 && age > thresholds.MaxAge:
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("Oldest pending change is %s old", age.Truncate(time.Second))
		case state.LastFlushError != "" && state.Pending > 0:
			check.Status = StatusDegraded
			check.Message = "Last flush failed"
		}

		return check
	}
}

// MirrorCheck reports degraded when the secondary rejected mirrored
// statements since the previous check.
func MirrorCheck(getFailures func() uint64) CheckFunc {
	var (
		mu   sync.Mutex
		last uint64
	)
	return func(context.Context) Check {
		failures := getFailures()

		mu.Lock()
		recent := failures - last
		last = failures
		mu.Unlock()

		check := Check{
			Name: "mirror",
			Details: map[string]any{
				"mirror_failures_total":  failures,
				"mirror_failures_recent": recent,
			},
			Status:  StatusHealthy,
			Message: "Secondary in step",
		}
		if recent > 0 {
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("%d mirrored statements failed on the secondary", recent)
		}
		return check
	}
}

// BackendsCheck reports on the registry's backend set: unhealthy with no
// alive backend, degraded with some down.
func BackendsCheck(getCounts func() (alive, total int)) CheckFunc {
	return func(context.Context) Check {
		alive, total := getCounts()
		check := Check{
			Name: "backends",
			Details: map[string]any{
				"alive": alive,
				"total": total,
			},
		}

		switch {
		case alive == 0:
			check.Status = StatusUnhealthy
			check.Message = "No servers alive"
		case alive < total:
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("%d of %d servers down", total-alive, total)
		default:
			check.Status = StatusHealthy
			check.Message = "All servers alive"
		}
		return check
	}
}
