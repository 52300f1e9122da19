package replication

import "time"

// Status summarizes the coordinator for observability endpoints.
type Status struct {
	Mode             string     `json:"mode"`
	PendingChanges   int        `json:"pending_changes"`
	OldestEnqueuedAt *time.Time `json:"oldest_enqueued_at,omitempty"`
	LastFlushAt      *time.Time `json:"last_flush_at,omitempty"`
	LastFlushError   string     `json:"last_flush_error,omitempty"`
	FlushedChanges   uint64     `json:"flushed_changes"`
	FailedFlushes    uint64     `json:"failed_flushes"`
	FlushInterval    string     `json:"flush_interval"`
}

// Status returns a point-in-time summary.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Status{
		Mode:           "async",
		PendingChanges: c.queue.len(),
		FlushedChanges: c.flushed,
		FailedFlushes:  c.flushFails,
		FlushInterval:  c.config.FlushInterval.String(),
	}
	if oldest := c.queue.oldest(); !oldest.IsZero() {
		s.OldestEnqueuedAt = &oldest
	}
	if !c.lastFlush.IsZero() {
		last := c.lastFlush
		s.LastFlushAt = &last
	}
	if c.lastErr != nil {
		s.LastFlushError = c.lastErr.Error()
	}
	return s
}
