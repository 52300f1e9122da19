package replication

import (
	"time"

	"github.com/google/uuid"
)

// PendingChange is a write committed on the primary that has not yet been
// replayed on the secondary.
type PendingChange struct {
	ID         string    `json:"id"`
	SQL        string    `json:"sql"`
	Args       []any     `json:"args"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

func newPendingChange(sql string, args []any, now time.Time) PendingChange {
	return PendingChange{
		ID:         uuid.NewString(),
		SQL:        sql,
		Args:       append([]any(nil), args...),
		EnqueuedAt: now,
	}
}

// pendingQueue is the ordered buffer of unflushed changes. It is not safe
// for concurrent use; the coordinator guards it.
type pendingQueue struct {
	changes []PendingChange
}

func (q *pendingQueue) push(c PendingChange) int {
	q.changes = append(q.changes, c)
	return len(q.changes)
}

func (q *pendingQueue) len() int {
	return len(q.changes)
}

// snapshot copies the queue in arrival order.
func (q *pendingQueue) snapshot() []PendingChange {
	out := make([]PendingChange, len(q.changes))
	for i, c := range q.changes {
		c.Args = append([]any(nil), c.Args...)
		out[i] = c
	}
	return out
}

// dropHead removes the n oldest changes.
func (q *pendingQueue) dropHead(n int) {
	if n >= len(q.changes) {
		q.changes = nil
		return
	}
	q.changes = append([]PendingChange(nil), q.changes[n:]...)
}

func (q *pendingQueue) oldest() time.Time {
	if len(q.changes) == 0 {
		return time.Time{}
	}
	return q.changes[0].EnqueuedAt
}
