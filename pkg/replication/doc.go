// Package replication implements asynchronous queued replication from a
// primary store to a secondary store.
//
// Writes are committed on the primary and recorded in an in-memory FIFO of
// PendingChange entries. A background loop periodically replays the whole
// queue against the secondary inside a single transaction and drops the
// replayed entries only once that transaction commits. A failed flush leaves
// the queue untouched and is retried on the next tick, so one permanently
// failing statement blocks everything queued behind it.
//
// Reads go to the primary and fall back to the secondary when the primary
// cannot answer.
//
// The queue lives only in memory: changes not yet flushed are lost if the
// process exits without a successful final flush.
package replication
