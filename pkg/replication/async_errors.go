package replication

import "errors"

var (
	// ErrWrite means the primary rejected a write. The pending queue is untouched.
	ErrWrite = errors.New("write to primary failed")
	// ErrRead means neither primary nor secondary could answer a read.
	ErrRead = errors.New("read failed on primary and secondary")
	// ErrFlush means a replay transaction on the secondary failed. The queue
	// is preserved for the next attempt; this never reaches a caller of Write.
	ErrFlush = errors.New("flush to secondary failed")
	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("flush loop already started")
)
