// Package store defines the handle the coordinators hold on each data copy.
//
// A Store is a long-lived session to one PostgreSQL database (primary or
// secondary). Statements are always parameterized: callers pass SQL text with
// $n placeholders and an ordered argument list, never interpolated values.
package store

import (
	"context"
	"errors"
)

// Names used for the two copies in logs, metrics and Result.Source.
const (
	PrimaryName   = "primary"
	SecondaryName = "secondary"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Row is one result row keyed by column name.
type Row map[string]any

// Result is the outcome of one statement.
type Result struct {
	Source       string   `json:"source"` // name of the store that produced the result
	Columns      []string `json:"columns,omitempty"`
	Rows         []Row    `json:"rows"`
	RowsAffected int64    `json:"rows_affected"`
}

// First returns the first row, or nil when the result is empty.
func (r *Result) First() Row {
	if r == nil || len(r.Rows) == 0 {
		return nil
	}
	return r.Rows[0]
}

// Querier executes one parameterized statement.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (*Result, error)
}

// Store is a session to one data copy, owned by a coordinator for the
// lifetime of the process.
type Store interface {
	Querier
	// Name identifies the copy ("primary" or "secondary").
	Name() string
	// Begin acquires a connection and opens a transaction on it. The
	// connection is released by Commit or Rollback.
	Begin(ctx context.Context) (Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Tx is a transaction bound to a single connection.
type Tx interface {
	Querier
	Commit(ctx context.Context) error
	// Rollback is safe to call after Commit; it is then a no-op.
	Rollback(ctx context.Context) error
}
