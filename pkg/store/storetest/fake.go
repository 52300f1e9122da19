// Package storetest provides an in-process store.Store for coordinator tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dd0wney/cluso-failover/pkg/store"
)

// ErrUnavailable is returned by every call while a Fake is down.
var ErrUnavailable = errors.New("store unavailable")

// Statement is one executed statement.
type Statement struct {
	SQL  string
	Args []any
}

// Responder computes the result of a statement. Returning an error fails it.
type Responder func(sql string, args []any) (*store.Result, error)

// Fake records committed statements and lets tests take it down or fail
// individual statements. Statements run inside a Tx become visible in
// Applied only once the Tx commits.
type Fake struct {
	mu         sync.Mutex
	name       string
	down       bool
	failOn     map[string]error
	failCommit error
	responder  Responder
	applied    []Statement
	calls      int
	begins     int
	rollbacks  int
	closed     bool
}

// New returns a reachable Fake with the given store name.
func New(name string) *Fake {
	return &Fake{name: name, failOn: make(map[string]error)}
}

func (f *Fake) Name() string { return f.name }

// SetDown makes every subsequent call fail with ErrUnavailable.
func (f *Fake) SetDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

// FailOn fails any statement whose text contains substr.
func (f *Fake) FailOn(substr string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[substr] = err
}

// ClearFailures removes every FailOn rule and any commit failure.
func (f *Fake) ClearFailures() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn = make(map[string]error)
	f.failCommit = nil
}

// FailCommit makes Tx.Commit return err.
func (f *Fake) FailCommit(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failCommit = err
}

// Respond installs a custom result function.
func (f *Fake) Respond(fn Responder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responder = fn
}

// Applied returns a copy of every committed statement in execution order.
func (f *Fake) Applied() []Statement {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Statement, len(f.applied))
	copy(out, f.applied)
	return out
}

// AppliedSQL returns just the statement texts of Applied.
func (f *Fake) AppliedSQL() []string {
	applied := f.Applied()
	out := make([]string, len(applied))
	for i, s := range applied {
		out[i] = s.SQL
	}
	return out
}

// Calls counts Query invocations, including failed ones and ones inside a Tx.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *Fake) Begins() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.begins
}

func (f *Fake) Rollbacks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rollbacks
}

// execLocked validates and evaluates one statement. f.mu must be held.
func (f *Fake) execLocked(sql string, args []any) (*store.Result, error) {
	f.calls++
	if f.closed {
		return nil, store.ErrClosed
	}
	if f.down {
		return nil, fmt.Errorf("%s: %w", f.name, ErrUnavailable)
	}
	for substr, err := range f.failOn {
		if strings.Contains(sql, substr) {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
	}

	res := &store.Result{Rows: []store.Row{}, RowsAffected: 1}
	if f.responder != nil {
		r, err := f.responder(sql, args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
		if r != nil {
			res = r
		}
	}
	res.Source = f.name
	return res, nil
}

func (f *Fake) Query(ctx context.Context, sql string, args ...any) (*store.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	res, err := f.execLocked(sql, args)
	if err != nil {
		return nil, err
	}
	f.applied = append(f.applied, Statement{SQL: sql, Args: args})
	return res, nil
}

func (f *Fake) Begin(ctx context.Context) (store.Tx, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, fmt.Errorf("%s: %w", f.name, ErrUnavailable)
	}
	f.begins++
	return &fakeTx{f: f}, nil
}

func (f *Fake) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return fmt.Errorf("%s: %w", f.name, ErrUnavailable)
	}
	return nil
}

func (f *Fake) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

type fakeTx struct {
	f       *Fake
	pending []Statement
	done    bool
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (*store.Result, error) {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if t.done {
		return nil, errors.New("transaction already closed")
	}
	res, err := t.f.execLocked(sql, args)
	if err != nil {
		return nil, err
	}
	t.pending = append(t.pending, Statement{SQL: sql, Args: args})
	return res, nil
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if t.done {
		return errors.New("transaction already closed")
	}
	t.done = true
	if t.f.down {
		return fmt.Errorf("%s: %w", t.f.name, ErrUnavailable)
	}
	if t.f.failCommit != nil {
		return fmt.Errorf("%s: %w", t.f.name, t.f.failCommit)
	}
	t.f.applied = append(t.f.applied, t.pending...)
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true
	t.f.rollbacks++
	return nil
}

var _ store.Store = (*Fake)(nil)
