package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Options configures a PostgreSQL connection pool.
type Options struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration
}

// DefaultOptions returns pool settings suitable for a single coordinator.
func DefaultOptions(url string) Options {
	return Options{
		URL:             url,
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 1 * time.Minute,
		ConnectTimeout:  5 * time.Second,
	}
}

// PGStore is a Store backed by a pgx connection pool.
type PGStore struct {
	name string
	pool *pgxpool.Pool
}

// Open creates a pool for the named copy. The pool is created lazily by pgx,
// so an unreachable database does not fail Open; the coordinators are
// expected to run while one copy is down. Use Ping to check reachability.
func Open(ctx context.Context, name string, opts Options) (*PGStore, error) {
	config, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s database URL: %w", name, err)
	}

	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	if opts.MinConns >= 0 {
		config.MinConns = opts.MinConns
	}
	if opts.MaxConnLifetime > 0 {
		config.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = opts.MaxConnIdleTime
	}
	if opts.ConnectTimeout > 0 {
		config.ConnConfig.ConnectTimeout = opts.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s connection pool: %w", name, err)
	}

	return &PGStore{name: name, pool: pool}, nil
}

// Name returns the copy name given to Open.
func (s *PGStore) Name() string {
	return s.name
}

// Query runs one statement on a pooled connection.
func (s *PGStore) Query(ctx context.Context, sql string, args ...any) (*Result, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s query failed: %w", s.name, err)
	}
	return collect(s.name, rows)
}

// Begin acquires a connection from the pool and starts a transaction on it.
func (s *PGStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s begin failed: %w", s.name, err)
	}
	return &pgTx{name: s.name, tx: tx}, nil
}

// Ping checks database connectivity
func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool
func (s *PGStore) Close() {
	s.pool.Close()
}

type pgTx struct {
	name string
	tx   pgx.Tx
}

func (t *pgTx) Query(ctx context.Context, sql string, args ...any) (*Result, error) {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s query failed: %w", t.name, err)
	}
	return collect(t.name, rows)
}

func (t *pgTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s commit failed: %w", t.name, err)
	}
	return nil
}

func (t *pgTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("%s rollback failed: %w", t.name, err)
	}
	return nil
}

// collect drains rows into a Result. Statement errors (constraint
// violations and the like) only surface from rows.Err.
func collect(source string, rows pgx.Rows) (*Result, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	res := &Result{Source: source, Columns: columns, Rows: []Row{}}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("%s scan failed: %w", source, err)
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s query failed: %w", source, err)
	}

	rows.Close()
	res.RowsAffected = rows.CommandTag().RowsAffected()
	return res, nil
}

var _ Store = (*PGStore)(nil)
