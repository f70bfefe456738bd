package engine

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// The engine talks to the database through the narrow surface below instead
// of a concrete driver. *pgxpool.Pool is adapted by PoolGateway; tests supply
// in-memory fakes.

// Row is a single-row query result.
type Row interface {
	Scan(dest ...any) error
}

// Rows is a multi-row query result.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// BatchResults exposes the per-statement results of a sent batch.
type BatchResults interface {
	Exec() (pgconn.CommandTag, error)
	Close() error
}

// Tx is one transaction. An import run owns exactly one Tx for its whole
// lifetime: commit on success, rollback on any unhandled failure.
type Tx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
	SendBatch(ctx context.Context, b *pgx.Batch) BatchResults
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Gateway opens transactions. The engine assumes exclusive, non-reentrant use
// of whatever connection backs it; concurrent imports must be serialized by
// the caller.
type Gateway interface {
	Begin(ctx context.Context) (Tx, error)
}

// Querier is the read-only slice of the pool used outside import runs (run
// history listings). Satisfied by *pgxpool.Pool directly.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PoolGateway adapts a pgx connection pool to the Gateway interface.
type PoolGateway struct {
	Pool *pgxpool.Pool
}

func (g PoolGateway) Begin(ctx context.Context) (Tx, error) {
	tx, err := g.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return pgxTx{tx}, nil
}

type pgxTx struct {
	tx pgx.Tx
}

func (t pgxTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.tx.Exec(ctx, sql, args...)
}

func (t pgxTx) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (t pgxTx) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return t.tx.QueryRow(ctx, sql, args...)
}

func (t pgxTx) SendBatch(ctx context.Context, b *pgx.Batch) BatchResults {
	return t.tx.SendBatch(ctx, b)
}

func (t pgxTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t pgxTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }
