// Package postgres implements the ledger store on PostgreSQL via pgx.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gestion2026/ledger/internal/ledger"
)

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so every
// query method works identically inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Store is the pgx-backed ledger.Store. A Store returned by Open runs each
// call on the pool; RunInTransaction yields a tx-bound copy.
type Store struct {
	db   querier
	pool *pgxpool.Pool
}

var _ ledger.Store = (*Store)(nil)

// Open connects a pool to databaseURL and pings it.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Store{db: pool, pool: pool}, nil
}

// Close releases the pool. Tx-bound stores have no pool and ignore Close.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// RunInTransaction runs fn against a transaction-bound store. An error from
// fn rolls back and is returned unchanged. Calling it on an already
// tx-bound store joins the surrounding transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ledger.Store) error) error {
	if s.pool == nil {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Store{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// numeric bridges decimal.Decimal and the wire NUMERIC without float
// round-trips.
func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func toDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
