package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gestion2026/ledger/internal/ledger"
)

// FindRealizedExpenses loads every stored realized expense for exactly the
// given project IDs (never the whole table).
func (s *Store) FindRealizedExpenses(ctx context.Context, projectIDs []int64) ([]ledger.RealizedExpense, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, project_id, description, amount, currency, order_ref, order_date
		FROM realized_expenses
		WHERE project_id = ANY($1)
	`, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("FindRealizedExpenses: query: %w", err)
	}
	defer rows.Close()

	var out []ledger.RealizedExpense
	for rows.Next() {
		var (
			e      ledger.RealizedExpense
			amount pgtype.Numeric
		)
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Description, &amount, &e.Currency, &e.OrderRef, &e.OrderDate); err != nil {
			return nil, fmt.Errorf("FindRealizedExpenses: scan: %w", err)
		}
		e.Amount = toDecimal(amount)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FindRealizedExpenses: rows: %w", err)
	}
	return out, nil
}

// FindCommittedExpenses loads every stored commitment for exactly the given
// project IDs.
func (s *Store) FindCommittedExpenses(ctx context.Context, projectIDs []int64) ([]ledger.CommittedExpense, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, project_id, ref_doc, description, amount, currency, doc_date
		FROM committed_expenses
		WHERE project_id = ANY($1)
	`, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("FindCommittedExpenses: query: %w", err)
	}
	defer rows.Close()

	var out []ledger.CommittedExpense
	for rows.Next() {
		var (
			e      ledger.CommittedExpense
			amount pgtype.Numeric
		)
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.RefDoc, &e.Description, &amount, &e.Currency, &e.DocDate); err != nil {
			return nil, fmt.Errorf("FindCommittedExpenses: scan: %w", err)
		}
		e.Amount = toDecimal(amount)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FindCommittedExpenses: rows: %w", err)
	}
	return out, nil
}

// InsertRealizedExpenses bulk-inserts one batch via COPY.
func (s *Store) InsertRealizedExpenses(ctx context.Context, batch []ledger.RealizedExpense) error {
	if len(batch) == 0 {
		return nil
	}

	src := pgx.CopyFromSlice(len(batch), func(i int) ([]any, error) {
		e := batch[i]
		return []any{e.ProjectID, e.Description, numeric(e.Amount), e.Currency, e.OrderRef, e.OrderDate}, nil
	})
	n, err := s.db.CopyFrom(ctx,
		pgx.Identifier{"realized_expenses"},
		[]string{"project_id", "description", "amount", "currency", "order_ref", "order_date"},
		src)
	if err != nil {
		return fmt.Errorf("InsertRealizedExpenses: copy: %w", err)
	}
	if int(n) != len(batch) {
		return fmt.Errorf("InsertRealizedExpenses: copied %d of %d rows", n, len(batch))
	}
	return nil
}

// InsertCommittedExpenses bulk-inserts one batch via COPY.
func (s *Store) InsertCommittedExpenses(ctx context.Context, batch []ledger.CommittedExpense) error {
	if len(batch) == 0 {
		return nil
	}

	src := pgx.CopyFromSlice(len(batch), func(i int) ([]any, error) {
		e := batch[i]
		return []any{e.ProjectID, e.RefDoc, e.Description, numeric(e.Amount), e.Currency, e.DocDate}, nil
	})
	n, err := s.db.CopyFrom(ctx,
		pgx.Identifier{"committed_expenses"},
		[]string{"project_id", "ref_doc", "description", "amount", "currency", "doc_date"},
		src)
	if err != nil {
		return fmt.Errorf("InsertCommittedExpenses: copy: %w", err)
	}
	if int(n) != len(batch) {
		return fmt.Errorf("InsertCommittedExpenses: copied %d of %d rows", n, len(batch))
	}
	return nil
}

// GetProjectRealized returns a project and its realized expenses.
func (s *Store) GetProjectRealized(ctx context.Context, lcpCode string) (*ledger.Project, []ledger.RealizedExpense, error) {
	p, err := s.GetProjectByCode(ctx, lcpCode)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.FindRealizedExpenses(ctx, []int64{p.ID})
	if err != nil {
		return nil, nil, err
	}
	return p, rows, nil
}

// GetProjectCommitted returns a project and its committed expenses.
func (s *Store) GetProjectCommitted(ctx context.Context, lcpCode string) (*ledger.Project, []ledger.CommittedExpense, error) {
	p, err := s.GetProjectByCode(ctx, lcpCode)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.FindCommittedExpenses(ctx, []int64{p.ID})
	if err != nil {
		return nil, nil, err
	}
	return p, rows, nil
}
