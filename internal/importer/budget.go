package importer

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gestion2026/ledger/internal/ledger"
)

// budgetEntry is the running aggregate for one root code.
type budgetEntry struct {
	name     string
	capTotal decimal.Decimal
	expTotal decimal.Decimal
}

// ImportBudget streams a budget export and upserts one project per distinct
// root code: name last-write-wins, capital and expense subtotals fully
// recomputed from this file. All upserts commit in a single transaction, so
// re-importing the same file is idempotent and importing a different file
// replaces previous totals instead of adding to them.
func (e *Engine) ImportBudget(ctx context.Context, r io.Reader) (*Result, error) {
	res := newResult(VariantBudget)
	log := e.log.With().Str("run_id", res.RunID).Str("variant", string(res.Variant)).Logger()

	projects := make(map[string]*budgetEntry)

	err := eachRow(r, budgetLayout, res, func(fields map[string]string) {
		amount := ParseAmount(fields["amount"])
		if amount.IsZero() {
			res.RowsSkipped++
			return
		}

		code := fields["code"]
		root := RootCode(code)

		entry, ok := projects[root]
		if !ok {
			entry = &budgetEntry{capTotal: decimal.Zero, expTotal: decimal.Zero}
			projects[root] = entry
		}
		entry.name = fields["name"]
		if IsExpense(code) {
			entry.expTotal = entry.expTotal.Add(amount)
		} else {
			entry.capTotal = entry.capTotal.Add(amount)
		}
		res.RowsParsed++
	})
	if err != nil {
		return nil, fmt.Errorf("ImportBudget: reading stream: %w", err)
	}

	// Deterministic upsert order keeps runs comparable in logs and avoids
	// lock-order churn between concurrent transactions.
	roots := make([]string, 0, len(projects))
	for root := range projects {
		roots = append(roots, root)
	}
	sort.Strings(roots)

	err = e.store.RunInTransaction(ctx, func(tx ledger.Store) error {
		for _, root := range roots {
			entry := projects[root]
			up := ledger.ProjectUpsert{
				LcpCode:  root,
				Name:     entry.name,
				CapTotal: entry.capTotal,
				ExpTotal: entry.expTotal,
			}
			if err := tx.UpsertProject(ctx, up); err != nil {
				return fmt.Errorf("upsert project %s: %w", root, err)
			}
			res.ProjectsUpserted++
		}
		return nil
	})
	if err != nil {
		res.ProjectsUpserted = 0
		return nil, fmt.Errorf("ImportBudget: committing upserts: %w", err)
	}

	res.FinishedAt = time.Now()
	e.recordRun(ctx, res)
	log.Info().
		Int("lines_read", res.LinesRead).
		Int("rows_parsed", res.RowsParsed).
		Int("rows_skipped", res.RowsSkipped).
		Int("projects_upserted", res.ProjectsUpserted).
		Msg("Budget import finished")
	return res, nil
}
