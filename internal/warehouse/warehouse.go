// Package warehouse mirrors import activity to BigQuery for dashboards. The
// mirror is strictly best-effort: the Postgres ledger is the system of
// record and a mirror failure never fails an import.
package warehouse

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"

	"github.com/gestion2026/ledger/internal/importer"
	"github.com/gestion2026/ledger/internal/ledger"
)

const (
	runsTable     = "ledger_runs"
	expensesTable = "ledger_expenses"
)

// RunRow is the per-import summary streamed to ledger_runs.
type RunRow struct {
	RunID            string    `bigquery:"run_id"`
	Variant          string    `bigquery:"variant"`
	LinesRead        int       `bigquery:"lines_read"`
	RowsParsed       int       `bigquery:"rows_parsed"`
	RowsSkipped      int       `bigquery:"rows_skipped"`
	DuplicatesInFile int       `bigquery:"duplicates_in_file"`
	ProjectsMissing  int       `bigquery:"projects_missing"`
	ProjectsUpserted int       `bigquery:"projects_upserted"`
	Inserted         int       `bigquery:"inserted"`
	StartedTS        time.Time `bigquery:"started_ts"`
	FinishedTS       time.Time `bigquery:"finished_ts"`
}

// ExpenseRow is one mirrored expense fact in ledger_expenses.
type ExpenseRow struct {
	RunID       string            `bigquery:"run_id"`
	Kind        string            `bigquery:"kind"` // "realized" | "committed"
	ProjectID   int64             `bigquery:"project_id"`
	RefDoc      string            `bigquery:"ref_doc"`
	Description string            `bigquery:"description"`
	Amount      float64           `bigquery:"amount"`
	Currency    string            `bigquery:"currency"`
	DocDate     bigquery.NullDate `bigquery:"doc_date"`
	InsertedTS  time.Time         `bigquery:"inserted_ts"`
}

// Mirror holds a shared BigQuery client targeting one dataset.
type Mirror struct {
	client  *bigquery.Client
	dataset string
	log     zerolog.Logger
}

// NewMirror creates a mirror for the given GCP project and dataset.
func NewMirror(ctx context.Context, projectID, dataset string, log zerolog.Logger) (*Mirror, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("warehouse: creating client: %w", err)
	}
	return &Mirror{client: client, dataset: dataset, log: log}, nil
}

// Close releases the BigQuery client.
func (m *Mirror) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}

// RecordRun streams the run summary. Errors are logged and swallowed.
func (m *Mirror) RecordRun(ctx context.Context, res *importer.Result) {
	row := &RunRow{
		RunID:            res.RunID,
		Variant:          string(res.Variant),
		LinesRead:        res.LinesRead,
		RowsParsed:       res.RowsParsed,
		RowsSkipped:      res.RowsSkipped,
		DuplicatesInFile: res.DuplicatesInFile,
		ProjectsMissing:  res.ProjectsMissing,
		ProjectsUpserted: res.ProjectsUpserted,
		Inserted:         res.Inserted,
		StartedTS:        res.StartedAt,
		FinishedTS:       res.FinishedAt,
	}

	inserter := m.client.Dataset(m.dataset).Table(runsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		m.log.Warn().Err(err).Str("run_id", res.RunID).Msg("Warehouse run mirror failed")
	}
}

// MirrorRealized streams newly inserted realized expenses.
func (m *Mirror) MirrorRealized(ctx context.Context, runID string, rows []ledger.RealizedExpense) {
	if len(rows) == 0 {
		return
	}
	out := make([]*ExpenseRow, 0, len(rows))
	now := time.Now()
	for _, e := range rows {
		out = append(out, &ExpenseRow{
			RunID:       runID,
			Kind:        "realized",
			ProjectID:   e.ProjectID,
			RefDoc:      e.OrderRef,
			Description: e.Description,
			Amount:      e.Amount.InexactFloat64(),
			Currency:    e.Currency,
			DocDate:     nullDate(e.OrderDate),
			InsertedTS:  now,
		})
	}
	m.putExpenses(ctx, runID, out)
}

// MirrorCommitted streams newly inserted commitments.
func (m *Mirror) MirrorCommitted(ctx context.Context, runID string, rows []ledger.CommittedExpense) {
	if len(rows) == 0 {
		return
	}
	out := make([]*ExpenseRow, 0, len(rows))
	now := time.Now()
	for _, e := range rows {
		out = append(out, &ExpenseRow{
			RunID:       runID,
			Kind:        "committed",
			ProjectID:   e.ProjectID,
			RefDoc:      e.RefDoc,
			Description: e.Description,
			Amount:      e.Amount.InexactFloat64(),
			Currency:    e.Currency,
			DocDate:     nullDate(e.DocDate),
			InsertedTS:  now,
		})
	}
	m.putExpenses(ctx, runID, out)
}

func (m *Mirror) putExpenses(ctx context.Context, runID string, rows []*ExpenseRow) {
	inserter := m.client.Dataset(m.dataset).Table(expensesTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		m.log.Warn().Err(err).Str("run_id", runID).Int("rows", len(rows)).
			Msg("Warehouse expense mirror failed")
	}
}

// CurrencyTotal is one aggregate returned by TotalsByCurrency.
type CurrencyTotal struct {
	Kind     string  `bigquery:"kind"`
	Currency string  `bigquery:"currency"`
	Total    float64 `bigquery:"total"`
	Rows     int64   `bigquery:"row_count"`
}

// TotalsByCurrency reads mirrored totals back, grouped by kind and currency.
func (m *Mirror) TotalsByCurrency(ctx context.Context) ([]CurrencyTotal, error) {
	q := m.client.Query(fmt.Sprintf(`
		SELECT kind, currency, SUM(amount) AS total, COUNT(*) AS row_count
		FROM %s.%s
		GROUP BY kind, currency
		ORDER BY kind, currency
	`, m.dataset, expensesTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("warehouse: totals query: %w", err)
	}

	var totals []CurrencyTotal
	for {
		var row CurrencyTotal
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("warehouse: totals iter: %w", err)
		}
		totals = append(totals, row)
	}
	return totals, nil
}

func nullDate(t *time.Time) bigquery.NullDate {
	if t == nil {
		return bigquery.NullDate{}
	}
	return bigquery.NullDate{Date: civil.DateOf(*t), Valid: true}
}
