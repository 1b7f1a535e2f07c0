package importer

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gestion2026/ledger/internal/ledger"
)

// realizedFact is one candidate realized-expense row, keyed by its root code
// until project resolution.
type realizedFact struct {
	root        string
	description string
	amount      decimal.Decimal
	currency    string
	orderRef    string
	orderDate   *time.Time
}

func realizedIdentity(projectID int64, amount decimal.Decimal, currency, description string) string {
	return identityKey(strconv.FormatInt(projectID, 10), amountKey(amount), currency, description)
}

// ImportRealized streams a realized-expense export and appends only the facts
// not already persisted. Identity is (project, amount, currency, description);
// the diff runs against the stored snapshot for exactly the referenced
// projects. Inserts commit in independent 300-row batches, so a late batch
// failure leaves earlier batches in place.
func (e *Engine) ImportRealized(ctx context.Context, r io.Reader) (*Result, error) {
	res := newResult(VariantRealized)
	log := e.log.With().Str("run_id", res.RunID).Str("variant", string(res.Variant)).Logger()

	byRoot := make(map[string][]realizedFact)

	err := eachRow(r, realizedLayout, res, func(fields map[string]string) {
		amount := ParseAmount(fields["amount"])
		if amount.IsZero() {
			res.RowsSkipped++
			return
		}

		fact := realizedFact{
			root:        RootCode(fields["code"]),
			description: fields["description"],
			amount:      amount,
			currency:    fields["currency"],
			orderRef:    fields["order_ref"],
		}
		if d, ok := ParseDate(fields["order_date"]); ok {
			fact.orderDate = &d
		}
		byRoot[fact.root] = append(byRoot[fact.root], fact)
		res.RowsParsed++
	})
	if err != nil {
		return nil, fmt.Errorf("ImportRealized: reading stream: %w", err)
	}

	projectIDs, idByRoot, err := resolveRoots(ctx, e.store, byRoot, res, log)
	if err != nil {
		return nil, fmt.Errorf("ImportRealized: %w", err)
	}

	existing := make(map[string]struct{})
	if len(projectIDs) > 0 {
		stored, err := e.store.FindRealizedExpenses(ctx, projectIDs)
		if err != nil {
			return nil, fmt.Errorf("ImportRealized: loading stored expenses: %w", err)
		}
		for _, row := range stored {
			existing[realizedIdentity(row.ProjectID, row.Amount, row.Currency, row.Description)] = struct{}{}
		}
	}

	// Candidates are diffed against persisted state only; two equal rows in
	// the same file both pass the filter. That matches the export contract
	// (each line is a distinct cost event) and is surfaced via the
	// duplicates_in_file counter.
	var queued []ledger.RealizedExpense
	seen := make(map[string]struct{})
	for _, root := range sortedRoots(byRoot) {
		projectID, ok := idByRoot[root]
		if !ok {
			continue
		}
		for _, fact := range byRoot[root] {
			key := realizedIdentity(projectID, fact.amount, fact.currency, fact.description)
			if _, dup := seen[key]; dup {
				res.DuplicatesInFile++
			}
			seen[key] = struct{}{}

			if _, found := existing[key]; found {
				continue
			}
			queued = append(queued, ledger.RealizedExpense{
				ProjectID:   projectID,
				Description: fact.description,
				Amount:      fact.amount,
				Currency:    fact.currency,
				OrderRef:    fact.orderRef,
				OrderDate:   fact.orderDate,
			})
		}
	}

	if res.DuplicatesInFile > 0 {
		log.Warn().Int("duplicates_in_file", res.DuplicatesInFile).
			Msg("Export contains repeated identity tuples")
	}

	for _, batch := range chunkRows(queued, insertBatchSize) {
		if err := e.store.InsertRealizedExpenses(ctx, batch); err != nil {
			return nil, fmt.Errorf("ImportRealized: inserting batch %d: %w", res.BatchesCommitted+1, err)
		}
		res.BatchesCommitted++
		res.Inserted += len(batch)
	}

	res.FinishedAt = time.Now()
	e.recordRun(ctx, res)
	if e.sink != nil && res.Inserted > 0 {
		e.sink.MirrorRealized(ctx, res.RunID, queued)
	}
	log.Info().
		Int("rows_parsed", res.RowsParsed).
		Int("rows_skipped", res.RowsSkipped).
		Int("projects_missing", res.ProjectsMissing).
		Int("inserted", res.Inserted).
		Int("batches", res.BatchesCommitted).
		Msg("Realized-expense import finished")
	return res, nil
}

// resolveRoots bulk-resolves every distinct root code to its project ID in
// one store round trip. Roots without a project are dropped: their row count
// goes to ProjectsMissing and the rows never reach the store.
func resolveRoots[T any](ctx context.Context, store ledger.Store, byRoot map[string][]T, res *Result, log zerolog.Logger) ([]int64, map[string]int64, error) {
	if len(byRoot) == 0 {
		return nil, nil, nil
	}

	codes := sortedRoots(byRoot)
	refs, err := store.FindProjectsByCodes(ctx, codes)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving project codes: %w", err)
	}

	idByRoot := make(map[string]int64, len(refs))
	projectIDs := make([]int64, 0, len(refs))
	for _, ref := range refs {
		idByRoot[ref.LcpCode] = ref.ID
		projectIDs = append(projectIDs, ref.ID)
	}

	for root, facts := range byRoot {
		if _, ok := idByRoot[root]; !ok {
			res.ProjectsMissing += len(facts)
			log.Debug().Str("root_code", root).Int("rows", len(facts)).
				Msg("No project for root code, rows dropped")
		}
	}
	return projectIDs, idByRoot, nil
}

func sortedRoots[T any](byRoot map[string][]T) []string {
	roots := make([]string, 0, len(byRoot))
	for root := range byRoot {
		roots = append(roots, root)
	}
	sort.Strings(roots)
	return roots
}
