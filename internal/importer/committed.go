package importer

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gestion2026/ledger/internal/ledger"
)

// committedFact is one candidate commitment row before project resolution.
type committedFact struct {
	root        string
	refDoc      string
	description string
	amount      decimal.Decimal
	currency    string
	docDate     *time.Time
}

// committedIdentity deliberately omits description and document date: two
// commitments for the same reference document, amount and currency are the
// same encumbrance even when the export rewords them or shifts the date.
func committedIdentity(projectID int64, refDoc string, amount decimal.Decimal, currency string) string {
	return identityKey(strconv.FormatInt(projectID, 10), refDoc, amountKey(amount), currency)
}

// ImportCommitted streams a committed-expense ("comprometido") export and
// appends only unseen commitments. The layout differs from the realized one
// (reference document and document date lead, the LCP code sits mid-row) and
// the two formats never share a parser. A run that queues nothing performs no
// store write at all.
func (e *Engine) ImportCommitted(ctx context.Context, r io.Reader) (*Result, error) {
	res := newResult(VariantCommitted)
	log := e.log.With().Str("run_id", res.RunID).Str("variant", string(res.Variant)).Logger()

	byRoot := make(map[string][]committedFact)

	err := eachRow(r, committedLayout, res, func(fields map[string]string) {
		amount := ParseAmount(fields["amount"])
		if amount.IsZero() {
			res.RowsSkipped++
			return
		}

		fact := committedFact{
			root:        RootCode(fields["code"]),
			refDoc:      fields["ref_doc"],
			description: fields["description"],
			amount:      amount,
			currency:    fields["currency"],
		}
		if d, ok := ParseDate(fields["doc_date"]); ok {
			fact.docDate = &d
		}
		byRoot[fact.root] = append(byRoot[fact.root], fact)
		res.RowsParsed++
	})
	if err != nil {
		return nil, fmt.Errorf("ImportCommitted: reading stream: %w", err)
	}

	projectIDs, idByRoot, err := resolveRoots(ctx, e.store, byRoot, res, log)
	if err != nil {
		return nil, fmt.Errorf("ImportCommitted: %w", err)
	}

	existing := make(map[string]struct{})
	if len(projectIDs) > 0 {
		stored, err := e.store.FindCommittedExpenses(ctx, projectIDs)
		if err != nil {
			return nil, fmt.Errorf("ImportCommitted: loading stored commitments: %w", err)
		}
		for _, row := range stored {
			existing[committedIdentity(row.ProjectID, row.RefDoc, row.Amount, row.Currency)] = struct{}{}
		}
	}

	var queued []ledger.CommittedExpense
	seen := make(map[string]struct{})
	for _, root := range sortedRoots(byRoot) {
		projectID, ok := idByRoot[root]
		if !ok {
			continue
		}
		for _, fact := range byRoot[root] {
			key := committedIdentity(projectID, fact.refDoc, fact.amount, fact.currency)
			if _, dup := seen[key]; dup {
				res.DuplicatesInFile++
			}
			seen[key] = struct{}{}

			if _, found := existing[key]; found {
				continue
			}
			queued = append(queued, ledger.CommittedExpense{
				ProjectID:   projectID,
				RefDoc:      fact.refDoc,
				Description: fact.description,
				Amount:      fact.amount,
				Currency:    fact.currency,
				DocDate:     fact.docDate,
			})
		}
	}

	if res.DuplicatesInFile > 0 {
		log.Warn().Int("duplicates_in_file", res.DuplicatesInFile).
			Msg("Export contains repeated identity tuples")
	}

	if len(queued) == 0 {
		// Pure no-op run: nothing reaches the store.
		res.FinishedAt = time.Now()
		e.recordRun(ctx, res)
		log.Info().
			Int("rows_parsed", res.RowsParsed).
			Int("projects_missing", res.ProjectsMissing).
			Msg("Committed-expense import found no new rows")
		return res, nil
	}

	for _, batch := range chunkRows(queued, insertBatchSize) {
		if err := e.store.InsertCommittedExpenses(ctx, batch); err != nil {
			return nil, fmt.Errorf("ImportCommitted: inserting batch %d: %w", res.BatchesCommitted+1, err)
		}
		res.BatchesCommitted++
		res.Inserted += len(batch)
	}

	res.FinishedAt = time.Now()
	e.recordRun(ctx, res)
	if e.sink != nil && res.Inserted > 0 {
		e.sink.MirrorCommitted(ctx, res.RunID, queued)
	}
	log.Info().
		Int("rows_parsed", res.RowsParsed).
		Int("rows_skipped", res.RowsSkipped).
		Int("projects_missing", res.ProjectsMissing).
		Int("inserted", res.Inserted).
		Int("batches", res.BatchesCommitted).
		Msg("Committed-expense import finished")
	return res, nil
}
