// Package importer is the import-and-reconciliation engine. It turns raw
// tab-separated ledger exports (budget lines, realized expenses, committed
// expenses) into idempotent mutations of the project ledger: budget files
// aggregate into per-project totals, expense files are diffed against
// persisted state by identity tuple so repeated imports never duplicate
// financial records.
package importer

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gestion2026/ledger/internal/ledger"
)

// Variant identifies one of the three export formats.
type Variant string

const (
	VariantBudget    Variant = "budget"
	VariantRealized  Variant = "realized"
	VariantCommitted Variant = "committed"
)

// ParseVariant maps a user-supplied name to a Variant. The Spanish export
// names ("real", "comprometido") are accepted as aliases.
func ParseVariant(s string) (Variant, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(VariantBudget), "presupuesto":
		return VariantBudget, true
	case string(VariantRealized), "real":
		return VariantRealized, true
	case string(VariantCommitted), "comprometido":
		return VariantCommitted, true
	}
	return "", false
}

// insertBatchSize bounds the payload of a single bulk insert. Each batch is
// an independent commit: a failure aborts the run but already committed
// batches stay.
const insertBatchSize = 300

// Result summarizes one import run. Row-level anomalies are only counted
// here; they never fail the run.
type Result struct {
	RunID   string  `json:"run_id"`
	Variant Variant `json:"variant"`

	LinesRead        int `json:"lines_read"`
	RowsParsed       int `json:"rows_parsed"`
	RowsSkipped      int `json:"rows_skipped"`
	DuplicatesInFile int `json:"duplicates_in_file"`
	ProjectsMissing  int `json:"projects_missing"`

	ProjectsUpserted int `json:"projects_upserted,omitempty"`
	Inserted         int `json:"inserted"`
	BatchesCommitted int `json:"batches_committed,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Engine runs imports against a ledger store. One Engine is safe to reuse;
// every run owns its own accumulation state.
type Engine struct {
	store ledger.Store
	log   zerolog.Logger
	sink  Sink
}

// New creates an import engine.
func New(store ledger.Store, log zerolog.Logger) *Engine {
	return &Engine{store: store, log: log}
}

func newResult(variant Variant) *Result {
	return &Result{
		RunID:     uuid.NewString(),
		Variant:   variant,
		StartedAt: time.Now(),
	}
}

// scanBufferSize allows single lines well beyond bufio's default; exports
// carry long free-text descriptions.
const scanBufferSize = 1 << 20

// eachRow streams r line by line and calls fn for every non-blank line that
// matches the layout's marker, passing the extracted fields. Blank lines,
// non-matching lines and short rows are counted on res and skipped. The file
// is never materialized in memory.
func eachRow(r io.Reader, l layout, res *Result, fn func(fields map[string]string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), scanBufferSize)

	for sc.Scan() {
		res.LinesRead++

		line := strings.TrimSpace(strings.TrimSuffix(sc.Text(), "\r"))
		if line == "" {
			continue
		}
		if !l.matches(line) {
			res.RowsSkipped++
			continue
		}
		fields, ok := l.extract(line)
		if !ok {
			res.RowsSkipped++
			continue
		}
		fn(fields)
	}
	return sc.Err()
}

