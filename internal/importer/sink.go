package importer

import (
	"context"

	"github.com/gestion2026/ledger/internal/ledger"
)

// Sink receives a copy of successful import activity for analytics. Sink
// implementations must never fail the import: all methods are fire-and-forget
// from the engine's point of view.
type Sink interface {
	RecordRun(ctx context.Context, res *Result)
	MirrorRealized(ctx context.Context, runID string, rows []ledger.RealizedExpense)
	MirrorCommitted(ctx context.Context, runID string, rows []ledger.CommittedExpense)
}

// WithSink attaches a sink and returns the engine for chaining.
func (e *Engine) WithSink(sink Sink) *Engine {
	e.sink = sink
	return e
}

func (e *Engine) recordRun(ctx context.Context, res *Result) {
	if e.sink != nil {
		e.sink.RecordRun(ctx, res)
	}
}
