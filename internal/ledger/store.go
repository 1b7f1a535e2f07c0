package ledger

import (
	"context"
	"errors"
)

// ErrNotFound is returned by lookups when no matching record exists.
var ErrNotFound = errors.New("ledger: not found")

// Store is the durable project ledger. The import engine only talks to this
// interface; persistence mechanics (connection pooling, SQL, migrations) live
// behind it.
type Store interface {
	// FindProjectsByCodes resolves root codes to project refs. Codes with no
	// matching project are simply absent from the result, not an error.
	FindProjectsByCodes(ctx context.Context, codes []string) ([]ProjectRef, error)

	// UpsertProject inserts a project by lcp code or overwrites its name and
	// totals when the code already exists. Status is untouched on update and
	// defaults to ABIERTO on insert.
	UpsertProject(ctx context.Context, p ProjectUpsert) error

	// FindRealizedExpenses loads all stored realized expenses for exactly the
	// given project IDs.
	FindRealizedExpenses(ctx context.Context, projectIDs []int64) ([]RealizedExpense, error)

	// FindCommittedExpenses loads all stored committed expenses for exactly
	// the given project IDs.
	FindCommittedExpenses(ctx context.Context, projectIDs []int64) ([]CommittedExpense, error)

	// InsertRealizedExpenses bulk-inserts rows. Callers batch; one call is one
	// independent store round trip.
	InsertRealizedExpenses(ctx context.Context, rows []RealizedExpense) error

	// InsertCommittedExpenses bulk-inserts rows.
	InsertCommittedExpenses(ctx context.Context, rows []CommittedExpense) error

	// RunInTransaction runs fn against a transaction-bound Store. fn returning
	// an error rolls everything back and returns that error unchanged.
	RunInTransaction(ctx context.Context, fn func(Store) error) error

	// Read/update surface for the API.
	ListProjects(ctx context.Context) ([]Project, error)
	GetProjectByCode(ctx context.Context, lcpCode string) (*Project, error)
	GetProjectRealized(ctx context.Context, lcpCode string) (*Project, []RealizedExpense, error)
	GetProjectCommitted(ctx context.Context, lcpCode string) (*Project, []CommittedExpense, error)
	Stats(ctx context.Context) (*Stats, error)
	UpdateProjectStatus(ctx context.Context, id int64, status ProjectStatus) (*Project, error)
}
