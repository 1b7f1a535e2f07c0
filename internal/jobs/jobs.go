// Package jobs defines the async import job model and the queue/store
// abstractions behind the API's ?async=1 imports.
package jobs

import (
	"context"
	"time"

	"github.com/gestion2026/ledger/internal/importer"
)

// JobStatus is the lifecycle state of an import job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// ImportFileJob is one queued file import. There is no automatic retry: a
// failed import stays failed and must be re-submitted deliberately, because a
// reconciler that died mid-run may already have committed batches.
type ImportFileJob struct {
	JobID     string           `json:"job_id"`
	Variant   importer.Variant `json:"variant"`
	SourceURI string           `json:"source_uri"`

	Status JobStatus `json:"status"`
	Error  string    `json:"error,omitempty"`

	// Result is set once the import finished successfully.
	Result *importer.Result `json:"result,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Handler processes one job; the returned error marks the job failed.
type Handler func(ctx context.Context, job *ImportFileJob) error

// Publisher enqueues import jobs.
type Publisher interface {
	PublishImport(ctx context.Context, job *ImportFileJob) error
	Close() error
}

// Consumer drains the queue with a handler.
type Consumer interface {
	Start(ctx context.Context, handler Handler) error
	Stop(ctx context.Context) error
}

// JobStore tracks job state for the status endpoints.
type JobStore interface {
	SaveJob(ctx context.Context, job *ImportFileJob) error
	GetJob(ctx context.Context, jobID string) (*ImportFileJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*ImportFileJob, error)
}

// JobFilter narrows ListJobs results.
type JobFilter struct {
	Variant importer.Variant
	Status  JobStatus
	Limit   int
	Offset  int
}
