package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gestion2026/ledger/internal/jobs"
)

// Queue is an in-memory import job queue built on a buffered channel. It is
// safe for concurrent use and suitable for a single-instance deployment;
// imports are heavyweight and rare, so one worker drains the channel and two
// imports never run concurrently (callers must otherwise serialize them).
type Queue struct {
	jobChan   chan *jobs.ImportFileJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	store     jobs.JobStore
	closed    bool
}

// NewQueue creates a queue holding up to bufferSize pending imports.
func NewQueue(bufferSize int, store jobs.JobStore) *Queue {
	return &Queue{
		jobChan:   make(chan *jobs.ImportFileJob, bufferSize),
		closeChan: make(chan struct{}),
		store:     store,
	}
}

// PublishImport enqueues a job, assigning an ID and pending status.
func (q *Queue) PublishImport(ctx context.Context, job *jobs.ImportFileJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}

	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("saving job: %w", err)
		}
	}

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return fmt.Errorf("queue is closed")
	}
}

// Start runs the single worker until the context or queue closes.
func (q *Queue) Start(ctx context.Context, handler jobs.Handler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return fmt.Errorf("queue is closed")
	}
	q.mu.RUnlock()

	q.wg.Add(1)
	go q.worker(ctx, handler)
	return nil
}

func (q *Queue) worker(ctx context.Context, handler jobs.Handler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}
			q.processJob(ctx, job, handler)
		}
	}
}

// processJob runs one import. A handler error marks the job failed; the job
// is never re-enqueued.
func (q *Queue) processJob(ctx context.Context, job *jobs.ImportFileJob, handler jobs.Handler) {
	now := time.Now()
	job.Status = jobs.JobStatusRunning
	job.StartedAt = &now
	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}

	err := handler(ctx, job)

	completed := time.Now()
	job.CompletedAt = &completed
	if err != nil {
		job.Status = jobs.JobStatusFailed
		job.Error = err.Error()
	} else {
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
	}
	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}
}

// Stop closes the queue and waits for the in-flight job.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements Publisher.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
