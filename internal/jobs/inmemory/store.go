package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gestion2026/ledger/internal/jobs"
)

// Store keeps job state in memory; it is lost on restart, which is acceptable
// because a job only describes one import run and the ledger itself is
// durable.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.ImportFileJob
}

// NewStore creates an empty in-memory job store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*jobs.ImportFileJob)}
}

// SaveJob inserts or replaces a job snapshot.
func (s *Store) SaveJob(ctx context.Context, job *jobs.ImportFileJob) error {
	if job.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *job
	s.jobs[job.JobID] = &cp
	return nil
}

// GetJob returns a copy of the job, or an error when unknown.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.ImportFileJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}
	cp := *job
	return &cp, nil
}

// ListJobs returns matching jobs, newest first.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.ImportFileJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*jobs.ImportFileJob
	for _, job := range s.jobs {
		if filter.Variant != "" && job.Variant != filter.Variant {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		cp := *job
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*jobs.ImportFileJob{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

var _ jobs.JobStore = (*Store)(nil)
