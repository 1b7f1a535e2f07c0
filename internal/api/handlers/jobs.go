package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gestion2026/ledger/internal/api/middleware"
	"github.com/gestion2026/ledger/internal/importer"
	"github.com/gestion2026/ledger/internal/jobs"
)

// JobsHandler serves import job status.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates the jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// GetJob handles GET /api/jobs/{id}.
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs.
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Variant: importer.Variant(query.Get("variant")),
		Status:  jobs.JobStatus(query.Get("status")),
	}

	jobList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobList,
		"count": len(jobList),
	})
}
