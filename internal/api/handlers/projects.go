// Package handlers implements the REST surface: file imports, project reads,
// dashboard stats and status updates.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gestion2026/ledger/internal/api/middleware"
	"github.com/gestion2026/ledger/internal/importer"
	"github.com/gestion2026/ledger/internal/intake"
	"github.com/gestion2026/ledger/internal/jobs"
	"github.com/gestion2026/ledger/internal/ledger"
)

// ProjectsHandler serves everything under /api/projects.
type ProjectsHandler struct {
	store     ledger.Store
	engine    *importer.Engine
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewProjectsHandler creates the projects handler.
func NewProjectsHandler(store ledger.Store, engine *importer.Engine, publisher jobs.Publisher, log zerolog.Logger) *ProjectsHandler {
	return &ProjectsHandler{
		store:     store,
		engine:    engine,
		publisher: publisher,
		log:       log,
	}
}

// ImportFile handles POST /api/projects/import/{variant}. The multipart file
// is spooled to a temp file (the engine consumes a line stream, not the
// request body directly) and either imported synchronously or, with
// ?async=1, handed to the job queue.
func (h *ProjectsHandler) ImportFile(w http.ResponseWriter, r *http.Request) {
	variant, ok := importer.ParseVariant(r.PathValue("variant"))
	if !ok {
		middleware.WriteError(w, http.StatusBadRequest, "Unknown import variant")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Missing file upload")
		return
	}
	defer file.Close()

	tempPath, err := spoolUpload(file, header.Filename)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to spool upload")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	if r.URL.Query().Get("async") == "1" {
		job := &jobs.ImportFileJob{Variant: variant, SourceURI: tempPath}
		if err := h.publisher.PublishImport(r.Context(), job); err != nil {
			os.Remove(tempPath)
			h.log.Error().Err(err).Msg("Failed to enqueue import job")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue import")
			return
		}
		middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
			"job_id":  job.JobID,
			"variant": string(variant),
			"status":  string(job.Status),
		})
		return
	}
	defer os.Remove(tempPath)

	res, err := RunImport(r.Context(), h.engine, variant, tempPath)
	if err != nil {
		h.log.Error().Err(err).Str("variant", string(variant)).Msg("Import failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Import failed: "+err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusOK, res)
}

// RunImport opens the source stream and dispatches to the matching pipeline.
// Shared by the sync path and the job worker.
func RunImport(ctx context.Context, engine *importer.Engine, variant importer.Variant, ref string) (*importer.Result, error) {
	stream, err := intake.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	switch variant {
	case importer.VariantBudget:
		return engine.ImportBudget(ctx, stream)
	case importer.VariantRealized:
		return engine.ImportRealized(ctx, stream)
	case importer.VariantCommitted:
		return engine.ImportCommitted(ctx, stream)
	}
	return nil, fmt.Errorf("unknown variant %q", variant)
}

// spoolUpload writes the upload to a uniquely named temp file and returns its
// path. The caller owns removal.
func spoolUpload(src io.Reader, originalName string) (string, error) {
	dir := filepath.Join(os.TempDir(), "ledger-uploads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload dir: %w", err)
	}

	name := uuid.NewString() + "-" + filepath.Base(originalName)
	path := filepath.Join(dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	return path, nil
}

// ListProjects handles GET /api/projects.
func (h *ProjectsHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.ListProjects(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list projects")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list projects")
		return
	}
	if projects == nil {
		projects = []ledger.Project{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"projects": projects,
		"count":    len(projects),
	})
}

// GetProject handles GET /api/projects/{code}.
func (h *ProjectsHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(r.PathValue("code"))

	project, err := h.store.GetProjectByCode(r.Context(), code)
	if errors.Is(err, ledger.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Project not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("lcp_code", code).Msg("Failed to get project")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get project")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, project)
}

// GetProjectRealized handles GET /api/projects/{code}/realized.
func (h *ProjectsHandler) GetProjectRealized(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(r.PathValue("code"))

	project, rows, err := h.store.GetProjectRealized(r.Context(), code)
	if errors.Is(err, ledger.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Project not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("lcp_code", code).Msg("Failed to get realized expenses")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get realized expenses")
		return
	}
	if rows == nil {
		rows = []ledger.RealizedExpense{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"project":  project,
		"realized": rows,
		"count":    len(rows),
	})
}

// GetProjectCommitted handles GET /api/projects/{code}/committed.
func (h *ProjectsHandler) GetProjectCommitted(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(r.PathValue("code"))

	project, rows, err := h.store.GetProjectCommitted(r.Context(), code)
	if errors.Is(err, ledger.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Project not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("lcp_code", code).Msg("Failed to get committed expenses")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get committed expenses")
		return
	}
	if rows == nil {
		rows = []ledger.CommittedExpense{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"project":   project,
		"committed": rows,
		"count":     len(rows),
	})
}

// GetStats handles GET /api/projects/dashboard/stats.
func (h *ProjectsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute stats")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, stats)
}

// UpdateStatus handles PATCH /api/projects/{id}/status.
func (h *ProjectsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid project id")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	status := ledger.ProjectStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !ledger.ValidStatus(status) {
		middleware.WriteError(w, http.StatusBadRequest, "Unknown project status")
		return
	}

	project, err := h.store.UpdateProjectStatus(r.Context(), id, status)
	if errors.Is(err, ledger.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Project not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("project_id", id).Msg("Failed to update status")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update status")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, project)
}
