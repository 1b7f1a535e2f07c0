package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gestion2026/ledger/internal/api/handlers"
	"github.com/gestion2026/ledger/internal/api/middleware"
	"github.com/gestion2026/ledger/internal/config"
	"github.com/gestion2026/ledger/internal/importer"
	"github.com/gestion2026/ledger/internal/jobs"
	"github.com/gestion2026/ledger/internal/jobs/inmemory"
	"github.com/gestion2026/ledger/internal/logger"
	"github.com/gestion2026/ledger/internal/store/postgres"
	"github.com/gestion2026/ledger/internal/warehouse"
)

// uploadLimit caps import uploads, matching the original service's 50 MB.
const uploadLimit = 50 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info")
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}

	port := flag.String("port", cfg.Port, "HTTP server port")
	flag.Parse()

	log := logger.New(cfg.LogLevel)
	ctx := context.Background()

	store, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Postgres")
	}
	defer store.Close()

	engine := importer.New(store, log)

	var mirror *warehouse.Mirror
	if cfg.BQProject != "" {
		mirror, err = warehouse.NewMirror(ctx, cfg.BQProject, cfg.BQDataset, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create warehouse mirror")
		}
		defer mirror.Close()
		engine.WithSink(mirror)
		log.Info().Str("project", cfg.BQProject).Str("dataset", cfg.BQDataset).
			Msg("Warehouse mirror enabled")
	}

	// Job infrastructure for async imports.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(16, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job *jobs.ImportFileJob) error {
		log.Info().
			Str("job_id", job.JobID).
			Str("variant", string(job.Variant)).
			Msg("Processing import job")

		// Uploaded files are spooled locally; remove them once consumed.
		if !strings.HasPrefix(job.SourceURI, "gs://") {
			defer os.Remove(job.SourceURI)
		}

		res, err := handlers.RunImport(ctx, engine, job.Variant, job.SourceURI)
		if err != nil {
			log.Error().Err(err).Str("job_id", job.JobID).Msg("Import job failed")
			return err
		}
		job.Result = res

		log.Info().Str("job_id", job.JobID).Int("inserted", res.Inserted).
			Msg("Import job completed")
		return nil
	}

	if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start import worker")
	}

	projectsHandler := handlers.NewProjectsHandler(store, engine, jobQueue, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/projects/import/{variant}", projectsHandler.ImportFile)
	mux.HandleFunc("GET /api/projects", projectsHandler.ListProjects)
	mux.HandleFunc("GET /api/projects/dashboard/stats", projectsHandler.GetStats)
	mux.HandleFunc("GET /api/projects/{code}", projectsHandler.GetProject)
	mux.HandleFunc("GET /api/projects/{code}/realized", projectsHandler.GetProjectRealized)
	mux.HandleFunc("GET /api/projects/{code}/committed", projectsHandler.GetProjectCommitted)
	mux.HandleFunc("PATCH /api/projects/{id}/status", projectsHandler.UpdateStatus)
	mux.HandleFunc("GET /api/jobs", jobsHandler.ListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", jobsHandler.GetJob)

	if mirror != nil {
		warehouseHandler := handlers.NewWarehouseHandler(mirror, log)
		mux.HandleFunc("GET /api/dashboard/warehouse", warehouseHandler.Totals)
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.MaxBytes(uploadLimit)(mux),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  5 * time.Minute, // large uploads
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting ledger API")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
