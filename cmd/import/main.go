package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gestion2026/ledger/internal/api/handlers"
	"github.com/gestion2026/ledger/internal/config"
	"github.com/gestion2026/ledger/internal/importer"
	"github.com/gestion2026/ledger/internal/logger"
	"github.com/gestion2026/ledger/internal/store/postgres"
	"github.com/gestion2026/ledger/internal/warehouse"
)

func main() {
	file := flag.String("file", "", "Path or gs:// URI of the export to import")
	gcsObject := flag.String("gcs-object", "", "Object path inside GCS_BUCKET to import instead of -file")
	variantFlag := flag.String("variant", "", "Import variant: budget, realized or committed (required)")
	timeout := flag.Duration("timeout", 10*time.Minute, "Overall import timeout")
	flag.Parse()

	log := logger.New(os.Getenv("LOG_LEVEL"))

	if (*file == "" && *gcsObject == "") || *variantFlag == "" {
		flag.Usage()
		os.Exit(2)
	}

	variant, ok := importer.ParseVariant(*variantFlag)
	if !ok {
		log.Fatal().Str("variant", *variantFlag).Msg("Invalid variant")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ref := *file
	if *gcsObject != "" {
		if cfg.GCSBucket == "" {
			log.Fatal().Msg("GCS_BUCKET is not set, cannot resolve -gcs-object")
		}
		ref = "gs://" + cfg.GCSBucket + "/" + *gcsObject
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Postgres")
	}
	defer store.Close()

	engine := importer.New(store, log)

	if cfg.BQProject != "" {
		mirror, err := warehouse.NewMirror(ctx, cfg.BQProject, cfg.BQDataset, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create warehouse mirror")
		}
		defer mirror.Close()
		engine.WithSink(mirror)
	}

	res, err := handlers.RunImport(ctx, engine, variant, ref)
	if err != nil {
		log.Fatal().Err(err).Str("file", ref).Msg("Import failed")
	}

	fmt.Printf("run %s (%s)\n", res.RunID, res.Variant)
	fmt.Printf("  lines read:         %d\n", res.LinesRead)
	fmt.Printf("  rows parsed:        %d\n", res.RowsParsed)
	fmt.Printf("  rows skipped:       %d\n", res.RowsSkipped)
	fmt.Printf("  duplicates in file: %d\n", res.DuplicatesInFile)
	fmt.Printf("  projects missing:   %d\n", res.ProjectsMissing)
	fmt.Printf("  projects upserted:  %d\n", res.ProjectsUpserted)
	fmt.Printf("  inserted:           %d\n", res.Inserted)
	fmt.Printf("  batches committed:  %d\n", res.BatchesCommitted)
	fmt.Printf("  elapsed:            %s\n", res.FinishedAt.Sub(res.StartedAt))
}
