package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finsync/internal/app"
	"finsync/internal/config"
	"finsync/internal/email"
	"finsync/internal/handler"
	"finsync/internal/metrics"
	"finsync/internal/report"
	"finsync/internal/repository/postgres"
	"finsync/internal/router"
	"finsync/internal/service"
	"finsync/internal/storage"
	"finsync/internal/token"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.ConfigureLogging(&cfg.Log)

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	batchRepo := postgres.NewBatchRunRepo(db)
	hsnRepo := postgres.NewHSNRepo(db)

	// Initialize storage and notification
	store, err := storage.New(&cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	notifier, err := email.NewNotifier(&cfg.Notify)
	if err != nil {
		return fmt.Errorf("failed to initialize notifier: %w", err)
	}

	m := metrics.New()

	// Initialize the extraction pipeline
	ext, err := app.NewExtractor(&cfg.Extractor)
	if err != nil {
		return fmt.Errorf("failed to initialize extractor: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := app.LoadCatalog(ctx, &cfg.Report, hsnRepo)
	if err != nil {
		return fmt.Errorf("failed to load HSN catalog: %w", err)
	}
	reportOpts, err := app.ReportOptions(&cfg.Report, catalog)
	if err != nil {
		return fmt.Errorf("invalid report config: %w", err)
	}
	runner := app.NewRunner(&cfg.Extractor, ext, m, catalog)

	// Initialize services
	extractionSvc := service.NewExtractionService(
		runner,
		report.NewCompiler(reportOpts),
		store,
		batchRepo,
		notifier,
		token.NewIssuer(&cfg.Download),
		m,
		service.ExtractionConfig{
			UploadDir:     cfg.Storage.UploadDir,
			MaxFileSizeMB: cfg.Storage.MaxFileSizeMB,
			BaseURL:       cfg.Notify.BaseURL,
		},
	)

	// Initialize handlers
	handlers := router.Handlers{
		Extraction: handler.NewExtractionHandler(extractionSvc),
		Report:     handler.NewReportHandler(extractionSvc),
		Health:     handler.NewHealthHandler(extractionSvc),
	}

	// Setup router
	r := router.Setup(handlers, m, cfg.CORS.AllowedOrigins, cfg.Storage.MaxFileSizeMB<<20)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s (%s)", cfg.Server.Port, cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
