// -----------------------------------------------------------------------
// Application - dependency wiring and lifecycle
// -----------------------------------------------------------------------

package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/charta/internal/common"
	"github.com/ternarybob/charta/internal/handlers"
	"github.com/ternarybob/charta/internal/services/layouts"
	"github.com/ternarybob/charta/internal/services/printjobs"
	"github.com/ternarybob/charta/internal/services/renderer"
	"github.com/ternarybob/charta/internal/services/validation"
	badgerstore "github.com/ternarybob/charta/internal/storage/badger"
)

// App holds all application dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	DB        *badgerstore.BadgerDB
	Artifacts *badgerstore.ArtifactStorage

	// Services
	Layouts   *layouts.Provider
	Validator *validation.Service
	Renderer  *renderer.PDFRenderer
	Manager   *printjobs.Manager
	Reaper    *printjobs.Reaper

	// Handlers
	PrintHandler  *handlers.PrintHandler
	OldAPIHandler *handlers.OldAPIHandler
}

// New wires the application together. Order matters: storage first, then
// services, then the job manager, then transports.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	db, err := badgerstore.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	artifacts := badgerstore.NewArtifactStorage(db, logger)

	layoutProvider, err := layouts.NewProvider(config.Layouts.Dir, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load layouts: %w", err)
	}

	validator := validation.NewService(layoutProvider)
	pdfRenderer := renderer.NewPDFRenderer(logger)

	manager := printjobs.NewManager(validator, pdfRenderer, artifacts, printjobs.ManagerOptions{
		Workers:       config.Print.Workers,
		QueueSize:     config.Print.QueueSize,
		RenderTimeout: config.Print.RenderTimeout,
		ShutdownGrace: config.Print.ShutdownGrace,
	}, logger)

	reaper := printjobs.NewReaper(manager.Registry(), artifacts, printjobs.RetentionPolicy{
		JobTTL:      config.Retention.JobTTL,
		ArtifactTTL: config.Retention.ArtifactTTL,
		Schedule:    config.Retention.SweepSchedule,
	}, logger)
	if err := reaper.Start(); err != nil {
		manager.Shutdown()
		db.Close()
		return nil, err
	}

	printHandler := handlers.NewPrintHandler(
		manager,
		layoutProvider,
		config.Print.SyncWait,
		config.Print.SyncRate,
		config.Print.SyncBurst,
		logger,
	)
	oldAPIHandler := handlers.NewOldAPIHandler(manager, layoutProvider, "/print-old", config.Print.SyncWait, logger)

	logger.Info().
		Str("environment", config.Environment).
		Int("workers", config.Print.Workers).
		Int("queue_size", config.Print.QueueSize).
		Msg("Application initialized")

	return &App{
		Config:        config,
		Logger:        logger,
		DB:            db,
		Artifacts:     artifacts,
		Layouts:       layoutProvider,
		Validator:     validator,
		Renderer:      pdfRenderer,
		Manager:       manager,
		Reaper:        reaper,
		PrintHandler:  printHandler,
		OldAPIHandler: oldAPIHandler,
	}, nil
}

// Close shuts the application down in reverse dependency order.
func (a *App) Close() {
	a.Reaper.Stop()
	a.Manager.Shutdown()

	if err := a.DB.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to close database")
	}

	a.Logger.Info().Msg("Application stopped")
}
