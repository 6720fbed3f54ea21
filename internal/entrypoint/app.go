package entrypoint

import (
	"fmt"

	"github.com/mrlokans/assessment-importer/internal/audit"
	"github.com/mrlokans/assessment-importer/internal/config"
	"github.com/mrlokans/assessment-importer/internal/database"
	auditrepo "github.com/mrlokans/assessment-importer/internal/database/audit"
	"github.com/mrlokans/assessment-importer/internal/database/packages"
	"github.com/mrlokans/assessment-importer/internal/database/practice"
	"github.com/mrlokans/assessment-importer/internal/database/users"
	http_controllers "github.com/mrlokans/assessment-importer/internal/http"
	"github.com/mrlokans/assessment-importer/internal/importers"
	"github.com/mrlokans/assessment-importer/internal/logger"
	"github.com/mrlokans/assessment-importer/internal/services"
	"github.com/mrlokans/assessment-importer/internal/tasks"
)

var (
	_ importers.PackageStore    = (*packages.Repository)(nil)
	_ importers.AccountChecker  = (*users.Repository)(nil)
	_ importers.Recorder        = (*audit.Service)(nil)
	_ importers.Archiver        = (*audit.Auditor)(nil)
	_ services.PackageStore     = (*packages.Repository)(nil)
	_ services.DeleteRecorder   = (*audit.Service)(nil)
	_ packages.DependentCleaner = (*practice.Repository)(nil)
	_ tasks.AuditEventCleaner   = (*audit.Service)(nil)
	_ tasks.ArchivePruner       = (*audit.Auditor)(nil)

	_ http_controllers.Importer       = (*importers.Pipeline)(nil)
	_ http_controllers.PackageService = (*services.PackageService)(nil)
	_ http_controllers.AuditReader    = (*audit.Service)(nil)
)

// App holds the components shared by the server and the CLI.
type App struct {
	Config   *config.Config
	Log      *logger.Logger
	DB       *database.Database
	Users    *users.Repository
	Packages *packages.Repository
	Audit    *audit.Service
	Auditor  *audit.Auditor // nil when uploads are not archived
	Pipeline *importers.Pipeline
	Service  *services.PackageService
}

// NewApp opens storage and wires the import pipeline and package service.
func NewApp(cfg *config.Config, log *logger.Logger) (*App, error) {
	log = logger.OrNop(log)

	db, err := database.NewDatabase(database.OptionsFromConfig(cfg.Database, log.With("component", "database")))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	retry := database.RetryPolicyFromConfig(cfg.Database, log.With("component", "retry"))
	practiceRepo := practice.NewRepository(db.DB)
	packagesRepo := packages.NewRepository(db.DB, retry, practiceRepo)
	usersRepo := users.NewRepository(db.DB)
	auditService := audit.NewService(auditrepo.NewRepository(db.DB), log.With("component", "audit"))

	opts := importers.Options{
		MaxFileSize:  cfg.Import.MaxFileSize,
		ItemScoreMin: cfg.Import.ItemScoreMin,
		ItemScoreMax: cfg.Import.ItemScoreMax,
		Log:          log.With("component", "importer"),
		Recorder:     auditService,
	}

	var auditor *audit.Auditor
	if cfg.Import.ArchiveDir != "" {
		auditor = audit.NewAuditor(cfg.Import.ArchiveDir)
		opts.Archiver = auditor
		log.Info("archiving raw uploads", "dir", cfg.Import.ArchiveDir)
	}

	return &App{
		Config:   cfg,
		Log:      log,
		DB:       db,
		Users:    usersRepo,
		Packages: packagesRepo,
		Audit:    auditService,
		Auditor:  auditor,
		Pipeline: importers.NewPipeline(usersRepo, packagesRepo, opts),
		Service:  services.NewPackageService(packagesRepo, auditService, log.With("component", "packages")),
	}, nil
}

// pruner returns the archive pruner, or nil when archiving is off. A typed
// nil must not leak into the interface.
func (a *App) pruner() tasks.ArchivePruner {
	if a.Auditor == nil {
		return nil
	}
	return a.Auditor
}

// Close drains pending audit writes and closes storage.
func (a *App) Close() error {
	a.Audit.Wait()
	return a.DB.Close()
}
