package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/assessment-importer/internal/config"
	http_controllers "github.com/mrlokans/assessment-importer/internal/http"
	"github.com/mrlokans/assessment-importer/internal/logger"
	"github.com/mrlokans/assessment-importer/internal/scheduler"
	"github.com/mrlokans/assessment-importer/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, log *logger.Logger, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen failed", "error", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server", "timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting requests before background work is torn down
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Info("server exiting")
}

func Run(cfg *config.Config, version string) {
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting assessment importer", "version", version)

	app, err := NewApp(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize application", "error", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("error closing database", "error", err)
		}
	}()

	healthChecks := map[string]http_controllers.HealthCheck{}
	if app.Auditor != nil {
		healthChecks["archive"] = func(context.Context) error { return app.Auditor.Ready() }
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks), log)
		if err != nil {
			log.Fatal("failed to initialize task queue", "error", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Error("error closing task client", "error", err)
			}
		}()

		taskClient.Register(
			tasks.NewCleanupAuditEventsQueue(app.Audit, app.pruner(), log),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	cleanup := scheduler.NewAuditCleanupScheduler(cfg.Audit.CleanupSchedule, auditCleanupJob(app, taskClient), log)
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	if err := cleanup.Start(schedCtx); err != nil {
		log.Fatal("failed to start audit cleanup scheduler", "error", err)
	}
	if next := cleanup.NextRun(); next != nil {
		log.Info("audit cleanup scheduled", "next_run", next.Format(time.RFC3339))
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Importer:            app.Pipeline,
		Packages:            app.Service,
		Audit:               app.Audit,
		Database:            app.DB,
		Log:                 log,
		HealthChecks:        healthChecks,
		TrustImporterHeader: cfg.HTTP.TrustImporterHeader,
		AllowedOrigins:      cfg.HTTP.AllowedOrigins,
		Version:             version,
	})

	onShutdown := func(ctx context.Context) {
		cleanup.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		app.Audit.Wait()
	}

	Serve(router, cfg, log, onShutdown)
}

// auditCleanupJob enqueues a cleanup task when the queue is running and
// otherwise runs the cleanup inline.
func auditCleanupJob(app *App, client *tasks.Client) scheduler.Job {
	task := tasks.CleanupAuditEventsTask{RetentionDays: app.Config.Audit.RetentionDays}
	inline := tasks.CleanupAuditEventsProcessor(app.Audit, app.pruner(), app.Log)

	return func(ctx context.Context) error {
		if client == nil {
			return inline(ctx, task)
		}
		ids, err := client.Add(task).Save()
		if err != nil {
			return fmt.Errorf("enqueue audit cleanup: %w", err)
		}
		app.Log.Info("audit cleanup enqueued", "task_ids", ids)
		return nil
	}
}
