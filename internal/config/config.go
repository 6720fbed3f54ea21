package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type DatabaseDriver string

const (
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
)

type (
	Config struct {
		HTTP
		Global
		Log
		Database
		Import
		Audit
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
		// TrustImporterHeader lets an upstream gateway pass the authenticated
		// importer id in the X-Importer-ID header.
		TrustImporterHeader bool
		// AllowedOrigins enables CORS for browser clients. Empty disables it.
		AllowedOrigins []string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Log struct {
		Mode string // "dev" or "prod"
	}
	Database struct {
		Driver            DatabaseDriver
		Path              string // sqlite file path
		DSN               string // postgres connection string
		LogLevel          string // gorm logger level: silent, error, warn, info
		RetryAttempts     int    // total attempts for a transiently failing transaction
		RetryInitialDelay time.Duration
		RetryMaxDelay     time.Duration
	}
	Import struct {
		MaxFileSize  int64
		ItemScoreMin float64
		ItemScoreMax float64
		ArchiveDir   string // raw uploads are archived here when set
	}
	Audit struct {
		RetentionDays   int    // Days to keep audit events (default: 90)
		CleanupSchedule string // Cron format: "30 3 * * *" = daily at 03:30
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("trust_importer_header", false)
	v.SetDefault("cors_allowed_origins", "")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("log_mode", "dev")

	// Database defaults
	v.SetDefault("database_driver", string(DatabaseDriverSQLite))
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_dsn", "")
	v.SetDefault("database_log_level", "warn")
	v.SetDefault("database_retry_attempts", DefaultRetryAttempts)
	v.SetDefault("database_retry_initial_delay", "50ms")
	v.SetDefault("database_retry_max_delay", "1s")

	// Import defaults
	v.SetDefault("import_max_file_size", DefaultMaxImportFileSize)
	v.SetDefault("import_item_score_min", DefaultItemScoreMin)
	v.SetDefault("import_item_score_max", DefaultItemScoreMax)
	v.SetDefault("import_archive_dir", "")

	// Audit defaults
	v.SetDefault("audit_retention_days", 90)
	v.SetDefault("audit_cleanup_schedule", "30 3 * * *")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "10m")
	v.SetDefault("task_cleanup_interval", "1h")

	return &Config{
		HTTP: HTTP{
			Port:                v.GetInt32("PORT"),
			Host:                v.GetString("HOST"),
			TrustImporterHeader: v.GetBool("TRUST_IMPORTER_HEADER"),
			AllowedOrigins:      splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Log: Log{
			Mode: v.GetString("LOG_MODE"),
		},
		Database: Database{
			Driver:            DatabaseDriver(v.GetString("DATABASE_DRIVER")),
			Path:              v.GetString("DATABASE_PATH"),
			DSN:               v.GetString("DATABASE_DSN"),
			LogLevel:          v.GetString("DATABASE_LOG_LEVEL"),
			RetryAttempts:     v.GetInt("DATABASE_RETRY_ATTEMPTS"),
			RetryInitialDelay: v.GetDuration("DATABASE_RETRY_INITIAL_DELAY"),
			RetryMaxDelay:     v.GetDuration("DATABASE_RETRY_MAX_DELAY"),
		},
		Import: Import{
			MaxFileSize:  v.GetInt64("IMPORT_MAX_FILE_SIZE"),
			ItemScoreMin: v.GetFloat64("IMPORT_ITEM_SCORE_MIN"),
			ItemScoreMax: v.GetFloat64("IMPORT_ITEM_SCORE_MAX"),
			ArchiveDir:   v.GetString("IMPORT_ARCHIVE_DIR"),
		},
		Audit: Audit{
			RetentionDays:   v.GetInt("AUDIT_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
	}
}

// splitList parses a comma-separated environment value.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
