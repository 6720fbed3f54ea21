package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8190), cfg.HTTP.Port)
	assert.Equal(t, DatabaseDriverSQLite, cfg.Database.Driver)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, DefaultRetryAttempts, cfg.Database.RetryAttempts)
	assert.Equal(t, 50*time.Millisecond, cfg.Database.RetryInitialDelay)
	assert.Equal(t, int64(DefaultMaxImportFileSize), cfg.Import.MaxFileSize)
	assert.Equal(t, DefaultItemScoreMax, cfg.Import.ItemScoreMax)
	assert.Equal(t, 90, cfg.Audit.RetentionDays)
	assert.Empty(t, cfg.HTTP.AllowedOrigins)
}

func TestNewConfig_Environment(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "postgres://localhost/imports")
	t.Setenv("IMPORT_ITEM_SCORE_MAX", "20")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://authoring.example.com,")
	t.Setenv("TASK_RELEASE_AFTER", "2m")

	cfg := NewConfig()

	assert.Equal(t, DatabaseDriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/imports", cfg.Database.DSN)
	assert.Equal(t, 20.0, cfg.Import.ItemScoreMax)
	assert.Equal(t, []string{"http://localhost:3000", "https://authoring.example.com"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 2*time.Minute, cfg.Tasks.ReleaseAfter)
}
