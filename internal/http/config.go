package http

import (
	"github.com/mrlokans/assessment-importer/internal/database"
	"github.com/mrlokans/assessment-importer/internal/logger"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Importer Importer
	Packages PackageService
	Audit    AuditReader
	Database *database.Database
	Log      *logger.Logger

	// Extra health probes, keyed by component name
	HealthChecks map[string]HealthCheck

	// TrustImporterHeader mounts ImporterHeaderMiddleware
	TrustImporterHeader bool

	// AllowedOrigins enables CORS when non-empty
	AllowedOrigins []string

	// Application info
	Version string
}
