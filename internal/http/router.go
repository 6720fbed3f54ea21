package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(cfg.Log))
	router.Use(gin.Recovery())
	router.Use(SecurityHeaders())

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(CORS(cfg.AllowedOrigins))
	}
	if cfg.TrustImporterHeader {
		router.Use(ImporterHeaderMiddleware())
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	for name, check := range cfg.HealthChecks {
		health.AddCheck(name, check)
	}
	router.GET("/health", health.Status)

	api := router.Group("/api")

	if cfg.Importer != nil {
		imports := NewImportController(cfg.Importer, cfg.Log)
		api.POST("/imports/:kind", imports.Import)
	}

	if cfg.Packages != nil {
		packages := NewPackagesController(cfg.Packages, cfg.Log)
		api.GET("/packages", packages.List)
		api.GET("/packages/stats", packages.Stats)
		api.GET("/packages/:id", packages.Get)
		api.DELETE("/packages/:id", packages.Delete)
	}

	if cfg.Audit != nil {
		audit := NewAuditController(cfg.Audit, cfg.Log)
		api.GET("/audit", audit.GetAuditEvents)
	}

	return router
}
