package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/assessment-importer/internal/entities"
	"github.com/mrlokans/assessment-importer/internal/logger"
	"github.com/mrlokans/assessment-importer/internal/services"
)

// PackageService answers package queries for one importer.
type PackageService interface {
	List(ctx context.Context, importerID uint, kind entities.ContentKind, limit, offset int) (*services.PackagePage, error)
	Get(ctx context.Context, id, importerID uint) (*services.PackageDetail, error)
	Delete(ctx context.Context, id, importerID uint) (entities.GraphCounts, error)
	Stats(ctx context.Context, importerID uint) (*services.Stats, error)
}

type PackagesController struct {
	service PackageService
	log     *logger.Logger
}

func NewPackagesController(service PackageService, log *logger.Logger) *PackagesController {
	return &PackagesController{service: service, log: logger.OrNop(log)}
}

// List returns the importer's packages, newest first.
// GET /api/packages?kind=exam&limit=20&offset=0
func (pc *PackagesController) List(c *gin.Context) {
	limit, ok := parseQueryInt(c, "limit", services.DefaultPageSize)
	if !ok {
		return
	}
	offset, ok := parseQueryInt(c, "offset", 0)
	if !ok {
		return
	}

	var kind entities.ContentKind
	if raw := c.Query("kind"); raw != "" {
		kind = entities.ParseContentKind(raw)
	}

	page, err := pc.service.List(c.Request.Context(), GetImporterID(c), kind, limit, offset)
	if errors.Is(err, services.ErrInvalidKind) {
		respondBadRequest(c, err.Error())
		return
	}
	if err != nil {
		respondInternalError(c, pc.log, err, "list packages")
		return
	}
	c.JSON(http.StatusOK, newPaginatedResponse(page.Packages, page.Total, page.Limit, page.Offset))
}

// Get returns one package with its full graph.
// GET /api/packages/:id
func (pc *PackagesController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := pc.service.Get(c.Request.Context(), id, GetImporterID(c))
	if errors.Is(err, services.ErrPackageNotFound) {
		respondNotFound(c, "package")
		return
	}
	if err != nil {
		respondInternalError(c, pc.log, err, "get package")
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Delete removes a package and everything derived from it.
// DELETE /api/packages/:id
func (pc *PackagesController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	counts, err := pc.service.Delete(c.Request.Context(), id, GetImporterID(c))
	if errors.Is(err, services.ErrPackageNotFound) {
		respondNotFound(c, "package")
		return
	}
	if err != nil {
		respondInternalError(c, pc.log, err, "delete package")
		return
	}
	respondSuccess(c, "package deleted", counts)
}

// Stats returns package counts per kind.
// GET /api/packages/stats
func (pc *PackagesController) Stats(c *gin.Context) {
	stats, err := pc.service.Stats(c.Request.Context(), GetImporterID(c))
	if err != nil {
		respondInternalError(c, pc.log, err, "package stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
