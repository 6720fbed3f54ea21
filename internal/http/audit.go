package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	auditRepo "github.com/mrlokans/assessment-importer/internal/database/audit"
	"github.com/mrlokans/assessment-importer/internal/entities"
	"github.com/mrlokans/assessment-importer/internal/logger"
)

// AuditReader lists audit events.
type AuditReader interface {
	ListEvents(filter auditRepo.Filter, limit, offset int) ([]entities.AuditEvent, int64, error)
}

type AuditController struct {
	reader AuditReader
	log    *logger.Logger
}

func NewAuditController(reader AuditReader, log *logger.Logger) *AuditController {
	return &AuditController{reader: reader, log: logger.OrNop(log)}
}

// GetAuditEvents returns the importer's audit events as JSON
// GET /api/audit?type=import&status=failed&limit=25&offset=0
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	limit, ok := parseQueryInt(c, "limit", 25)
	if !ok {
		return
	}
	if limit < 1 || limit > 100 {
		limit = 25
	}
	offset, ok := parseQueryInt(c, "offset", 0)
	if !ok {
		return
	}

	filter := auditRepo.Filter{
		UserID:    GetImporterID(c),
		EventType: entities.AuditEventType(c.Query("type")),
		Status:    entities.AuditStatus(c.Query("status")),
	}
	if filter.UserID == 0 {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "importer is not authenticated"})
		return
	}

	events, total, err := ac.reader.ListEvents(filter, limit, offset)
	if err != nil {
		respondInternalError(c, ac.log, err, "list audit events")
		return
	}
	if events == nil {
		events = []entities.AuditEvent{}
	}
	c.JSON(http.StatusOK, newPaginatedResponse(events, total, limit, offset))
}
