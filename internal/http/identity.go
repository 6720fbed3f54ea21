package http

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// ContextKeyImporterID is where the authentication collaborator stores
	// the authenticated account id.
	ContextKeyImporterID = "auth_user_id"

	// ImporterIDHeader carries the importer id from a trusted gateway.
	ImporterIDHeader = "X-Importer-ID"
)

// GetImporterID extracts the authenticated importer's ID from the Gin context.
// Returns 0 when no importer is authenticated; the import pipeline rejects it.
func GetImporterID(c *gin.Context) uint {
	return c.GetUint(ContextKeyImporterID)
}

// ImporterHeaderMiddleware trusts the X-Importer-ID header set by an
// upstream gateway. Only mount it behind a gateway that strips the header
// from client requests.
func ImporterHeaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(ImporterIDHeader))
		if raw == "" {
			c.Next()
			return
		}
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondBadRequest(c, "invalid "+ImporterIDHeader+" header")
			c.Abort()
			return
		}
		c.Set(ContextKeyImporterID, uint(id))
		c.Next()
	}
}
