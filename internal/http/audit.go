package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/marked/internal/entities"
)

type AuditController struct {
	auditor Auditor
}

func NewAuditController(auditor Auditor) *AuditController {
	return &AuditController{auditor: auditor}
}

// ListImports returns the user's import audit events, newest first.
// GET /api/audit/imports
func (ac *AuditController) ListImports(c *gin.Context) {
	limit, offset, ok := parsePagination(c)
	if !ok {
		return
	}

	events, total, err := ac.auditor.GetEventsByType(c.Request.Context(), entities.AuditEventImport, GetUserID(c), limit, offset)
	if err != nil {
		respondInternalError(c, err, "list audit events")
		return
	}
	c.JSON(http.StatusOK, newPaginatedResponse(events, total, limit, offset))
}
