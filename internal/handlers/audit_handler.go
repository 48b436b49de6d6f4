package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dfsouza/patrimonio-api/internal/middleware"
	"github.com/dfsouza/patrimonio-api/internal/models"
	"github.com/dfsouza/patrimonio-api/internal/repository"
	"github.com/dfsouza/patrimonio-api/internal/services"
)

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// Index lists audit entries visible to the actor, newest first
func (h *AuditHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "50"))
	query.Search = c.Query("search_term")
	query.Filters["action"] = c.Query("action")

	entries, total, err := h.auditService.List(c.Request.Context(), middleware.GetActor(c), query)
	if err != nil {
		handleError(c, err)
		return
	}

	responses := make([]models.AuditLogResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, entry.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// ForItem lists the history of a single item, including entries whose
// item row has since been deleted (the snapshot keeps the data).
func (h *AuditHandler) ForItem(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	entries, err := h.auditService.ListForItem(c.Request.Context(), middleware.GetActor(c), uint(id))
	if err != nil {
		handleError(c, err)
		return
	}

	responses := make([]models.AuditLogResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, entry.ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"entries": responses})
}
