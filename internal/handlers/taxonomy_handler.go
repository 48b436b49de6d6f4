package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dfsouza/patrimonio-api/internal/middleware"
	"github.com/dfsouza/patrimonio-api/internal/models"
	"github.com/dfsouza/patrimonio-api/internal/services"
	"github.com/dfsouza/patrimonio-api/internal/session"
)

type TaxonomyHandler struct {
	svcs     *services.Services
	sessions *session.Manager
}

func NewTaxonomyHandler(svcs *services.Services, sessions *session.Manager) *TaxonomyHandler {
	return &TaxonomyHandler{svcs: svcs, sessions: sessions}
}

func (h *TaxonomyHandler) session(c *gin.Context) (*session.Session, bool) {
	sess, err := h.sessions.For(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		handleError(c, err)
		return nil, false
	}
	return sess, true
}

type TaxonomyRequest struct {
	Name     string `json:"name" binding:"required"`
	CampusID uint   `json:"campus_id"`
}

// Categories lists the categories visible to the actor
func (h *TaxonomyHandler) Categories(c *gin.Context) {
	categories, err := h.svcs.Taxonomy.ListCategories(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		handleError(c, err)
		return
	}

	responses := make([]models.TaxonomyResponse, 0, len(categories))
	for _, category := range categories {
		responses = append(responses, category.ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"categories": responses})
}

// CreateCategory adds a category in the actor's target campus
func (h *TaxonomyHandler) CreateCategory(c *gin.Context) {
	var req TaxonomyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nome é obrigatório"})
		return
	}

	sess, ok := h.session(c)
	if !ok {
		return
	}
	category, err := sess.AddCategory(c.Request.Context(), req.Name, req.CampusID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category.ToResponse()})
}

// DeleteCategory removes a category once nothing references it
func (h *TaxonomyHandler) DeleteCategory(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := sess.DeleteCategory(c.Request.Context(), uint(id)); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Categoria excluída"})
}

// Sectors lists the sectors visible to the actor
func (h *TaxonomyHandler) Sectors(c *gin.Context) {
	sectors, err := h.svcs.Taxonomy.ListSectors(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		handleError(c, err)
		return
	}

	responses := make([]models.TaxonomyResponse, 0, len(sectors))
	for _, sector := range sectors {
		responses = append(responses, sector.ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"sectors": responses})
}

// CreateSector adds a sector in the actor's target campus
func (h *TaxonomyHandler) CreateSector(c *gin.Context) {
	var req TaxonomyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nome é obrigatório"})
		return
	}

	sess, ok := h.session(c)
	if !ok {
		return
	}
	sector, err := sess.AddSector(c.Request.Context(), req.Name, req.CampusID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sector": sector.ToResponse()})
}

// DeleteSector removes a sector once nothing references it
func (h *TaxonomyHandler) DeleteSector(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := sess.DeleteSector(c.Request.Context(), uint(id)); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Setor excluído"})
}
