package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dfsouza/patrimonio-api/internal/middleware"
	"github.com/dfsouza/patrimonio-api/internal/models"
	"github.com/dfsouza/patrimonio-api/internal/services"
)

type CampusHandler struct {
	campusService *services.CampusService
}

func NewCampusHandler(campusService *services.CampusService) *CampusHandler {
	return &CampusHandler{campusService: campusService}
}

// Index lists all campuses as picker references (id and name)
func (h *CampusHandler) Index(c *gin.Context) {
	campuses, err := h.campusService.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	refs := make([]models.CampusRef, 0, len(campuses))
	for i := range campuses {
		refs = append(refs, campuses[i].Ref())
	}
	c.JSON(http.StatusOK, gin.H{"campuses": refs})
}

type CreateCampusRequest struct {
	Name string `json:"name" binding:"required"`
}

// Create registers a new campus. Admin only.
func (h *CampusHandler) Create(c *gin.Context) {
	var req CreateCampusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nome do campus é obrigatório"})
		return
	}

	campus, err := h.campusService.Create(c.Request.Context(), middleware.GetActor(c), req.Name)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"campus": campus, "message": "Campus criado com sucesso"})
}

// Delete removes a campus once nothing references it. Admin only.
func (h *CampusHandler) Delete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	if err := h.campusService.Delete(c.Request.Context(), middleware.GetActor(c), uint(id)); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Campus excluído"})
}
