package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dfsouza/patrimonio-api/internal/middleware"
	"github.com/dfsouza/patrimonio-api/internal/models"
	"github.com/dfsouza/patrimonio-api/internal/repository"
	"github.com/dfsouza/patrimonio-api/internal/services"
	"github.com/dfsouza/patrimonio-api/internal/session"
)

type InventoryHandler struct {
	svcs     *services.Services
	sessions *session.Manager
}

func NewInventoryHandler(svcs *services.Services, sessions *session.Manager) *InventoryHandler {
	return &InventoryHandler{svcs: svcs, sessions: sessions}
}

func (h *InventoryHandler) session(c *gin.Context) (*session.Session, bool) {
	sess, err := h.sessions.For(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		handleError(c, err)
		return nil, false
	}
	return sess, true
}

// Index lists the items visible to the actor, newest first
func (h *InventoryHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")
	query.Filters["status"] = c.Query("status")
	query.Filters["category_id"] = c.Query("category_id")
	query.Filters["sector_id"] = c.Query("sector_id")

	items, total, err := h.svcs.Inventory.List(c.Request.Context(), middleware.GetActor(c), query)
	if err != nil {
		handleError(c, err)
		return
	}

	responses := make([]models.ItemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, item.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"items": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// Show returns one item within the actor's scope
func (h *InventoryHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)
	item, err := h.svcs.Inventory.Get(c.Request.Context(), middleware.GetActor(c), uint(id))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item.ToResponse()})
}

// Create registers a new item through the mutation coordinator
func (h *InventoryHandler) Create(c *gin.Context) {
	var in services.ItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in.ID = 0

	sess, ok := h.session(c)
	if !ok {
		return
	}
	item, err := sess.SaveItem(c.Request.Context(), &in)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item.ToResponse(), "message": "Item cadastrado com sucesso"})
}

// Update edits an item through the mutation coordinator. The payload
// carries the lock_version the client read; a concurrent save comes
// back as 409.
func (h *InventoryHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	var in services.ItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in.ID = uint(id)

	sess, ok := h.session(c)
	if !ok {
		return
	}
	item, err := sess.SaveItem(c.Request.Context(), &in)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item.ToResponse(), "message": "Item atualizado com sucesso"})
}

type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ChangeStatus performs a direct status edit
func (h *InventoryHandler) ChangeStatus(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status é obrigatório"})
		return
	}

	sess, ok := h.session(c)
	if !ok {
		return
	}
	item, err := sess.ChangeItemStatus(c.Request.Context(), uint(id), req.Status)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item.ToResponse()})
}

type RegisterUseRequest struct {
	UsedBy string `json:"used_by"`
}

// RegisterUse places the item in local use
func (h *InventoryHandler) RegisterUse(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	var req RegisterUseRequest
	_ = c.ShouldBindJSON(&req)

	sess, ok := h.session(c)
	if !ok {
		return
	}
	item, err := sess.RegisterItemUse(c.Request.Context(), uint(id), req.UsedBy)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item.ToResponse()})
}

// ReturnFromUse brings an item in local use back to funcionando
func (h *InventoryHandler) ReturnFromUse(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	sess, ok := h.session(c)
	if !ok {
		return
	}
	item, err := sess.ReturnItemFromUse(c.Request.Context(), uint(id))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item.ToResponse()})
}

// Delete discards an item, or removes it permanently with ?permanent=true
func (h *InventoryHandler) Delete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)
	permanent := c.Query("permanent") == "true"

	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := sess.DeleteItem(c.Request.Context(), uint(id), permanent); err != nil {
		handleError(c, err)
		return
	}

	message := "Item descartado"
	if permanent {
		message = "Item excluído permanentemente"
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// Export downloads the actor's visible inventory as an XLSX file
func (h *InventoryHandler) Export(c *gin.Context) {
	data, filename, err := h.svcs.Export.InventoryXLSX(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
