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

type UserHandler struct {
	userService *services.UserService
	sessions    *session.Manager
}

func NewUserHandler(userService *services.UserService, sessions *session.Manager) *UserHandler {
	return &UserHandler{userService: userService, sessions: sessions}
}

// Index lists the users visible to the actor
func (h *UserHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")

	users, total, err := h.userService.List(c.Request.Context(), middleware.GetActor(c), query)
	if err != nil {
		handleError(c, err)
		return
	}

	responses := make([]models.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, user.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"users": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// Show returns one user
func (h *UserHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)
	user, err := h.userService.Get(c.Request.Context(), uint(id))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse()})
}

// Create registers a new user. Admin only.
func (h *UserHandler) Create(c *gin.Context) {
	var in services.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Create(c.Request.Context(), middleware.GetActor(c), in)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user.ToResponse(), "message": "Usuário criado com sucesso"})
}

// Update edits a user. Role, status and campus moves are admin only.
func (h *UserHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	var in services.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Update(c.Request.Context(), middleware.GetActor(c), uint(id), in)
	if err != nil {
		handleError(c, err)
		return
	}

	// A campus or role change reshapes the user's scope; their mirror
	// is stale the moment this lands.
	h.sessions.Drop(user.ID)

	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse(), "message": "Usuário atualizado"})
}

// ChangePasswordRequest carries a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ChangePassword swaps a user's password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.userService.ChangePassword(c.Request.Context(), middleware.GetActor(c), uint(id), req.CurrentPassword, req.NewPassword)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Senha alterada com sucesso"})
}

// Delete removes a user. Admin only.
func (h *UserHandler) Delete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	if err := h.userService.Delete(c.Request.Context(), middleware.GetActor(c), uint(id)); err != nil {
		handleError(c, err)
		return
	}
	h.sessions.Drop(uint(id))
	c.JSON(http.StatusOK, gin.H{"message": "Usuário excluído"})
}
