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

type LoanHandler struct {
	svcs     *services.Services
	sessions *session.Manager
}

func NewLoanHandler(svcs *services.Services, sessions *session.Manager) *LoanHandler {
	return &LoanHandler{svcs: svcs, sessions: sessions}
}

// Index lists the loans visible to the actor, newest first
func (h *LoanHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")
	query.Filters["status"] = c.Query("status")

	loans, total, err := h.svcs.Loan.List(c.Request.Context(), middleware.GetActor(c), query)
	if err != nil {
		handleError(c, err)
		return
	}

	responses := make([]models.LoanResponse, 0, len(loans))
	for _, loan := range loans {
		responses = append(responses, loan.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"loans": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// Overdue lists open loans past their expected return date
func (h *LoanHandler) Overdue(c *gin.Context) {
	loans, err := h.svcs.Loan.Overdue(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		handleError(c, err)
		return
	}

	responses := make([]models.LoanResponse, 0, len(loans))
	for _, loan := range loans {
		responses = append(responses, loan.ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"loans": responses})
}

type CreateLoanRequest struct {
	ItemIDs  []uint                 `json:"item_ids" binding:"required"`
	Borrower services.BorrowerInput `json:"borrower"`
}

// Create loans one or more items to a borrower
func (h *LoanHandler) Create(c *gin.Context) {
	var req CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.sessions.For(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		handleError(c, err)
		return
	}

	loans, err := sess.CreateLoan(c.Request.Context(), req.ItemIDs, req.Borrower)
	if err != nil {
		handleError(c, err)
		return
	}

	responses := make([]models.LoanResponse, 0, len(loans))
	for _, loan := range loans {
		responses = append(responses, loan.ToResponse())
	}
	c.JSON(http.StatusCreated, gin.H{"loans": responses, "message": "Empréstimo registrado com sucesso"})
}

// Return closes a loan and puts the item back in funcionando
func (h *LoanHandler) Return(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	sess, err := h.sessions.For(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		handleError(c, err)
		return
	}

	loan, err := sess.ReturnLoan(c.Request.Context(), uint(id))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"loan": loan.ToResponse(), "message": "Devolução registrada"})
}
