package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dfsouza/patrimonio-api/internal/jobs"
	"github.com/dfsouza/patrimonio-api/internal/services"
	"github.com/dfsouza/patrimonio-api/internal/session"
)

// Handlers holds all handler instances
type Handlers struct {
	Health    *HealthHandler
	Auth      *AuthHandler
	Inventory *InventoryHandler
	Loan      *LoanHandler
	Taxonomy  *TaxonomyHandler
	Audit     *AuditHandler
	User      *UserHandler
	Campus    *CampusHandler
	Job       *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, sessions *session.Manager, worker *jobs.Worker) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(),
		Auth:      NewAuthHandler(svcs.Auth),
		Inventory: NewInventoryHandler(svcs, sessions),
		Loan:      NewLoanHandler(svcs, sessions),
		Taxonomy:  NewTaxonomyHandler(svcs, sessions),
		Audit:     NewAuditHandler(svcs.Audit),
		User:      NewUserHandler(svcs.User, sessions),
		Campus:    NewCampusHandler(svcs.Campus),
		Job:       NewJobHandler(worker),
	}
}

// HealthHandler answers liveness probes
type HealthHandler struct {
	startedAt time.Time
}

// NewHealthHandler creates a health handler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{startedAt: time.Now()}
}

// Check returns service status
func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(h.startedAt).String(),
	})
}
