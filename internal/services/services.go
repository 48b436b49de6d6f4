package services

import (
	"github.com/dfsouza/patrimonio-api/internal/config"
	"github.com/dfsouza/patrimonio-api/internal/jobs"
	"github.com/dfsouza/patrimonio-api/internal/repository"
)

// Services holds all service instances
type Services struct {
	Auth      *AuthService
	User      *UserService
	Campus    *CampusService
	Taxonomy  *TaxonomyService
	Inventory *InventoryService
	Loan      *LoanService
	Audit     *AuditService
	Export    *ExportService
	Guard     *ConflictGuard

	// SavePolicy is the retry policy the mutation coordinator applies
	// to every persist attempt.
	SavePolicy RetryPolicy
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, cfg *config.Config) *Services {
	guard := NewConflictGuard(repos)
	auditSvc := NewAuditService(repos.Audit, worker)
	inventorySvc := NewInventoryService(repos, guard, auditSvc)

	return &Services{
		Auth:       NewAuthService(repos.User, cfg),
		User:       NewUserService(repos, auditSvc),
		Campus:     NewCampusService(repos, guard, auditSvc),
		Taxonomy:   NewTaxonomyService(repos, guard, auditSvc),
		Inventory:  inventorySvc,
		Loan:       NewLoanService(repos, auditSvc),
		Audit:      auditSvc,
		Export:     NewExportService(inventorySvc),
		Guard:      guard,
		SavePolicy: DefaultRetryPolicy(cfg.SaveRetryAttempts, cfg.SaveRetryBaseDelay),
	}
}
