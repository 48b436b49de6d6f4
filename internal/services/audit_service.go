package services

import (
	"context"

	"github.com/dfsouza/patrimonio-api/internal/jobs"
	"github.com/dfsouza/patrimonio-api/internal/models"
	"github.com/dfsouza/patrimonio-api/internal/repository"
	"github.com/dfsouza/patrimonio-api/pkg/logger"
)

// AuditService appends audit entries for every successful state change.
// Writes are best-effort by contract: a failed audit write is logged
// and never blocks or rolls back the business mutation it describes.
type AuditService struct {
	repo   repository.AuditRepository
	worker *jobs.Worker
}

// NewAuditService creates a new audit service
func NewAuditService(repo repository.AuditRepository, worker *jobs.Worker) *AuditService {
	return &AuditService{repo: repo, worker: worker}
}

// Record appends an entry describing action on item (snapshot taken
// now, so history survives a later item delete). item may be nil for
// actions without one (taxonomy, campus, user changes).
func (s *AuditService) Record(ctx context.Context, actor *models.User, action string, campusID uint, item *models.InventoryItem, details string) {
	snapshot, err := models.SnapshotItem(item)
	if err != nil {
		logger.Error("audit snapshot failed", "action", action, "error", err)
		snapshot = nil
	}

	entry := &models.AuditLog{
		Action:       action,
		UserName:     actorName(actor),
		CampusID:     campusID,
		Details:      details,
		ItemSnapshot: snapshot,
	}
	if item != nil {
		id := item.ID
		entry.ItemID = &id
	}

	write := func(ctx context.Context) error {
		return s.repo.Create(ctx, entry)
	}

	if s.worker != nil {
		s.worker.EnqueueAsync(write)
		return
	}
	if err := write(ctx); err != nil {
		logger.Error("audit write failed", "action", action, "details", details, "error", err)
	}
}

// List retrieves audit entries visible to the actor, newest first
func (s *AuditService) List(ctx context.Context, actor *models.User, query *repository.ListQuery) ([]models.AuditLog, int64, error) {
	scope := repository.ResolveScope(actor)
	return s.repo.List(ctx, scope, query)
}

// ListForItem retrieves the history of one item, including entries
// whose item row no longer exists.
func (s *AuditService) ListForItem(ctx context.Context, actor *models.User, itemID uint) ([]models.AuditLog, error) {
	scope := repository.ResolveScope(actor)
	return s.repo.FindByItem(ctx, itemID, scope)
}

func actorName(actor *models.User) string {
	if actor == nil {
		return "sistema"
	}
	if actor.FullName != "" {
		return actor.FullName
	}
	return actor.Username
}
