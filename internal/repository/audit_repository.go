package repository

import (
	"context"

	"github.com/dfsouza/patrimonio-api/internal/models"
	"gorm.io/gorm"
)

// AuditRepository defines the interface for the append-only audit log.
// There is deliberately no update or delete: entries are immutable and
// survive the deletion of the items they reference.
type AuditRepository interface {
	List(ctx context.Context, scope ScopeFilter, query *ListQuery) ([]models.AuditLog, int64, error)
	FindByItem(ctx context.Context, itemID uint, scope ScopeFilter) ([]models.AuditLog, error)
	Create(ctx context.Context, entry *models.AuditLog) error
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit log repository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) List(ctx context.Context, scope ScopeFilter, query *ListQuery) ([]models.AuditLog, int64, error) {
	var entries []models.AuditLog
	var total int64

	db := r.db.WithContext(ctx).Model(&models.AuditLog{}).Scopes(scope.predicate())

	if query != nil {
		if action := query.Filters["action"]; action != "" {
			db = db.Where("action = ?", action)
		}
		if query.Search != "" {
			search := "%" + query.Search + "%"
			db = db.Where("user_name ILIKE ? OR details ILIKE ?", search, search)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.paginate(db).
		Preload("Campus").
		Order("created_at DESC").
		Find(&entries).Error
	return entries, total, err
}

func (r *auditRepository) FindByItem(ctx context.Context, itemID uint, scope ScopeFilter) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	err := r.db.WithContext(ctx).
		Scopes(scope.predicate()).
		Where("item_id = ?", itemID).
		Preload("Campus").
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
