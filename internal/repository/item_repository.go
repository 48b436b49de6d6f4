package repository

import (
	"context"
	"errors"

	"github.com/dfsouza/patrimonio-api/internal/models"
	"gorm.io/gorm"
)

// ItemRepository defines the interface for inventory item data access.
// Every read takes the tenant ScopeFilter; it is applied as a query
// predicate, not filtered after the fact.
type ItemRepository interface {
	List(ctx context.Context, scope ScopeFilter, query *ListQuery) ([]models.InventoryItem, int64, error)
	FindByID(ctx context.Context, id uint, scope ScopeFilter) (*models.InventoryItem, error)
	Create(ctx context.Context, item *models.InventoryItem) error
	Update(ctx context.Context, item *models.InventoryItem) error
	Delete(ctx context.Context, id uint) error
	CountBySerial(ctx context.Context, serial string, excludeID uint) (int64, error)
	CountByCategory(ctx context.Context, categoryID uint) (int64, error)
	CountBySector(ctx context.Context, sectorID uint) (int64, error)
	CountByCampus(ctx context.Context, campusID uint) (int64, error)
}

type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new inventory item repository
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) List(ctx context.Context, scope ScopeFilter, query *ListQuery) ([]models.InventoryItem, int64, error) {
	var items []models.InventoryItem
	var total int64

	db := r.db.WithContext(ctx).Model(&models.InventoryItem{}).Scopes(scope.predicate())

	if query != nil {
		if query.Search != "" {
			search := "%" + query.Search + "%"
			db = db.Where("serial_number ILIKE ? OR patrimony_tag ILIKE ? OR brand ILIKE ? OR room ILIKE ?",
				search, search, search, search)
		}
		if status := query.Filters["status"]; status != "" {
			db = db.Where("status = ?", status)
		}
		if category := query.Filters["category_id"]; category != "" {
			db = db.Where("category_id = ?", category)
		}
		if sector := query.Filters["sector_id"]; sector != "" {
			db = db.Where("sector_id = ?", sector)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.paginate(db).
		Preload("Campus").
		Preload("Category").
		Preload("Sector").
		Preload("Responsible").
		Order("created_at DESC").
		Find(&items).Error
	return items, total, err
}

func (r *itemRepository) FindByID(ctx context.Context, id uint, scope ScopeFilter) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).
		Scopes(scope.predicate()).
		Preload("Campus").
		Preload("Category").
		Preload("Sector").
		Preload("Responsible").
		First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) Create(ctx context.Context, item *models.InventoryItem) error {
	return translateCreateError(r.db.WithContext(ctx).Create(item).Error)
}

// Update persists the item with a compare-and-swap on lock_version.
// A mismatch means another session saved the row since this one read
// it; the caller surfaces that as a stale-write conflict instead of
// silently last-write-wins.
func (r *itemRepository) Update(ctx context.Context, item *models.InventoryItem) error {
	return updateItemCAS(r.db.WithContext(ctx), item)
}

// updateItemCAS is the compare-and-swap write shared by the direct
// item update and the transactional loan writes. db may be a plain
// handle or an open transaction.
func updateItemCAS(db *gorm.DB, item *models.InventoryItem) error {
	readVersion := item.LockVersion
	item.LockVersion = readVersion + 1

	res := db.
		Model(&models.InventoryItem{}).
		Where("id = ? AND lock_version = ?", item.ID, readVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(item)
	if res.Error != nil {
		item.LockVersion = readVersion
		return translateCreateError(res.Error)
	}
	if res.RowsAffected == 0 {
		item.LockVersion = readVersion
		// Distinguish a vanished row from a concurrent edit
		var count int64
		if err := db.Model(&models.InventoryItem{}).Where("id = ?", item.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrStaleWrite
	}
	return nil
}

// Delete removes the row permanently and unconditionally. The safety
// check (is the item on loan or in use?) belongs to the caller.
func (r *itemRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.InventoryItem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountBySerial counts items carrying the serial number anywhere in
// the system. Serial uniqueness is global, not per campus.
func (r *itemRepository) CountBySerial(ctx context.Context, serial string, excludeID uint) (int64, error) {
	var count int64
	db := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("LOWER(serial_number) = LOWER(?)", serial)
	if excludeID != 0 {
		db = db.Where("id <> ?", excludeID)
	}
	err := db.Count(&count).Error
	return count, err
}

func (r *itemRepository) CountByCategory(ctx context.Context, categoryID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	return count, err
}

func (r *itemRepository) CountBySector(ctx context.Context, sectorID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("sector_id = ?", sectorID).
		Count(&count).Error
	return count, err
}

func (r *itemRepository) CountByCampus(ctx context.Context, campusID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("campus_id = ?", campusID).
		Count(&count).Error
	return count, err
}

// IsNotFound reports whether err is the backing store's missing-row error
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
