package repository

import (
	"context"

	"github.com/dfsouza/patrimonio-api/internal/models"
	"gorm.io/gorm"
)

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	List(ctx context.Context, scope ScopeFilter) ([]models.Category, error)
	FindByID(ctx context.Context, id uint, scope ScopeFilter) (*models.Category, error)
	FindByName(ctx context.Context, name string, campusID uint) (*models.Category, error)
	CountByName(ctx context.Context, name string, campusID uint, excludeID uint) (int64, error)
	Create(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uint) error
}

// SectorRepository defines the interface for sector data access
type SectorRepository interface {
	List(ctx context.Context, scope ScopeFilter) ([]models.Sector, error)
	FindByID(ctx context.Context, id uint, scope ScopeFilter) (*models.Sector, error)
	FindByName(ctx context.Context, name string, campusID uint) (*models.Sector, error)
	CountByName(ctx context.Context, name string, campusID uint, excludeID uint) (int64, error)
	Create(ctx context.Context, sector *models.Sector) error
	Delete(ctx context.Context, id uint) error
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) List(ctx context.Context, scope ScopeFilter) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Scopes(scope.predicate()).
		Preload("Campus").
		Order("name ASC").
		Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) FindByID(ctx context.Context, id uint, scope ScopeFilter) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Scopes(scope.predicate()).
		Preload("Campus").
		First(&category, id).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindByName(ctx context.Context, name string, campusID uint) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?) AND campus_id = ?", name, campusID).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// CountByName counts same-named categories within one campus, case
// insensitively. Uniqueness is per campus: the same name in another
// campus is an independent row.
func (r *categoryRepository) CountByName(ctx context.Context, name string, campusID uint, excludeID uint) (int64, error) {
	var count int64
	db := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("LOWER(name) = LOWER(?) AND campus_id = ?", name, campusID)
	if excludeID != 0 {
		db = db.Where("id <> ?", excludeID)
	}
	err := db.Count(&count).Error
	return count, err
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	return translateCreateError(r.db.WithContext(ctx).Create(category).Error)
}

func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Category{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type sectorRepository struct {
	db *gorm.DB
}

// NewSectorRepository creates a new sector repository
func NewSectorRepository(db *gorm.DB) SectorRepository {
	return &sectorRepository{db: db}
}

func (r *sectorRepository) List(ctx context.Context, scope ScopeFilter) ([]models.Sector, error) {
	var sectors []models.Sector
	err := r.db.WithContext(ctx).
		Scopes(scope.predicate()).
		Preload("Campus").
		Order("name ASC").
		Find(&sectors).Error
	return sectors, err
}

func (r *sectorRepository) FindByID(ctx context.Context, id uint, scope ScopeFilter) (*models.Sector, error) {
	var sector models.Sector
	err := r.db.WithContext(ctx).
		Scopes(scope.predicate()).
		Preload("Campus").
		First(&sector, id).Error
	if err != nil {
		return nil, err
	}
	return &sector, nil
}

func (r *sectorRepository) FindByName(ctx context.Context, name string, campusID uint) (*models.Sector, error) {
	var sector models.Sector
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?) AND campus_id = ?", name, campusID).
		First(&sector).Error
	if err != nil {
		return nil, err
	}
	return &sector, nil
}

func (r *sectorRepository) CountByName(ctx context.Context, name string, campusID uint, excludeID uint) (int64, error) {
	var count int64
	db := r.db.WithContext(ctx).
		Model(&models.Sector{}).
		Where("LOWER(name) = LOWER(?) AND campus_id = ?", name, campusID)
	if excludeID != 0 {
		db = db.Where("id <> ?", excludeID)
	}
	err := db.Count(&count).Error
	return count, err
}

func (r *sectorRepository) Create(ctx context.Context, sector *models.Sector) error {
	return translateCreateError(r.db.WithContext(ctx).Create(sector).Error)
}

func (r *sectorRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Sector{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
