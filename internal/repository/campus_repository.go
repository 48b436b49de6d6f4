package repository

import (
	"context"

	"github.com/dfsouza/patrimonio-api/internal/models"
	"gorm.io/gorm"
)

// CampusRepository defines the interface for campus data access
type CampusRepository interface {
	List(ctx context.Context) ([]models.Campus, error)
	FindByID(ctx context.Context, id uint) (*models.Campus, error)
	FindByName(ctx context.Context, name string) (*models.Campus, error)
	Create(ctx context.Context, campus *models.Campus) error
	Delete(ctx context.Context, id uint) error
}

type campusRepository struct {
	db *gorm.DB
}

// NewCampusRepository creates a new campus repository
func NewCampusRepository(db *gorm.DB) CampusRepository {
	return &campusRepository{db: db}
}

func (r *campusRepository) List(ctx context.Context) ([]models.Campus, error) {
	var campuses []models.Campus
	err := r.db.WithContext(ctx).Order("name ASC").Find(&campuses).Error
	return campuses, err
}

func (r *campusRepository) FindByID(ctx context.Context, id uint) (*models.Campus, error) {
	var campus models.Campus
	err := r.db.WithContext(ctx).First(&campus, id).Error
	if err != nil {
		return nil, err
	}
	return &campus, nil
}

func (r *campusRepository) FindByName(ctx context.Context, name string) (*models.Campus, error) {
	var campus models.Campus
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", name).
		First(&campus).Error
	if err != nil {
		return nil, err
	}
	return &campus, nil
}

func (r *campusRepository) Create(ctx context.Context, campus *models.Campus) error {
	return translateCreateError(r.db.WithContext(ctx).Create(campus).Error)
}

func (r *campusRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Campus{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
