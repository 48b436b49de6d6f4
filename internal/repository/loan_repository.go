package repository

import (
	"context"
	"time"

	"github.com/dfsouza/patrimonio-api/internal/models"
	"gorm.io/gorm"
)

// LoanRepository defines the interface for loan data access
type LoanRepository interface {
	List(ctx context.Context, scope ScopeFilter, query *ListQuery) ([]models.Loan, int64, error)
	FindByID(ctx context.Context, id uint, scope ScopeFilter) (*models.Loan, error)
	FindOpenByItem(ctx context.Context, itemID uint) (*models.Loan, error)
	Create(ctx context.Context, loan *models.Loan) error
	CreateWithItem(ctx context.Context, loan *models.Loan, item *models.InventoryItem) error
	Update(ctx context.Context, loan *models.Loan) error
	CloseWithItem(ctx context.Context, loan *models.Loan, item *models.InventoryItem) error
	FindOverdue(ctx context.Context, scope ScopeFilter, now time.Time) ([]models.Loan, error)
	CountOpenByCampus(ctx context.Context, campusID uint) (int64, error)
}

type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) List(ctx context.Context, scope ScopeFilter, query *ListQuery) ([]models.Loan, int64, error) {
	var loans []models.Loan
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Loan{}).Scopes(scope.predicate())

	if query != nil {
		if query.Search != "" {
			search := "%" + query.Search + "%"
			db = db.Where("borrower_name ILIKE ? OR item_serial ILIKE ?", search, search)
		}
		if status := query.Filters["status"]; status != "" {
			db = db.Where("status = ?", status)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.paginate(db).
		Preload("Campus").
		Preload("Loaner").
		Order("loaned_at DESC").
		Find(&loans).Error
	return loans, total, err
}

func (r *loanRepository) FindByID(ctx context.Context, id uint, scope ScopeFilter) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Scopes(scope.predicate()).
		Preload("Campus").
		Preload("Loaner").
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// FindOpenByItem returns the single open loan for an item, if any.
// An item in emprestado always has exactly one.
func (r *loanRepository) FindOpenByItem(ctx context.Context, itemID uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND status = ?", itemID, models.LoanStatusLoaned).
		First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return translateCreateError(r.db.WithContext(ctx).Create(loan).Error)
}

// CreateWithItem inserts the loan and flips its item in one
// transaction. Storage never holds an open loan for an item that is
// not emprestado: a stale-write on the item rolls the loan insert
// back too.
func (r *loanRepository) CreateWithItem(ctx context.Context, loan *models.Loan, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := translateCreateError(tx.Create(loan).Error); err != nil {
			return err
		}
		return updateItemCAS(tx, item)
	})
}

func (r *loanRepository) Update(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Save(loan).Error
}

// CloseWithItem closes the loan and restores its item in one
// transaction. item may be nil when the row was permanently deleted
// while the loan was open; the loan still closes on its own copy of
// the data.
func (r *loanRepository) CloseWithItem(ctx context.Context, loan *models.Loan, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if item != nil {
			if err := updateItemCAS(tx, item); err != nil {
				return err
			}
		}
		return tx.Save(loan).Error
	})
}

func (r *loanRepository) FindOverdue(ctx context.Context, scope ScopeFilter, now time.Time) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Scopes(scope.predicate()).
		Where("status = ? AND expected_return_at IS NOT NULL AND expected_return_at < ?", models.LoanStatusLoaned, now).
		Preload("Campus").
		Order("expected_return_at ASC").
		Find(&loans).Error
	return loans, err
}

func (r *loanRepository) CountOpenByCampus(ctx context.Context, campusID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("campus_id = ? AND status = ?", campusID, models.LoanStatusLoaned).
		Count(&count).Error
	return count, err
}
