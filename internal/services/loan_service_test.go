package services

import (
	"context"
	"testing"
	"time"

	"github.com/dfsouza/patrimonio-api/internal/models"
	"github.com/dfsouza/patrimonio-api/internal/repository"
	"github.com/dfsouza/patrimonio-api/internal/statemachine"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func newLoanService(repos *repository.Repositories) *LoanService {
	return NewLoanService(repos, NewAuditService(repos.Audit, nil))
}

func TestLoanCreate_EmptySelectionRejected(t *testing.T) {
	repos, _, _, _ := newTestRepos()
	svc := newLoanService(repos)

	_, err := svc.Create(context.Background(), adminActor(), nil, BorrowerInput{Name: "Maria"})
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestLoanCreate_BorrowerNameRequired(t *testing.T) {
	repos, _, _, _ := newTestRepos()
	svc := newLoanService(repos)

	_, err := svc.Create(context.Background(), adminActor(), []uint{1}, BorrowerInput{})
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestLoanCreate_FixedItemRejectsWholeBatch(t *testing.T) {
	repos, items, loans, _ := newTestRepos()
	svc := newLoanService(repos)

	itemsByID := map[uint]*models.InventoryItem{
		1: {ID: 1, CampusID: 1, SerialNumber: "SN-001", Status: models.ItemStatusFuncionando},
		2: {ID: 2, CampusID: 1, SerialNumber: "SN-002", Status: models.ItemStatusFuncionando, IsFixed: true},
	}
	items.mockFindByID = func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.InventoryItem, error) {
		copy := *itemsByID[id]
		return &copy, nil
	}

	created := 0
	loans.mockCreateWithItem = func(ctx context.Context, loan *models.Loan, item *models.InventoryItem) error {
		created++
		return nil
	}

	_, err := svc.Create(context.Background(), adminActor(), []uint{1, 2}, BorrowerInput{Name: "Maria"})
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	// The bad item is found in the validation pass, before anything moves
	assert.Equal(t, 0, created)
}

func TestLoanCreate_NonLoanableStatusRejected(t *testing.T) {
	repos, items, _, _ := newTestRepos()
	svc := newLoanService(repos)

	items.mockFindByID = func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.InventoryItem, error) {
		return &models.InventoryItem{ID: id, Status: models.ItemStatusManutencao}, nil
	}

	_, err := svc.Create(context.Background(), adminActor(), []uint{1}, BorrowerInput{Name: "Maria"})
	var transitionErr *statemachine.TransitionError
	assert.ErrorAs(t, err, &transitionErr)
}

func TestLoanCreate_FlipsItemAndCopiesData(t *testing.T) {
	repos, items, loans, _ := newTestRepos()
	svc := newLoanService(repos)

	stored := &models.InventoryItem{
		ID: 1, CampusID: 3, SerialNumber: "SN-001", Status: models.ItemStatusFuncionando,
		Category: &models.Category{ID: 10, Name: "Notebook"},
	}
	items.mockFindByID = func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.InventoryItem, error) {
		copy := *stored
		return &copy, nil
	}
	var updatedItem *models.InventoryItem
	loans.mockCreateWithItem = func(ctx context.Context, loan *models.Loan, item *models.InventoryItem) error {
		loan.ID = 100
		updatedItem = item
		return nil
	}

	due := time.Now().Add(48 * time.Hour)
	result, err := svc.Create(context.Background(), tecnicoActor(3), []uint{1}, BorrowerInput{
		Name:             "Maria",
		Contact:          "ramal 220",
		ExpectedReturnAt: &due,
	})
	assert.NoError(t, err)
	assert.Len(t, result, 1)

	loan := result[0]
	assert.Equal(t, models.LoanStatusLoaned, loan.Status)
	assert.Equal(t, "SN-001", loan.ItemSerial)
	assert.Equal(t, "Notebook", loan.ItemCategory)
	assert.Equal(t, uint(3), loan.CampusID)
	// The flipped item travels in the same repository call as the loan
	// row, so both land in one transaction.
	assert.Equal(t, models.ItemStatusEmprestado, updatedItem.Status)
}

func TestLoanCreate_StaleItemFailsAtomically(t *testing.T) {
	repos, items, loans, _ := newTestRepos()
	svc := newLoanService(repos)

	items.mockFindByID = func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.InventoryItem, error) {
		return &models.InventoryItem{ID: id, CampusID: 1, SerialNumber: "SN-001", Status: models.ItemStatusFuncionando}, nil
	}
	loans.mockCreateWithItem = func(ctx context.Context, loan *models.Loan, item *models.InventoryItem) error {
		// The transaction rolled the loan insert back with the failed flip
		return repository.ErrStaleWrite
	}

	result, err := svc.Create(context.Background(), adminActor(), []uint{1}, BorrowerInput{Name: "Maria"})
	var staleErr *StaleWriteError
	assert.ErrorAs(t, err, &staleErr)
	assert.Empty(t, result)
}

func TestLoanReturn_ClosesLoanAndRestoresItem(t *testing.T) {
	repos, items, loans, _ := newTestRepos()
	svc := newLoanService(repos)

	itemID := uint(1)
	loans.mockFindByID = func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.Loan, error) {
		return &models.Loan{ID: id, ItemID: &itemID, ItemSerial: "SN-001", Status: models.LoanStatusLoaned, CampusID: 3}, nil
	}
	items.mockFindByID = func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.InventoryItem, error) {
		return &models.InventoryItem{ID: id, CampusID: 3, Status: models.ItemStatusEmprestado}, nil
	}
	var updatedItem *models.InventoryItem
	var updatedLoan *models.Loan
	loans.mockCloseWithItem = func(ctx context.Context, loan *models.Loan, item *models.InventoryItem) error {
		updatedLoan = loan
		updatedItem = item
		return nil
	}

	loan, err := svc.Return(context.Background(), tecnicoActor(3), 100)
	assert.NoError(t, err)
	assert.Equal(t, models.LoanStatusReturned, loan.Status)
	assert.NotNil(t, loan.ReturnedAt)
	assert.Equal(t, models.ItemStatusFuncionando, updatedItem.Status)
	assert.Equal(t, updatedLoan, loan)
}

func TestLoanReturn_DoubleReturnRejected(t *testing.T) {
	repos, _, loans, _ := newTestRepos()
	svc := newLoanService(repos)

	now := time.Now()
	loans.mockFindByID = func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.Loan, error) {
		return &models.Loan{ID: id, Status: models.LoanStatusReturned, ReturnedAt: &now}, nil
	}

	_, err := svc.Return(context.Background(), adminActor(), 100)
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Contains(t, err.Error(), "já foi devolvido")
}

func TestLoanReturn_ItemDeletedStillClosesLoan(t *testing.T) {
	repos, items, loans, _ := newTestRepos()
	svc := newLoanService(repos)

	itemID := uint(1)
	loans.mockFindByID = func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.Loan, error) {
		return &models.Loan{ID: id, ItemID: &itemID, ItemSerial: "SN-001", Status: models.LoanStatusLoaned}, nil
	}
	items.mockFindByID = func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.InventoryItem, error) {
		return nil, gorm.ErrRecordNotFound
	}
	var updatedLoan *models.Loan
	loans.mockCloseWithItem = func(ctx context.Context, loan *models.Loan, item *models.InventoryItem) error {
		// No item row left to restore
		assert.Nil(t, item)
		updatedLoan = loan
		return nil
	}

	loan, err := svc.Return(context.Background(), adminActor(), 100)
	assert.NoError(t, err)
	assert.Equal(t, models.LoanStatusReturned, loan.Status)
	assert.Equal(t, updatedLoan, loan)
}
