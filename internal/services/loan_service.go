package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dfsouza/patrimonio-api/internal/models"
	"github.com/dfsouza/patrimonio-api/internal/repository"
	"github.com/dfsouza/patrimonio-api/internal/statemachine"
)

// BorrowerInput identifies the external borrower of a loan
type BorrowerInput struct {
	Name             string     `json:"name"`
	Contact          string     `json:"contact"`
	ExpectedReturnAt *time.Time `json:"expected_return_at"`
}

// LoanService implements the loan side channel: creating a loan flips
// the item to emprestado, returning it flips the item back. Those are
// the only paths in and out of that status.
type LoanService struct {
	loans repository.LoanRepository
	items repository.ItemRepository
	audit *AuditService
}

// NewLoanService creates a new loan service
func NewLoanService(repos *repository.Repositories, audit *AuditService) *LoanService {
	return &LoanService{
		loans: repos.Loan,
		items: repos.Item,
		audit: audit,
	}
}

// List returns the loans visible to the actor, newest first
func (s *LoanService) List(ctx context.Context, actor *models.User, query *repository.ListQuery) ([]models.Loan, int64, error) {
	scope := repository.ResolveScope(actor)
	return s.loans.List(ctx, scope, query)
}

// Overdue returns the open loans past their expected return date
func (s *LoanService) Overdue(ctx context.Context, actor *models.User) ([]models.Loan, error) {
	scope := repository.ResolveScope(actor)
	return s.loans.FindOverdue(ctx, scope, time.Now())
}

// OverdueAll is the unscoped variant used by the background sweep; it
// never serves a request-path actor.
func (s *LoanService) OverdueAll(ctx context.Context) ([]models.Loan, error) {
	return s.loans.FindOverdue(ctx, repository.Unscoped(), time.Now())
}

// Create loans one or more items to a borrower. All items are
// validated before any is touched, so a bad item in the batch rejects
// the whole request without side effects.
func (s *LoanService) Create(ctx context.Context, actor *models.User, itemIDs []uint, borrower BorrowerInput) ([]models.Loan, error) {
	if len(itemIDs) == 0 {
		return nil, &ValidationError{Msg: "selecione ao menos um item para emprestar"}
	}
	if borrower.Name == "" {
		return nil, &ValidationError{Msg: "nome do solicitante é obrigatório"}
	}
	if actor == nil {
		return nil, &ScopeResolutionError{Msg: "ator não identificado"}
	}

	scope := repository.ResolveScope(actor)

	// Validation pass: every item must be loanable before anything moves
	items := make([]*models.InventoryItem, 0, len(itemIDs))
	for _, id := range itemIDs {
		item, err := s.items.FindByID(ctx, id, scope)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if item.IsFixed {
			return nil, &ValidationError{Msg: fmt.Sprintf("item fixo %s não pode ser emprestado", item.SerialNumber)}
		}
		if !item.MayLoan() {
			return nil, &statemachine.TransitionError{From: item.Status, To: models.ItemStatusEmprestado}
		}
		items = append(items, item)
	}

	loans := make([]models.Loan, 0, len(items))
	for _, item := range items {
		machine := statemachine.NewItemFSM(item)
		if err := machine.Loan(ctx); err != nil {
			return loans, err
		}

		itemID := item.ID
		loan := models.Loan{
			ItemID:           &itemID,
			ItemSerial:       item.SerialNumber,
			BorrowerName:     borrower.Name,
			BorrowerContact:  borrower.Contact,
			ExpectedReturnAt: borrower.ExpectedReturnAt,
			Status:           models.LoanStatusLoaned,
			CampusID:         item.CampusID,
			LoanerUserID:     actor.ID,
			LoanedAt:         time.Now(),
		}
		if item.Category != nil {
			loan.ItemCategory = item.Category.Name
		}

		// One transaction per item: the loan row and the status flip land
		// together or not at all.
		if err := s.loans.CreateWithItem(ctx, &loan, item); err != nil {
			return loans, s.translateWrite(err)
		}

		s.audit.Record(ctx, actor, models.AuditActionLoan, item.CampusID, item,
			fmt.Sprintf("Item %s emprestado para %s", item.SerialNumber, borrower.Name))
		loans = append(loans, loan)
	}

	return loans, nil
}

// Return closes a loan and puts the item back in funcionando. A loan
// already returned is rejected, never double-applied.
func (s *LoanService) Return(ctx context.Context, actor *models.User, loanID uint) (*models.Loan, error) {
	scope := repository.ResolveScope(actor)

	loan, err := s.loans.FindByID(ctx, loanID, scope)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if loan.IsReturned() {
		return nil, &ValidationError{Msg: "este empréstimo já foi devolvido"}
	}

	// The item may have been permanently deleted while on a historical
	// loan record; the loan still closes on its own copy of the data.
	var item *models.InventoryItem
	if loan.ItemID != nil {
		item, err = s.items.FindByID(ctx, *loan.ItemID, scope)
		if err != nil && !repository.IsNotFound(err) {
			return nil, err
		}
	}

	if item != nil {
		machine := statemachine.NewItemFSM(item)
		if err := machine.LoanReturn(ctx); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	loan.ReturnedAt = &now
	loan.Status = models.LoanStatusReturned
	if err := s.loans.CloseWithItem(ctx, loan, item); err != nil {
		return nil, s.translateWrite(err)
	}

	s.audit.Record(ctx, actor, models.AuditActionReturn, loan.CampusID, item,
		fmt.Sprintf("Item %s devolvido por %s", loan.ItemSerial, loan.BorrowerName))
	return loan, nil
}

func (s *LoanService) translateWrite(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrStaleWrite):
		return &StaleWriteError{}
	case repository.IsNotFound(err):
		return ErrNotFound
	}
	return err
}
