package services

import (
	"context"
	"strings"

	"github.com/dfsouza/patrimonio-api/internal/repository"
)

// minSerialLen guards against obvious typos before anything is saved
const minSerialLen = 3

// ConflictGuard is the cross-cutting pre-mutation validation: scoped
// name uniqueness for create/rename, dependency counting for delete.
// It always runs before any optimistic state change.
type ConflictGuard struct {
	items      repository.ItemRepository
	categories repository.CategoryRepository
	sectors    repository.SectorRepository
	campuses   repository.CampusRepository
	users      repository.UserRepository
	loans      repository.LoanRepository
}

// NewConflictGuard creates the guard over the repositories it counts against
func NewConflictGuard(repos *repository.Repositories) *ConflictGuard {
	return &ConflictGuard{
		items:      repos.Item,
		categories: repos.Category,
		sectors:    repos.Sector,
		campuses:   repos.Campus,
		users:      repos.User,
		loans:      repos.Loan,
	}
}

// CheckSerial validates an item serial number and enforces its global
// uniqueness. excludeID skips the item being renamed/updated.
func (g *ConflictGuard) CheckSerial(ctx context.Context, serial string, excludeID uint) error {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return &ValidationError{Msg: "número de série é obrigatório"}
	}
	if len(serial) < minSerialLen {
		return &ValidationError{Msg: "número de série muito curto"}
	}

	count, err := g.items.CountBySerial(ctx, serial, excludeID)
	if err != nil {
		return err
	}
	if count > 0 {
		return &DuplicateError{Kind: "número de série", Name: serial, Scope: "todos os campi"}
	}
	return nil
}

// CheckCategoryName enforces per-campus, case-insensitive uniqueness
func (g *ConflictGuard) CheckCategoryName(ctx context.Context, name string, campusID uint, excludeID uint) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Msg: "nome da categoria é obrigatório"}
	}

	count, err := g.categories.CountByName(ctx, name, campusID, excludeID)
	if err != nil {
		return err
	}
	if count > 0 {
		return &DuplicateError{Kind: "categoria", Name: name, Scope: g.campusName(ctx, campusID)}
	}
	return nil
}

// CheckSectorName enforces per-campus, case-insensitive uniqueness
func (g *ConflictGuard) CheckSectorName(ctx context.Context, name string, campusID uint, excludeID uint) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Msg: "nome do setor é obrigatório"}
	}

	count, err := g.sectors.CountByName(ctx, name, campusID, excludeID)
	if err != nil {
		return err
	}
	if count > 0 {
		return &DuplicateError{Kind: "setor", Name: name, Scope: g.campusName(ctx, campusID)}
	}
	return nil
}

// CheckDeleteCategory blocks the delete while items still reference it
func (g *ConflictGuard) CheckDeleteCategory(ctx context.Context, categoryID uint) error {
	count, err := g.items.CountByCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if count > 0 {
		return &DependencyExistsError{Kind: "itens de inventário", Count: count}
	}
	return nil
}

// CheckDeleteSector blocks the delete while items still reference it
func (g *ConflictGuard) CheckDeleteSector(ctx context.Context, sectorID uint) error {
	count, err := g.items.CountBySector(ctx, sectorID)
	if err != nil {
		return err
	}
	if count > 0 {
		return &DependencyExistsError{Kind: "itens de inventário", Count: count}
	}
	return nil
}

// CheckDeleteCampus blocks the delete while items, open loans or users
// still reference the campus.
func (g *ConflictGuard) CheckDeleteCampus(ctx context.Context, campusID uint) error {
	itemCount, err := g.items.CountByCampus(ctx, campusID)
	if err != nil {
		return err
	}
	if itemCount > 0 {
		return &DependencyExistsError{Kind: "itens de inventário", Count: itemCount}
	}

	loanCount, err := g.loans.CountOpenByCampus(ctx, campusID)
	if err != nil {
		return err
	}
	if loanCount > 0 {
		return &DependencyExistsError{Kind: "empréstimos ativos", Count: loanCount}
	}

	userCount, err := g.users.CountByCampus(ctx, campusID)
	if err != nil {
		return err
	}
	if userCount > 0 {
		return &DependencyExistsError{Kind: "usuários", Count: userCount}
	}
	return nil
}

func (g *ConflictGuard) campusName(ctx context.Context, campusID uint) string {
	campus, err := g.campuses.FindByID(ctx, campusID)
	if err != nil {
		return "este campus"
	}
	return campus.Name
}
