package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dfsouza/patrimonio-api/internal/models"
	"github.com/dfsouza/patrimonio-api/internal/repository"
	"github.com/dfsouza/patrimonio-api/internal/statemachine"
)

// ItemInput is the save payload. Campus, category, sector and
// responsible may arrive as ids or as display names; names are
// resolved to ids once, here at the boundary, within the actor's
// scope.
type ItemInput struct {
	ID              uint   `json:"id"`
	CampusID        uint   `json:"campus_id"`
	CampusName      string `json:"campus_name"`
	CategoryID      uint   `json:"category_id"`
	CategoryName    string `json:"category_name"`
	SectorID        uint   `json:"sector_id"`
	SectorName      string `json:"sector_name"`
	Room            string `json:"room"`
	Brand           string `json:"brand"`
	SerialNumber    string `json:"serial_number"`
	PatrimonyTag    string `json:"patrimony_tag"`
	Status          string `json:"status"`
	ResponsibleID   *uint  `json:"responsible_id"`
	ResponsibleName string `json:"responsible_name"`
	Observation     string `json:"observation"`
	IsFixed         bool   `json:"is_fixed"`
	LockVersion     int    `json:"lock_version"`
}

// InventoryService implements the inventory entry points of the core
// contract: list/get/save/delete, direct status changes, and the
// local-use side channel.
type InventoryService struct {
	items      repository.ItemRepository
	categories repository.CategoryRepository
	sectors    repository.SectorRepository
	campuses   repository.CampusRepository
	users      repository.UserRepository
	loans      repository.LoanRepository
	guard      *ConflictGuard
	audit      *AuditService
}

// NewInventoryService creates a new inventory service
func NewInventoryService(repos *repository.Repositories, guard *ConflictGuard, audit *AuditService) *InventoryService {
	return &InventoryService{
		items:      repos.Item,
		categories: repos.Category,
		sectors:    repos.Sector,
		campuses:   repos.Campus,
		users:      repos.User,
		loans:      repos.Loan,
		guard:      guard,
		audit:      audit,
	}
}

// List returns the items visible to the actor, newest first
func (s *InventoryService) List(ctx context.Context, actor *models.User, query *repository.ListQuery) ([]models.InventoryItem, int64, error) {
	scope := repository.ResolveScope(actor)
	return s.items.List(ctx, scope, query)
}

// Get returns one item within the actor's scope
func (s *InventoryService) Get(ctx context.Context, actor *models.User, id uint) (*models.InventoryItem, error) {
	scope := repository.ResolveScope(actor)
	item, err := s.items.FindByID(ctx, id, scope)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

// Validate runs every pre-mutation check for a save without touching
// state: scope/reference resolution, required fields, serial
// uniqueness, status transition legality. The coordinator calls this
// before applying its optimistic update.
func (s *InventoryService) Validate(ctx context.Context, actor *models.User, in *ItemInput) error {
	_, _, err := s.resolveAndValidate(ctx, actor, in)
	return err
}

// Save creates or updates an item. Validation errors, duplicates and
// illegal transitions come back typed; a lock_version mismatch on
// update surfaces as StaleWriteError.
func (s *InventoryService) Save(ctx context.Context, actor *models.User, in *ItemInput) (*models.InventoryItem, error) {
	item, stored, err := s.resolveAndValidate(ctx, actor, in)
	if err != nil {
		return nil, err
	}

	if stored == nil {
		if err := s.items.Create(ctx, item); err != nil {
			return nil, s.translateWrite(err, in.SerialNumber)
		}
		s.audit.Record(ctx, actor, models.AuditActionCreate, item.CampusID, item,
			fmt.Sprintf("Item %s cadastrado", item.SerialNumber))
		return item, nil
	}

	if err := s.items.Update(ctx, item); err != nil {
		return nil, s.translateWrite(err, in.SerialNumber)
	}
	s.audit.Record(ctx, actor, models.AuditActionUpdate, item.CampusID, item,
		fmt.Sprintf("Item %s atualizado", item.SerialNumber))
	return item, nil
}

// resolveAndValidate normalizes the input into a persistable item.
// Returns (item, stored) where stored is nil for a create.
func (s *InventoryService) resolveAndValidate(ctx context.Context, actor *models.User, in *ItemInput) (*models.InventoryItem, *models.InventoryItem, error) {
	scope := repository.ResolveScope(actor)

	campusID, err := s.resolveTargetCampus(ctx, actor, in)
	if err != nil {
		return nil, nil, err
	}

	if err := s.guard.CheckSerial(ctx, in.SerialNumber, in.ID); err != nil {
		return nil, nil, err
	}

	categoryID, err := s.resolveCategory(ctx, in, campusID)
	if err != nil {
		return nil, nil, err
	}
	sectorID, err := s.resolveSector(ctx, in, campusID)
	if err != nil {
		return nil, nil, err
	}
	if in.ResponsibleID != nil {
		if _, err := s.users.FindByID(ctx, *in.ResponsibleID); err != nil {
			if repository.IsNotFound(err) {
				return nil, nil, &ReferenceNotFoundError{Kind: "responsável", Name: fmt.Sprintf("#%d", *in.ResponsibleID)}
			}
			return nil, nil, err
		}
	}

	// Create path
	if in.ID == 0 {
		status := in.Status
		if status == "" {
			status = models.ItemStatusFuncionando
		}
		if !models.IsFreeStatus(status) {
			return nil, nil, &ValidationError{Msg: "um item não pode ser cadastrado já emprestado ou em uso"}
		}
		item := &models.InventoryItem{
			CampusID:        campusID,
			CategoryID:      categoryID,
			SectorID:        sectorID,
			Room:            in.Room,
			Brand:           in.Brand,
			SerialNumber:    strings.TrimSpace(in.SerialNumber),
			PatrimonyTag:    in.PatrimonyTag,
			Status:          status,
			ResponsibleID:   in.ResponsibleID,
			ResponsibleName: in.ResponsibleName,
			Observation:     in.Observation,
			IsFixed:         in.IsFixed,
		}
		return item, nil, nil
	}

	// Update path: load the stored row within scope and validate the
	// status transition against it.
	stored, err := s.items.FindByID(ctx, in.ID, scope)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	if in.Status != "" && in.Status != stored.Status {
		machine := statemachine.NewItemFSM(stored)
		if err := machine.ChangeTo(ctx, in.Status); err != nil {
			return nil, nil, err
		}
	}

	stored.CampusID = campusID
	stored.CategoryID = categoryID
	stored.SectorID = sectorID
	stored.Room = in.Room
	stored.Brand = in.Brand
	stored.SerialNumber = strings.TrimSpace(in.SerialNumber)
	stored.PatrimonyTag = in.PatrimonyTag
	stored.ResponsibleID = in.ResponsibleID
	stored.ResponsibleName = in.ResponsibleName
	stored.Observation = in.Observation
	stored.IsFixed = in.IsFixed
	// The client's read version, not the stored one: that is what makes
	// the compare-and-swap detect an interleaved save.
	stored.LockVersion = in.LockVersion

	return stored, stored, nil
}

// resolveTargetCampus picks the campus an item is written under.
// Technicians always write into their own campus; admins may target
// any campus by id or name.
func (s *InventoryService) resolveTargetCampus(ctx context.Context, actor *models.User, in *ItemInput) (uint, error) {
	if actor == nil {
		return 0, &ScopeResolutionError{Msg: "ator não identificado"}
	}
	if actor.IsTecnico() {
		if actor.CampusID == nil {
			return 0, &ScopeResolutionError{Msg: "técnico sem campus atribuído"}
		}
		return *actor.CampusID, nil
	}

	if in.CampusID != 0 {
		if _, err := s.campuses.FindByID(ctx, in.CampusID); err != nil {
			if repository.IsNotFound(err) {
				return 0, &ReferenceNotFoundError{Kind: "campus", Name: fmt.Sprintf("#%d", in.CampusID)}
			}
			return 0, err
		}
		return in.CampusID, nil
	}
	if in.CampusName != "" {
		campus, err := s.campuses.FindByName(ctx, in.CampusName)
		if err != nil {
			if repository.IsNotFound(err) {
				return 0, &ReferenceNotFoundError{Kind: "campus", Name: in.CampusName}
			}
			return 0, err
		}
		return campus.ID, nil
	}
	return 0, &ValidationError{Msg: "campus é obrigatório"}
}

// resolveCategory validates a category id or resolves a name, always
// within the target campus. A raw id is never trusted: an id from
// another campus (or a deleted one) is a missing reference, exactly
// like an unknown name.
func (s *InventoryService) resolveCategory(ctx context.Context, in *ItemInput, campusID uint) (uint, error) {
	if in.CategoryID != 0 {
		if _, err := s.categories.FindByID(ctx, in.CategoryID, repository.CampusScoped(campusID)); err != nil {
			if repository.IsNotFound(err) {
				return 0, &ReferenceNotFoundError{Kind: "categoria", Name: fmt.Sprintf("#%d", in.CategoryID)}
			}
			return 0, err
		}
		return in.CategoryID, nil
	}
	if in.CategoryName == "" {
		return 0, &ValidationError{Msg: "categoria é obrigatória"}
	}
	category, err := s.categories.FindByName(ctx, in.CategoryName, campusID)
	if err != nil {
		if repository.IsNotFound(err) {
			return 0, &ReferenceNotFoundError{Kind: "categoria", Name: in.CategoryName}
		}
		return 0, err
	}
	return category.ID, nil
}

func (s *InventoryService) resolveSector(ctx context.Context, in *ItemInput, campusID uint) (uint, error) {
	if in.SectorID != 0 {
		if _, err := s.sectors.FindByID(ctx, in.SectorID, repository.CampusScoped(campusID)); err != nil {
			if repository.IsNotFound(err) {
				return 0, &ReferenceNotFoundError{Kind: "setor", Name: fmt.Sprintf("#%d", in.SectorID)}
			}
			return 0, err
		}
		return in.SectorID, nil
	}
	if in.SectorName == "" {
		return 0, &ValidationError{Msg: "setor é obrigatório"}
	}
	sector, err := s.sectors.FindByName(ctx, in.SectorName, campusID)
	if err != nil {
		if repository.IsNotFound(err) {
			return 0, &ReferenceNotFoundError{Kind: "setor", Name: in.SectorName}
		}
		return 0, err
	}
	return sector.ID, nil
}

// ChangeStatus performs a direct status edit gated by the state machine
func (s *InventoryService) ChangeStatus(ctx context.Context, actor *models.User, id uint, newStatus string) (*models.InventoryItem, error) {
	item, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	machine := statemachine.NewItemFSM(item)
	if err := machine.ChangeTo(ctx, newStatus); err != nil {
		return nil, err
	}

	if err := s.items.Update(ctx, item); err != nil {
		return nil, s.translateWrite(err, item.SerialNumber)
	}
	s.audit.Record(ctx, actor, models.AuditActionUpdate, item.CampusID, item,
		fmt.Sprintf("Status do item %s alterado para %s", item.SerialNumber, newStatus))
	return item, nil
}

// RegisterUse places the item in local use (emuso). Fixed items never
// leave their room, so they cannot enter this state.
func (s *InventoryService) RegisterUse(ctx context.Context, actor *models.User, id uint, usedBy string) (*models.InventoryItem, error) {
	item, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if item.IsFixed {
		return nil, &ValidationError{Msg: "item fixo não pode ser registrado em uso"}
	}

	machine := statemachine.NewItemFSM(item)
	if err := machine.Use(ctx); err != nil {
		return nil, err
	}

	if err := s.items.Update(ctx, item); err != nil {
		return nil, s.translateWrite(err, item.SerialNumber)
	}

	details := fmt.Sprintf("Item %s registrado em uso local", item.SerialNumber)
	if usedBy != "" {
		details += " por " + usedBy
	}
	s.audit.Record(ctx, actor, models.AuditActionUpdate, item.CampusID, item, details)
	return item, nil
}

// ReturnFromUse brings an item in local use back to funcionando
func (s *InventoryService) ReturnFromUse(ctx context.Context, actor *models.User, id uint) (*models.InventoryItem, error) {
	item, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	machine := statemachine.NewItemFSM(item)
	if err := machine.UseReturn(ctx); err != nil {
		return nil, err
	}

	if err := s.items.Update(ctx, item); err != nil {
		return nil, s.translateWrite(err, item.SerialNumber)
	}
	s.audit.Record(ctx, actor, models.AuditActionUpdate, item.CampusID, item,
		fmt.Sprintf("Item %s devolvido do uso local", item.SerialNumber))
	return item, nil
}

// Delete discards (permanent=false, a status change to descarte) or
// permanently removes (permanent=true) an item. Permanent removal is
// blocked while the item is loaned out or in use; the audit entry
// keeps a snapshot so history survives the row.
func (s *InventoryService) Delete(ctx context.Context, actor *models.User, id uint, permanent bool) error {
	item, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}

	if !permanent {
		_, err := s.ChangeStatus(ctx, actor, id, models.ItemStatusDescarte)
		return err
	}

	if item.InCirculation() {
		return &DependencyExistsError{Kind: "empréstimo ou uso ativo", Count: 1}
	}

	// The status column can lag a concurrently written loan; the open
	// loan row is the authoritative check.
	if _, err := s.loans.FindOpenByItem(ctx, id); err == nil {
		return &DependencyExistsError{Kind: "empréstimo ativo", Count: 1}
	} else if !repository.IsNotFound(err) {
		return err
	}

	if err := s.items.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	s.audit.Record(ctx, actor, models.AuditActionDelete, item.CampusID, item,
		fmt.Sprintf("Item %s excluído permanentemente", item.SerialNumber))
	return nil
}

// translateWrite maps repository sentinels onto the service taxonomy
func (s *InventoryService) translateWrite(err error, serial string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrStaleWrite):
		return &StaleWriteError{}
	case errors.Is(err, repository.ErrDuplicateKey):
		// The storage-level unique index closed a race the pre-check
		// could not see.
		return &DuplicateError{Kind: "número de série", Name: serial, Scope: "todos os campi"}
	case repository.IsNotFound(err):
		return ErrNotFound
	}
	return err
}
