package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dfsouza/patrimonio-api/internal/models"
	"github.com/dfsouza/patrimonio-api/internal/repository"
)

// TaxonomyService manages the campus-scoped categories and sectors.
// Creation goes through the conflict guard; deletion is blocked while
// items still reference the entry.
type TaxonomyService struct {
	categories repository.CategoryRepository
	sectors    repository.SectorRepository
	campuses   repository.CampusRepository
	guard      *ConflictGuard
	audit      *AuditService
}

// NewTaxonomyService creates a new taxonomy service
func NewTaxonomyService(repos *repository.Repositories, guard *ConflictGuard, audit *AuditService) *TaxonomyService {
	return &TaxonomyService{
		categories: repos.Category,
		sectors:    repos.Sector,
		campuses:   repos.Campus,
		guard:      guard,
		audit:      audit,
	}
}

// ListCategories returns the categories visible to the actor, by name
func (s *TaxonomyService) ListCategories(ctx context.Context, actor *models.User) ([]models.Category, error) {
	scope := repository.ResolveScope(actor)
	return s.categories.List(ctx, scope)
}

// ListSectors returns the sectors visible to the actor, by name
func (s *TaxonomyService) ListSectors(ctx context.Context, actor *models.User) ([]models.Sector, error) {
	scope := repository.ResolveScope(actor)
	return s.sectors.List(ctx, scope)
}

// AddCategory creates a category in the actor's target campus.
// Technicians write into their own campus; admins into the campus they
// name, or into the administration bucket when they name none.
func (s *TaxonomyService) AddCategory(ctx context.Context, actor *models.User, name string, campusID uint) (*models.Category, error) {
	targetCampus, err := s.resolveTargetCampus(ctx, actor, campusID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.CheckCategoryName(ctx, name, targetCampus, 0); err != nil {
		return nil, err
	}

	category := &models.Category{Name: strings.TrimSpace(name), CampusID: targetCampus}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, s.translateWrite(ctx, err, "categoria", name, targetCampus)
	}

	s.audit.Record(ctx, actor, models.AuditActionCreate, targetCampus, nil,
		fmt.Sprintf("Categoria %q criada", category.Name))
	return category, nil
}

// AddSector creates a sector in the actor's target campus
func (s *TaxonomyService) AddSector(ctx context.Context, actor *models.User, name string, campusID uint) (*models.Sector, error) {
	targetCampus, err := s.resolveTargetCampus(ctx, actor, campusID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.CheckSectorName(ctx, name, targetCampus, 0); err != nil {
		return nil, err
	}

	sector := &models.Sector{Name: strings.TrimSpace(name), CampusID: targetCampus}
	if err := s.sectors.Create(ctx, sector); err != nil {
		return nil, s.translateWrite(ctx, err, "setor", name, targetCampus)
	}

	s.audit.Record(ctx, actor, models.AuditActionCreate, targetCampus, nil,
		fmt.Sprintf("Setor %q criado", sector.Name))
	return sector, nil
}

// DeleteCategory removes a category once nothing references it
func (s *TaxonomyService) DeleteCategory(ctx context.Context, actor *models.User, id uint) error {
	scope := repository.ResolveScope(actor)
	category, err := s.categories.FindByID(ctx, id, scope)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}

	if err := s.guard.CheckDeleteCategory(ctx, category.ID); err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Record(ctx, actor, models.AuditActionDelete, category.CampusID, nil,
		fmt.Sprintf("Categoria %q excluída", category.Name))
	return nil
}

// DeleteSector removes a sector once nothing references it
func (s *TaxonomyService) DeleteSector(ctx context.Context, actor *models.User, id uint) error {
	scope := repository.ResolveScope(actor)
	sector, err := s.sectors.FindByID(ctx, id, scope)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}

	if err := s.guard.CheckDeleteSector(ctx, sector.ID); err != nil {
		return err
	}
	if err := s.sectors.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Record(ctx, actor, models.AuditActionDelete, sector.CampusID, nil,
		fmt.Sprintf("Setor %q excluído", sector.Name))
	return nil
}

// resolveTargetCampus decides which campus receives a new taxonomy
// entry. Fails with ScopeResolutionError when no target can be found
// for the actor.
func (s *TaxonomyService) resolveTargetCampus(ctx context.Context, actor *models.User, campusID uint) (uint, error) {
	if actor == nil {
		return 0, &ScopeResolutionError{Msg: "ator não identificado"}
	}

	if actor.IsTecnico() {
		if actor.CampusID == nil {
			return 0, &ScopeResolutionError{Msg: "técnico sem campus atribuído"}
		}
		return *actor.CampusID, nil
	}

	if campusID != 0 {
		if _, err := s.campuses.FindByID(ctx, campusID); err != nil {
			if repository.IsNotFound(err) {
				return 0, &ScopeResolutionError{Msg: fmt.Sprintf("campus #%d não encontrado", campusID)}
			}
			return 0, err
		}
		return campusID, nil
	}

	// Admin with no explicit target: the administration bucket campus
	bucket, err := s.campuses.FindByName(ctx, models.AdminCampusName)
	if err != nil {
		if repository.IsNotFound(err) {
			return 0, &ScopeResolutionError{Msg: "campus de administração não cadastrado"}
		}
		return 0, err
	}
	return bucket.ID, nil
}

func (s *TaxonomyService) translateWrite(ctx context.Context, err error, kind, name string, campusID uint) error {
	if errors.Is(err, repository.ErrDuplicateKey) {
		return &DuplicateError{Kind: kind, Name: name, Scope: s.guard.campusName(ctx, campusID)}
	}
	return err
}
