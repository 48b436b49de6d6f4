package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dfsouza/patrimonio-api/internal/models"
	"github.com/dfsouza/patrimonio-api/internal/repository"
)

// CampusService manages the tenant boundary itself. Admin only for
// every mutation; deletion is blocked while anything references the
// campus.
type CampusService struct {
	campuses repository.CampusRepository
	guard    *ConflictGuard
	audit    *AuditService
}

// NewCampusService creates a new campus service
func NewCampusService(repos *repository.Repositories, guard *ConflictGuard, audit *AuditService) *CampusService {
	return &CampusService{
		campuses: repos.Campus,
		guard:    guard,
		audit:    audit,
	}
}

// List returns all campuses by name. Campuses are not themselves
// scoped: technicians see the list (for display) but only ever read
// rows inside their own.
func (s *CampusService) List(ctx context.Context) ([]models.Campus, error) {
	return s.campuses.List(ctx)
}

// Create registers a new campus. Admin only.
func (s *CampusService) Create(ctx context.Context, actor *models.User, name string) (*models.Campus, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Msg: "nome do campus é obrigatório"}
	}

	if _, err := s.campuses.FindByName(ctx, name); err == nil {
		return nil, &DuplicateError{Kind: "campus", Name: name, Scope: "todos os campi"}
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	campus := &models.Campus{Name: name}
	if err := s.campuses.Create(ctx, campus); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, &DuplicateError{Kind: "campus", Name: name, Scope: "todos os campi"}
		}
		return nil, err
	}

	s.audit.Record(ctx, actor, models.AuditActionCreate, campus.ID, nil,
		fmt.Sprintf("Campus %q criado", campus.Name))
	return campus, nil
}

// Delete removes a campus once no item, open loan or user references it
func (s *CampusService) Delete(ctx context.Context, actor *models.User, id uint) error {
	if actor == nil || !actor.IsAdmin() {
		return ErrUnauthorized
	}

	campus, err := s.campuses.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}

	if err := s.guard.CheckDeleteCampus(ctx, id); err != nil {
		return err
	}
	if err := s.campuses.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Record(ctx, actor, models.AuditActionDelete, campus.ID, nil,
		fmt.Sprintf("Campus %q excluído", campus.Name))
	return nil
}
