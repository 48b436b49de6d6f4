package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dfsouza/patrimonio-api/internal/models"
	"github.com/dfsouza/patrimonio-api/internal/repository"
)

// UserInput is the create/update payload for user administration
type UserInput struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	CampusID *uint  `json:"campus_id"`
}

// UserService manages the per-campus user administration. Only admins
// create, delete or reassign users; a technician can never move
// themselves to another campus.
type UserService struct {
	users    repository.UserRepository
	campuses repository.CampusRepository
	audit    *AuditService
}

// NewUserService creates a new user service
func NewUserService(repos *repository.Repositories, audit *AuditService) *UserService {
	return &UserService{
		users:    repos.User,
		campuses: repos.Campus,
		audit:    audit,
	}
}

// List returns the users visible to the actor: everyone for admins,
// the technician's own campus otherwise.
func (s *UserService) List(ctx context.Context, actor *models.User, query *repository.ListQuery) ([]models.User, int64, error) {
	scope := repository.ResolveScope(actor)
	return s.users.List(ctx, scope, query)
}

// Get returns one user by id
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// Create registers a new user. Admin only. Technicians must carry a
// campus assignment; passwords are always hashed.
func (s *UserService) Create(ctx context.Context, actor *models.User, in UserInput) (*models.User, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if strings.TrimSpace(in.Username) == "" {
		return nil, &ValidationError{Msg: "nome de usuário é obrigatório"}
	}
	if len(in.Password) < 6 {
		return nil, &ValidationError{Msg: "senha deve ter ao menos 6 caracteres"}
	}
	if in.Role == "" {
		in.Role = models.RoleTecnico
	}
	if in.Role == models.RoleTecnico {
		if in.CampusID == nil {
			return nil, &ValidationError{Msg: "técnico precisa de um campus atribuído"}
		}
		if _, err := s.campuses.FindByID(ctx, *in.CampusID); err != nil {
			if repository.IsNotFound(err) {
				return nil, &ReferenceNotFoundError{Kind: "campus", Name: fmt.Sprintf("#%d", *in.CampusID)}
			}
			return nil, err
		}
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:          strings.TrimSpace(in.Username),
		FullName:          in.FullName,
		EncryptedPassword: hash,
		Role:              in.Role,
		Status:            in.Status,
		CampusID:          in.CampusID,
	}
	if user.Role == models.RoleAdmin {
		user.CampusID = nil
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, &DuplicateError{Kind: "usuário", Name: user.Username, Scope: "todos os campi"}
		}
		return nil, err
	}

	campusID := uint(0)
	if user.CampusID != nil {
		campusID = *user.CampusID
	}
	s.audit.Record(ctx, actor, models.AuditActionCreate, campusID, nil,
		fmt.Sprintf("Usuário %s criado (%s)", user.Username, user.Role))
	return user, nil
}

// Update edits a user. Campus reassignment and role changes are admin
// only; a user may edit their own name and password.
func (s *UserService) Update(ctx context.Context, actor *models.User, id uint, in UserInput) (*models.User, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if !actor.IsAdmin() && actor.ID != id {
		return nil, ErrUnauthorized
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.FullName != "" {
		user.FullName = in.FullName
	}
	if in.Password != "" {
		if len(in.Password) < 6 {
			return nil, &ValidationError{Msg: "senha deve ter ao menos 6 caracteres"}
		}
		hash, err := HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		user.EncryptedPassword = hash
	}

	// Role, status and campus assignment never move without an admin
	if actor.IsAdmin() {
		if in.Role != "" {
			user.Role = in.Role
		}
		if in.Status != "" {
			user.Status = in.Status
		}
		if in.CampusID != nil {
			if _, err := s.campuses.FindByID(ctx, *in.CampusID); err != nil {
				if repository.IsNotFound(err) {
					return nil, &ReferenceNotFoundError{Kind: "campus", Name: fmt.Sprintf("#%d", *in.CampusID)}
				}
				return nil, err
			}
			user.CampusID = in.CampusID
			user.Campus = nil
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, &DuplicateError{Kind: "usuário", Name: user.Username, Scope: "todos os campi"}
		}
		return nil, err
	}
	return user, nil
}

// ChangePassword swaps a user's password. Users change their own and
// must present the current one; admins may reset anyone's without it.
func (s *UserService) ChangePassword(ctx context.Context, actor *models.User, id uint, current, newPassword string) error {
	if actor == nil {
		return ErrUnauthorized
	}
	if !actor.IsAdmin() && actor.ID != id {
		return ErrUnauthorized
	}
	if len(newPassword) < 6 {
		return &ValidationError{Msg: "senha deve ter ao menos 6 caracteres"}
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		if !VerifyPassword(current, user.EncryptedPassword) {
			return ErrInvalidPassword
		}
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.EncryptedPassword = hash
	return s.users.Update(ctx, user)
}

// Delete removes a user. Admin only; admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor *models.User, id uint) error {
	if actor == nil || !actor.IsAdmin() {
		return ErrUnauthorized
	}
	if actor.ID == id {
		return &ValidationError{Msg: "não é possível excluir a própria conta"}
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}

	campusID := uint(0)
	if user.CampusID != nil {
		campusID = *user.CampusID
	}
	s.audit.Record(ctx, actor, models.AuditActionDelete, campusID, nil,
		fmt.Sprintf("Usuário %s excluído", user.Username))
	return nil
}
