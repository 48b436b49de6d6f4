package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dfsouza/patrimonio-api/internal/repository"
	"github.com/dfsouza/patrimonio-api/internal/statemachine"
)

// Common service errors
var (
	ErrNotFound        = errors.New("registro não encontrado")
	ErrUnauthorized    = errors.New("não autorizado")
	ErrInvalidPassword = errors.New("senha inválida")
)

// ValidationError is detectable before any storage call: missing
// required field, serial too short, isFixed item targeted for loan/use.
// Never retried, surfaced immediately, no state is touched.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// DuplicateError is a name collision within the appropriate scope. The
// message always names the conflicting scope explicitly.
type DuplicateError struct {
	Kind  string // "categoria", "setor", "número de série", ...
	Name  string
	Scope string // campus name, or "todos os campi" for global uniqueness
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %q já existe em %s", e.Kind, e.Name, e.Scope)
}

// DependencyExistsError blocks a delete while dependent rows reference
// the target. Count tells the user what is in the way.
type DependencyExistsError struct {
	Kind  string // what is blocking: "itens", "empréstimos ativos", ...
	Count int64
}

func (e *DependencyExistsError) Error() string {
	return fmt.Sprintf("exclusão bloqueada: %d %s dependem deste registro", e.Count, e.Kind)
}

// ReferenceNotFoundError means a name-to-id lookup failed within the
// actor's scope. Retrying cannot fix a missing reference.
type ReferenceNotFoundError struct {
	Kind string
	Name string
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("%s %q não encontrado no seu escopo", e.Kind, e.Name)
}

// ScopeResolutionError means the target campus for an operation could
// not be resolved from the actor (configuration-level failure).
type ScopeResolutionError struct {
	Msg string
}

func (e *ScopeResolutionError) Error() string {
	return e.Msg
}

// StaleWriteError means another session saved the row between this
// session's read and write. Not retryable: the user must reload.
type StaleWriteError struct{}

func (e *StaleWriteError) Error() string {
	return "o registro foi alterado por outra sessão, recarregue e tente novamente"
}

// IsRetryable classifies errors for the save retry policy. Only
// transient I/O failures are worth retrying; everything the taxonomy
// names is a terminal answer.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var (
		validationErr *ValidationError
		duplicateErr  *DuplicateError
		dependencyErr *DependencyExistsError
		referenceErr  *ReferenceNotFoundError
		scopeErr      *ScopeResolutionError
		staleErr      *StaleWriteError
		transitionErr *statemachine.TransitionError
	)
	switch {
	case errors.As(err, &validationErr),
		errors.As(err, &duplicateErr),
		errors.As(err, &dependencyErr),
		errors.As(err, &referenceErr),
		errors.As(err, &scopeErr),
		errors.As(err, &staleErr),
		errors.As(err, &transitionErr):
		return false
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrInvalidPassword),
		errors.Is(err, repository.ErrStaleWrite),
		errors.Is(err, repository.ErrDuplicateKey),
		repository.IsNotFound(err):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}

	// Unclassified failures are assumed transient (flaky pool, dropped
	// connection) and get the bounded retry treatment.
	return true
}
