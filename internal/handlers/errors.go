package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dfsouza/patrimonio-api/internal/services"
	"github.com/dfsouza/patrimonio-api/internal/statemachine"
)

// handleError maps the service error taxonomy onto HTTP statuses.
// Conflicts (duplicate, stale write, blocked delete) are 409 so the
// client knows a reload or rename resolves it; illegal transitions are
// 422; exhausted retries surface as 503.
func handleError(c *gin.Context, err error) {
	var (
		validationErr *services.ValidationError
		duplicateErr  *services.DuplicateError
		dependencyErr *services.DependencyExistsError
		referenceErr  *services.ReferenceNotFoundError
		scopeErr      *services.ScopeResolutionError
		staleErr      *services.StaleWriteError
		transientErr  *services.TransientError
		transitionErr *statemachine.TransitionError
	)

	switch {
	case errors.As(err, &validationErr), errors.As(err, &referenceErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &duplicateErr), errors.As(err, &staleErr), errors.As(err, &dependencyErr):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &scopeErr), errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidPassword):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.As(err, &transientErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
