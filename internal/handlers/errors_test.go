package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/dfsouza/patrimonio-api/internal/services"
	"github.com/dfsouza/patrimonio-api/internal/statemachine"
	"github.com/stretchr/testify/assert"
)

func TestHandleError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{
			name:           "validation is a bad request",
			err:            &services.ValidationError{Msg: "campus é obrigatório"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unresolvable reference is a bad request",
			err:            &services.ReferenceNotFoundError{Kind: "categoria", Name: "Notebook"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "duplicate is a conflict",
			err:            &services.DuplicateError{Kind: "número de série", Name: "SN-001", Scope: "todos os campi"},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "stale write is a conflict",
			err:            &services.StaleWriteError{},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "blocked delete is a conflict",
			err:            &services.DependencyExistsError{Kind: "itens", Count: 7},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "illegal transition is unprocessable",
			err:            &statemachine.TransitionError{From: "funcionando", To: "emprestado"},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "scope failure is forbidden",
			err:            &services.ScopeResolutionError{Msg: "técnico sem campus atribuído"},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "missing row is not found",
			err:            services.ErrNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "bad credentials are unauthorized",
			err:            services.ErrInvalidPassword,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "exhausted retries are service unavailable",
			err:            &services.TransientError{Attempts: 3, Err: errors.New("connection reset")},
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:           "anything else is an internal error",
			err:            errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			handleError(c, tt.err)
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestHandleError_WrappedErrorStillMaps(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	wrapped := fmt.Errorf("salvando item: %w", &services.ValidationError{Msg: "setor é obrigatório"})
	handleError(c, wrapped)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
