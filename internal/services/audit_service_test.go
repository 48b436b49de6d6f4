package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dfsouza/patrimonio-api/internal/models"
	"github.com/dfsouza/patrimonio-api/internal/repository"
	"github.com/stretchr/testify/assert"
)

func TestAuditRecord_WriteFailureNeverPropagates(t *testing.T) {
	audits := &mockAuditRepo{}
	audits.mockCreate = func(ctx context.Context, entry *models.AuditLog) error {
		return errors.New("audit store down")
	}
	svc := NewAuditService(audits, nil)

	// Record has no error return: a failed write is logged and dropped
	svc.Record(context.Background(), adminActor(), models.AuditActionCreate, 1, nil, "Item SN-001 cadastrado")
}

func TestAuditRecord_SnapshotCarriesItem(t *testing.T) {
	audits := &mockAuditRepo{}
	var entry *models.AuditLog
	audits.mockCreate = func(ctx context.Context, e *models.AuditLog) error {
		entry = e
		return nil
	}
	svc := NewAuditService(audits, nil)

	item := &models.InventoryItem{ID: 7, CampusID: 1, SerialNumber: "SN-007", Status: models.ItemStatusFuncionando}
	svc.Record(context.Background(), tecnicoActor(1), models.AuditActionUpdate, 1, item, "Item SN-007 atualizado")

	assert.NotNil(t, entry)
	assert.Equal(t, uint(7), *entry.ItemID)
	assert.NotNil(t, entry.ItemSnapshot)
	assert.Contains(t, *entry.ItemSnapshot, "SN-007")
}

func TestAuditRecord_NilItemHasNoSnapshot(t *testing.T) {
	audits := &mockAuditRepo{}
	var entry *models.AuditLog
	audits.mockCreate = func(ctx context.Context, e *models.AuditLog) error {
		entry = e
		return nil
	}
	svc := NewAuditService(audits, nil)

	svc.Record(context.Background(), adminActor(), models.AuditActionCreate, 1, nil, "Categoria criada")

	assert.NotNil(t, entry)
	assert.Nil(t, entry.ItemID)
	assert.Nil(t, entry.ItemSnapshot)
}

func TestAuditList_Scoped(t *testing.T) {
	audits := &mockAuditRepo{}
	var gotScope repository.ScopeFilter
	audits.mockList = func(ctx context.Context, scope repository.ScopeFilter, query *repository.ListQuery) ([]models.AuditLog, int64, error) {
		gotScope = scope
		return nil, 0, nil
	}
	svc := NewAuditService(audits, nil)

	_, _, err := svc.List(context.Background(), tecnicoActor(4), repository.NewListQuery())
	assert.NoError(t, err)
	assert.True(t, gotScope.IsScoped())
	assert.Equal(t, uint(4), gotScope.CampusID)
}
