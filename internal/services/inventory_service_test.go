package services

import (
	"context"
	"testing"

	"github.com/dfsouza/patrimonio-api/internal/models"
	"github.com/dfsouza/patrimonio-api/internal/repository"
	"github.com/dfsouza/patrimonio-api/internal/statemachine"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func newInventoryService(repos *repository.Repositories) *InventoryService {
	guard := NewConflictGuard(repos)
	audit := NewAuditService(repos.Audit, nil)
	return NewInventoryService(repos, guard, audit)
}

func wireCampusAndTaxonomy(repos *repository.Repositories) {
	repos.Campus.(*mockCampusRepo).mockFindByID = func(ctx context.Context, id uint) (*models.Campus, error) {
		return &models.Campus{ID: id, Name: "Campus Centro"}, nil
	}
	repos.Category.(*mockCategoryRepo).mockFindByID = func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.Category, error) {
		return &models.Category{ID: id, Name: "Informática", CampusID: scope.CampusID}, nil
	}
	repos.Category.(*mockCategoryRepo).mockFindByName = func(ctx context.Context, name string, campusID uint) (*models.Category, error) {
		return &models.Category{ID: 10, Name: name, CampusID: campusID}, nil
	}
	repos.Sector.(*mockSectorRepo).mockFindByID = func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.Sector, error) {
		return &models.Sector{ID: id, Name: "Laboratório", CampusID: scope.CampusID}, nil
	}
	repos.Sector.(*mockSectorRepo).mockFindByName = func(ctx context.Context, name string, campusID uint) (*models.Sector, error) {
		return &models.Sector{ID: 20, Name: name, CampusID: campusID}, nil
	}
}

func TestSave_CreateRejectsCirculationStatus(t *testing.T) {
	repos, _, _, _ := newTestRepos()
	wireCampusAndTaxonomy(repos)
	svc := newInventoryService(repos)

	for _, status := range []string{models.ItemStatusEmprestado, models.ItemStatusEmUso} {
		_, err := svc.Save(context.Background(), adminActor(), &ItemInput{
			CampusID:     1,
			CategoryID:   10,
			SectorID:     20,
			SerialNumber: "SN-001",
			Status:       status,
		})
		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr, "status %s", status)
	}
}

func TestSave_CreateDefaultsToFuncionando(t *testing.T) {
	repos, items, _, _ := newTestRepos()
	wireCampusAndTaxonomy(repos)
	svc := newInventoryService(repos)

	var created *models.InventoryItem
	items.mockCreate = func(ctx context.Context, item *models.InventoryItem) error {
		item.ID = 1
		created = item
		return nil
	}

	item, err := svc.Save(context.Background(), adminActor(), &ItemInput{
		CampusID:     1,
		CategoryID:   10,
		SectorID:     20,
		SerialNumber: "SN-001",
	})
	assert.NoError(t, err)
	assert.Equal(t, models.ItemStatusFuncionando, item.Status)
	assert.Equal(t, created, item)
}

func TestSave_TecnicoForcedIntoOwnCampus(t *testing.T) {
	repos, items, _, _ := newTestRepos()
	wireCampusAndTaxonomy(repos)
	svc := newInventoryService(repos)

	items.mockCreate = func(ctx context.Context, item *models.InventoryItem) error {
		item.ID = 1
		return nil
	}

	// The payload names campus 9; the technician belongs to campus 2
	item, err := svc.Save(context.Background(), tecnicoActor(2), &ItemInput{
		CampusID:     9,
		CategoryID:   10,
		SectorID:     20,
		SerialNumber: "SN-001",
	})
	assert.NoError(t, err)
	assert.Equal(t, uint(2), item.CampusID)
}

func TestSave_TecnicoWithoutCampusRejected(t *testing.T) {
	repos, _, _, _ := newTestRepos()
	wireCampusAndTaxonomy(repos)
	svc := newInventoryService(repos)

	tecnico := &models.User{ID: 2, Role: models.RoleTecnico, Status: models.StatusActive}
	_, err := svc.Save(context.Background(), tecnico, &ItemInput{
		CategoryID:   10,
		SectorID:     20,
		SerialNumber: "SN-001",
	})

	var scopeErr *ScopeResolutionError
	assert.ErrorAs(t, err, &scopeErr)
}

func TestSave_CategoryIDFromOtherCampusRejected(t *testing.T) {
	repos, _, _, _ := newTestRepos()
	wireCampusAndTaxonomy(repos)
	svc := newInventoryService(repos)

	// The scoped lookup misses ids belonging to another campus; a raw
	// id is validated exactly like a name.
	repos.Category.(*mockCategoryRepo).mockFindByID = func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.Category, error) {
		return nil, gorm.ErrRecordNotFound
	}

	_, err := svc.Save(context.Background(), tecnicoActor(2), &ItemInput{
		CategoryID:   99,
		SectorID:     20,
		SerialNumber: "SN-001",
	})
	var refErr *ReferenceNotFoundError
	assert.ErrorAs(t, err, &refErr)
	assert.Equal(t, "categoria", refErr.Kind)
}

func TestSave_SectorIDUnknownRejected(t *testing.T) {
	repos, _, _, _ := newTestRepos()
	wireCampusAndTaxonomy(repos)
	svc := newInventoryService(repos)

	repos.Sector.(*mockSectorRepo).mockFindByID = func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.Sector, error) {
		return nil, gorm.ErrRecordNotFound
	}

	_, err := svc.Save(context.Background(), adminActor(), &ItemInput{
		CampusID:     1,
		CategoryID:   10,
		SectorID:     77,
		SerialNumber: "SN-001",
	})
	var refErr *ReferenceNotFoundError
	assert.ErrorAs(t, err, &refErr)
	assert.Equal(t, "setor", refErr.Kind)
}

func TestSave_UpdateStaleWriteSurfacesTyped(t *testing.T) {
	repos, items, _, _ := newTestRepos()
	wireCampusAndTaxonomy(repos)
	svc := newInventoryService(repos)

	items.mockFindByID = func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.InventoryItem, error) {
		return &models.InventoryItem{
			ID: id, CampusID: 1, CategoryID: 10, SectorID: 20,
			SerialNumber: "SN-001", Status: models.ItemStatusFuncionando, LockVersion: 4,
		}, nil
	}
	items.mockUpdate = func(ctx context.Context, item *models.InventoryItem) error {
		return repository.ErrStaleWrite
	}

	_, err := svc.Save(context.Background(), adminActor(), &ItemInput{
		ID:           1,
		CampusID:     1,
		CategoryID:   10,
		SectorID:     20,
		SerialNumber: "SN-001",
		LockVersion:  3, // read before a concurrent save bumped it
	})

	var staleErr *StaleWriteError
	assert.ErrorAs(t, err, &staleErr)
}

func TestSave_UpdateOutOfScopeIsNotFound(t *testing.T) {
	repos, items, _, _ := newTestRepos()
	wireCampusAndTaxonomy(repos)
	svc := newInventoryService(repos)

	items.mockFindByID = func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.InventoryItem, error) {
		// Scoped lookup misses rows of other campuses
		return nil, gorm.ErrRecordNotFound
	}

	_, err := svc.Save(context.Background(), tecnicoActor(2), &ItemInput{
		ID:           7,
		CategoryID:   10,
		SectorID:     20,
		SerialNumber: "SN-001",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChangeStatus_SideChannelTargetRejected(t *testing.T) {
	repos, items, _, _ := newTestRepos()
	svc := newInventoryService(repos)

	items.mockFindByID = func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.InventoryItem, error) {
		return &models.InventoryItem{ID: id, Status: models.ItemStatusFuncionando}, nil
	}

	_, err := svc.ChangeStatus(context.Background(), adminActor(), 1, models.ItemStatusEmprestado)
	var transitionErr *statemachine.TransitionError
	assert.ErrorAs(t, err, &transitionErr)
}

func TestRegisterUse_FixedItemRejected(t *testing.T) {
	repos, items, _, _ := newTestRepos()
	svc := newInventoryService(repos)

	items.mockFindByID = func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.InventoryItem, error) {
		return &models.InventoryItem{ID: id, Status: models.ItemStatusFuncionando, IsFixed: true}, nil
	}

	_, err := svc.RegisterUse(context.Background(), adminActor(), 1, "João")
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Contains(t, err.Error(), "fixo")
}

func TestRegisterUse_RoundTrip(t *testing.T) {
	repos, items, _, _ := newTestRepos()
	svc := newInventoryService(repos)

	stored := &models.InventoryItem{ID: 1, CampusID: 1, SerialNumber: "SN-001", Status: models.ItemStatusFuncionando}
	items.mockFindByID = func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.InventoryItem, error) {
		copy := *stored
		return &copy, nil
	}
	items.mockUpdate = func(ctx context.Context, item *models.InventoryItem) error {
		stored = item
		return nil
	}

	item, err := svc.RegisterUse(context.Background(), adminActor(), 1, "João")
	assert.NoError(t, err)
	assert.Equal(t, models.ItemStatusEmUso, item.Status)

	item, err = svc.ReturnFromUse(context.Background(), adminActor(), 1)
	assert.NoError(t, err)
	assert.Equal(t, models.ItemStatusFuncionando, item.Status)
}

func TestDelete_SoftDiscardChangesStatus(t *testing.T) {
	repos, items, _, _ := newTestRepos()
	svc := newInventoryService(repos)

	stored := &models.InventoryItem{ID: 1, CampusID: 1, SerialNumber: "SN-001", Status: models.ItemStatusDefeito}
	items.mockFindByID = func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.InventoryItem, error) {
		copy := *stored
		return &copy, nil
	}
	var updated *models.InventoryItem
	items.mockUpdate = func(ctx context.Context, item *models.InventoryItem) error {
		updated = item
		return nil
	}

	err := svc.Delete(context.Background(), adminActor(), 1, false)
	assert.NoError(t, err)
	assert.Equal(t, models.ItemStatusDescarte, updated.Status)
}

func TestDelete_PermanentBlockedWhileInCirculation(t *testing.T) {
	repos, items, _, _ := newTestRepos()
	svc := newInventoryService(repos)

	items.mockFindByID = func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.InventoryItem, error) {
		return &models.InventoryItem{ID: id, Status: models.ItemStatusEmprestado}, nil
	}

	err := svc.Delete(context.Background(), adminActor(), 1, true)
	var dependencyErr *DependencyExistsError
	assert.ErrorAs(t, err, &dependencyErr)
}

func TestDelete_PermanentBlockedByOpenLoanRow(t *testing.T) {
	repos, items, loans, _ := newTestRepos()
	svc := newInventoryService(repos)

	// The status column says funcionando, but an open loan row exists:
	// the loan table wins and the delete is refused.
	items.mockFindByID = func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.InventoryItem, error) {
		return &models.InventoryItem{ID: id, SerialNumber: "SN-001", Status: models.ItemStatusFuncionando}, nil
	}
	loans.mockFindOpenByItem = func(ctx context.Context, itemID uint) (*models.Loan, error) {
		return &models.Loan{ID: 50, ItemID: &itemID, Status: models.LoanStatusLoaned}, nil
	}
	deleted := false
	items.mockDelete = func(ctx context.Context, id uint) error {
		deleted = true
		return nil
	}

	err := svc.Delete(context.Background(), adminActor(), 1, true)
	var dependencyErr *DependencyExistsError
	assert.ErrorAs(t, err, &dependencyErr)
	assert.False(t, deleted)
}

func TestDelete_PermanentWritesSnapshotAudit(t *testing.T) {
	repos, items, _, audits := newTestRepos()
	svc := newInventoryService(repos)

	items.mockFindByID = func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.InventoryItem, error) {
		return &models.InventoryItem{ID: id, CampusID: 1, SerialNumber: "SN-001", Status: models.ItemStatusDescarte}, nil
	}
	items.mockDelete = func(ctx context.Context, id uint) error { return nil }

	var entry *models.AuditLog
	audits.mockCreate = func(ctx context.Context, e *models.AuditLog) error {
		entry = e
		return nil
	}

	err := svc.Delete(context.Background(), adminActor(), 1, true)
	assert.NoError(t, err)
	assert.NotNil(t, entry)
	assert.Equal(t, models.AuditActionDelete, entry.Action)
	// History must survive the row: the snapshot carries the item data
	assert.NotNil(t, entry.ItemSnapshot)
	assert.Contains(t, *entry.ItemSnapshot, "SN-001")
}
