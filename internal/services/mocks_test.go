package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dfsouza/patrimonio-api/internal/models"
	"github.com/dfsouza/patrimonio-api/internal/repository"
	"github.com/dfsouza/patrimonio-api/pkg/logger"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	logger.Setup("development")
	os.Exit(m.Run())
}

type mockItemRepo struct {
	repository.ItemRepository
	mockList            func(ctx context.Context, scope repository.ScopeFilter, query *repository.ListQuery) ([]models.InventoryItem, int64, error)
	mockFindByID        func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.InventoryItem, error)
	mockCreate          func(ctx context.Context, item *models.InventoryItem) error
	mockUpdate          func(ctx context.Context, item *models.InventoryItem) error
	mockDelete          func(ctx context.Context, id uint) error
	mockCountBySerial   func(ctx context.Context, serial string, excludeID uint) (int64, error)
	mockCountByCategory func(ctx context.Context, categoryID uint) (int64, error)
	mockCountBySector   func(ctx context.Context, sectorID uint) (int64, error)
	mockCountByCampus   func(ctx context.Context, campusID uint) (int64, error)
}

func (m *mockItemRepo) List(ctx context.Context, scope repository.ScopeFilter, query *repository.ListQuery) ([]models.InventoryItem, int64, error) {
	return m.mockList(ctx, scope, query)
}

func (m *mockItemRepo) FindByID(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.InventoryItem, error) {
	return m.mockFindByID(ctx, id, scope)
}

func (m *mockItemRepo) Create(ctx context.Context, item *models.InventoryItem) error {
	return m.mockCreate(ctx, item)
}

func (m *mockItemRepo) Update(ctx context.Context, item *models.InventoryItem) error {
	return m.mockUpdate(ctx, item)
}

func (m *mockItemRepo) Delete(ctx context.Context, id uint) error {
	return m.mockDelete(ctx, id)
}

func (m *mockItemRepo) CountBySerial(ctx context.Context, serial string, excludeID uint) (int64, error) {
	if m.mockCountBySerial != nil {
		return m.mockCountBySerial(ctx, serial, excludeID)
	}
	return 0, nil
}

func (m *mockItemRepo) CountByCategory(ctx context.Context, categoryID uint) (int64, error) {
	if m.mockCountByCategory != nil {
		return m.mockCountByCategory(ctx, categoryID)
	}
	return 0, nil
}

func (m *mockItemRepo) CountBySector(ctx context.Context, sectorID uint) (int64, error) {
	if m.mockCountBySector != nil {
		return m.mockCountBySector(ctx, sectorID)
	}
	return 0, nil
}

func (m *mockItemRepo) CountByCampus(ctx context.Context, campusID uint) (int64, error) {
	if m.mockCountByCampus != nil {
		return m.mockCountByCampus(ctx, campusID)
	}
	return 0, nil
}

type mockCampusRepo struct {
	repository.CampusRepository
	mockList       func(ctx context.Context) ([]models.Campus, error)
	mockFindByID   func(ctx context.Context, id uint) (*models.Campus, error)
	mockFindByName func(ctx context.Context, name string) (*models.Campus, error)
	mockCreate     func(ctx context.Context, campus *models.Campus) error
	mockDelete     func(ctx context.Context, id uint) error
}

func (m *mockCampusRepo) List(ctx context.Context) ([]models.Campus, error) {
	return m.mockList(ctx)
}

func (m *mockCampusRepo) FindByID(ctx context.Context, id uint) (*models.Campus, error) {
	return m.mockFindByID(ctx, id)
}

func (m *mockCampusRepo) FindByName(ctx context.Context, name string) (*models.Campus, error) {
	return m.mockFindByName(ctx, name)
}

func (m *mockCampusRepo) Create(ctx context.Context, campus *models.Campus) error {
	return m.mockCreate(ctx, campus)
}

func (m *mockCampusRepo) Delete(ctx context.Context, id uint) error {
	return m.mockDelete(ctx, id)
}

type mockCategoryRepo struct {
	repository.CategoryRepository
	mockList        func(ctx context.Context, scope repository.ScopeFilter) ([]models.Category, error)
	mockFindByID    func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.Category, error)
	mockFindByName  func(ctx context.Context, name string, campusID uint) (*models.Category, error)
	mockCountByName func(ctx context.Context, name string, campusID uint, excludeID uint) (int64, error)
	mockCreate      func(ctx context.Context, category *models.Category) error
	mockDelete      func(ctx context.Context, id uint) error
}

func (m *mockCategoryRepo) List(ctx context.Context, scope repository.ScopeFilter) ([]models.Category, error) {
	return m.mockList(ctx, scope)
}

func (m *mockCategoryRepo) FindByID(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.Category, error) {
	return m.mockFindByID(ctx, id, scope)
}

func (m *mockCategoryRepo) FindByName(ctx context.Context, name string, campusID uint) (*models.Category, error) {
	return m.mockFindByName(ctx, name, campusID)
}

func (m *mockCategoryRepo) CountByName(ctx context.Context, name string, campusID uint, excludeID uint) (int64, error) {
	if m.mockCountByName != nil {
		return m.mockCountByName(ctx, name, campusID, excludeID)
	}
	return 0, nil
}

func (m *mockCategoryRepo) Create(ctx context.Context, category *models.Category) error {
	return m.mockCreate(ctx, category)
}

func (m *mockCategoryRepo) Delete(ctx context.Context, id uint) error {
	return m.mockDelete(ctx, id)
}

type mockSectorRepo struct {
	repository.SectorRepository
	mockList        func(ctx context.Context, scope repository.ScopeFilter) ([]models.Sector, error)
	mockFindByID    func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.Sector, error)
	mockFindByName  func(ctx context.Context, name string, campusID uint) (*models.Sector, error)
	mockCountByName func(ctx context.Context, name string, campusID uint, excludeID uint) (int64, error)
	mockCreate      func(ctx context.Context, sector *models.Sector) error
	mockDelete      func(ctx context.Context, id uint) error
}

func (m *mockSectorRepo) List(ctx context.Context, scope repository.ScopeFilter) ([]models.Sector, error) {
	return m.mockList(ctx, scope)
}

func (m *mockSectorRepo) FindByID(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.Sector, error) {
	return m.mockFindByID(ctx, id, scope)
}

func (m *mockSectorRepo) FindByName(ctx context.Context, name string, campusID uint) (*models.Sector, error) {
	return m.mockFindByName(ctx, name, campusID)
}

func (m *mockSectorRepo) CountByName(ctx context.Context, name string, campusID uint, excludeID uint) (int64, error) {
	if m.mockCountByName != nil {
		return m.mockCountByName(ctx, name, campusID, excludeID)
	}
	return 0, nil
}

func (m *mockSectorRepo) Create(ctx context.Context, sector *models.Sector) error {
	return m.mockCreate(ctx, sector)
}

func (m *mockSectorRepo) Delete(ctx context.Context, id uint) error {
	return m.mockDelete(ctx, id)
}

type mockUserRepo struct {
	repository.UserRepository
	mockFindByID       func(ctx context.Context, id uint) (*models.User, error)
	mockFindByUsername func(ctx context.Context, username string) (*models.User, error)
	mockList           func(ctx context.Context, scope repository.ScopeFilter, query *repository.ListQuery) ([]models.User, int64, error)
	mockCreate         func(ctx context.Context, user *models.User) error
	mockUpdate         func(ctx context.Context, user *models.User) error
	mockDelete         func(ctx context.Context, id uint) error
	mockCountByCampus  func(ctx context.Context, campusID uint) (int64, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return m.mockFindByID(ctx, id)
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.mockFindByUsername(ctx, username)
}

func (m *mockUserRepo) List(ctx context.Context, scope repository.ScopeFilter, query *repository.ListQuery) ([]models.User, int64, error) {
	return m.mockList(ctx, scope, query)
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	return m.mockCreate(ctx, user)
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	return m.mockUpdate(ctx, user)
}

func (m *mockUserRepo) Delete(ctx context.Context, id uint) error {
	return m.mockDelete(ctx, id)
}

func (m *mockUserRepo) CountByCampus(ctx context.Context, campusID uint) (int64, error) {
	if m.mockCountByCampus != nil {
		return m.mockCountByCampus(ctx, campusID)
	}
	return 0, nil
}

type mockLoanRepo struct {
	repository.LoanRepository
	mockList              func(ctx context.Context, scope repository.ScopeFilter, query *repository.ListQuery) ([]models.Loan, int64, error)
	mockFindByID          func(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.Loan, error)
	mockFindOpenByItem    func(ctx context.Context, itemID uint) (*models.Loan, error)
	mockCreate            func(ctx context.Context, loan *models.Loan) error
	mockCreateWithItem    func(ctx context.Context, loan *models.Loan, item *models.InventoryItem) error
	mockUpdate            func(ctx context.Context, loan *models.Loan) error
	mockCloseWithItem     func(ctx context.Context, loan *models.Loan, item *models.InventoryItem) error
	mockFindOverdue       func(ctx context.Context, scope repository.ScopeFilter, now time.Time) ([]models.Loan, error)
	mockCountOpenByCampus func(ctx context.Context, campusID uint) (int64, error)
}

func (m *mockLoanRepo) List(ctx context.Context, scope repository.ScopeFilter, query *repository.ListQuery) ([]models.Loan, int64, error) {
	return m.mockList(ctx, scope, query)
}

func (m *mockLoanRepo) FindByID(ctx context.Context, id uint, scope repository.ScopeFilter) (*models.Loan, error) {
	return m.mockFindByID(ctx, id, scope)
}

func (m *mockLoanRepo) FindOpenByItem(ctx context.Context, itemID uint) (*models.Loan, error) {
	if m.mockFindOpenByItem != nil {
		return m.mockFindOpenByItem(ctx, itemID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLoanRepo) Create(ctx context.Context, loan *models.Loan) error {
	return m.mockCreate(ctx, loan)
}

func (m *mockLoanRepo) CreateWithItem(ctx context.Context, loan *models.Loan, item *models.InventoryItem) error {
	return m.mockCreateWithItem(ctx, loan, item)
}

func (m *mockLoanRepo) Update(ctx context.Context, loan *models.Loan) error {
	return m.mockUpdate(ctx, loan)
}

func (m *mockLoanRepo) CloseWithItem(ctx context.Context, loan *models.Loan, item *models.InventoryItem) error {
	return m.mockCloseWithItem(ctx, loan, item)
}

func (m *mockLoanRepo) FindOverdue(ctx context.Context, scope repository.ScopeFilter, now time.Time) ([]models.Loan, error) {
	return m.mockFindOverdue(ctx, scope, now)
}

func (m *mockLoanRepo) CountOpenByCampus(ctx context.Context, campusID uint) (int64, error) {
	if m.mockCountOpenByCampus != nil {
		return m.mockCountOpenByCampus(ctx, campusID)
	}
	return 0, nil
}

type mockAuditRepo struct {
	repository.AuditRepository
	mockList       func(ctx context.Context, scope repository.ScopeFilter, query *repository.ListQuery) ([]models.AuditLog, int64, error)
	mockFindByItem func(ctx context.Context, itemID uint, scope repository.ScopeFilter) ([]models.AuditLog, error)
	mockCreate     func(ctx context.Context, entry *models.AuditLog) error
}

func (m *mockAuditRepo) List(ctx context.Context, scope repository.ScopeFilter, query *repository.ListQuery) ([]models.AuditLog, int64, error) {
	return m.mockList(ctx, scope, query)
}

func (m *mockAuditRepo) FindByItem(ctx context.Context, itemID uint, scope repository.ScopeFilter) ([]models.AuditLog, error) {
	return m.mockFindByItem(ctx, itemID, scope)
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, entry)
	}
	return nil
}

// newTestRepos wires the mocks into a Repositories value the service
// constructors accept.
func newTestRepos() (*repository.Repositories, *mockItemRepo, *mockLoanRepo, *mockAuditRepo) {
	items := &mockItemRepo{}
	loans := &mockLoanRepo{}
	audits := &mockAuditRepo{}
	repos := &repository.Repositories{
		Campus:   &mockCampusRepo{},
		User:     &mockUserRepo{},
		Category: &mockCategoryRepo{},
		Sector:   &mockSectorRepo{},
		Item:     items,
		Loan:     loans,
		Audit:    audits,
	}
	return repos, items, loans, audits
}

// actors used across the service tests
func adminActor() *models.User {
	return &models.User{ID: 1, Username: "admin", Role: models.RoleAdmin, Status: models.StatusActive}
}

func tecnicoActor(campusID uint) *models.User {
	return &models.User{ID: 2, Username: "tec", Role: models.RoleTecnico, Status: models.StatusActive, CampusID: &campusID}
}
