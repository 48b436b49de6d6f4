package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Sentinel errors raised by repositories. Services translate them into
// the user-facing error taxonomy.
var (
	// ErrStaleWrite means the row changed since it was read
	// (lock_version mismatch on a compare-and-swap update).
	ErrStaleWrite = errors.New("stale write: row was modified concurrently")

	// ErrDuplicateKey means a storage-level unique constraint fired
	// (serial number, taxonomy name per campus, username, campus name).
	ErrDuplicateKey = errors.New("duplicate key")
)

// Repositories holds all repository instances
type Repositories struct {
	Campus   CampusRepository
	User     UserRepository
	Category CategoryRepository
	Sector   SectorRepository
	Item     ItemRepository
	Loan     LoanRepository
	Audit    AuditRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Campus:   NewCampusRepository(db),
		User:     NewUserRepository(db),
		Category: NewCategoryRepository(db),
		Sector:   NewSectorRepository(db),
		Item:     NewItemRepository(db),
		Loan:     NewLoanRepository(db),
		Audit:    NewAuditRepository(db),
	}
}

// isUniqueViolation reports whether err is a postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// translateCreateError maps storage duplicate-key failures onto the
// sentinel so callers do not depend on pgconn.
func translateCreateError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	return err
}

// ListQuery represents common query parameters
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 50,
		Filters: make(map[string]string),
	}
}

// paginate applies page/per_page to a query
func (q *ListQuery) paginate(db *gorm.DB) *gorm.DB {
	if q == nil || q.PerPage <= 0 {
		return db
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	return db.Offset((page - 1) * q.PerPage).Limit(q.PerPage)
}
