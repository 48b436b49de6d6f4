package repository

import (
	"github.com/dfsouza/patrimonio-api/internal/models"
	"gorm.io/gorm"
)

// ScopeFilter is the tenant predicate applied to every scoped query.
// The zero value matches all rows (admin view). It is resolved once
// from the actor and applied at the query boundary only, never as a
// post-filter in application code.
type ScopeFilter struct {
	CampusID uint
	scoped   bool
}

// Unscoped returns the filter matching all campuses
func Unscoped() ScopeFilter {
	return ScopeFilter{}
}

// CampusScoped returns the filter restricted to a single campus.
// CampusScoped(0) is scoped to a campus that cannot exist, so it
// matches no rows; it is NOT the same as Unscoped.
func CampusScoped(campusID uint) ScopeFilter {
	return ScopeFilter{CampusID: campusID, scoped: true}
}

// ResolveScope computes the scoping predicate for an actor. Admins see
// everything; technicians see only their own campus. Pure computation,
// no error conditions: a technician without a campus assignment yields
// a filter that matches nothing (campus id 0 never exists).
func ResolveScope(actor *models.User) ScopeFilter {
	if actor == nil {
		return CampusScoped(0)
	}
	if actor.IsAdmin() {
		return Unscoped()
	}
	if actor.CampusID == nil {
		return CampusScoped(0)
	}
	return CampusScoped(*actor.CampusID)
}

// IsScoped reports whether the filter restricts to one campus
func (f ScopeFilter) IsScoped() bool {
	return f.scoped
}

// Matches reports whether a row with the given campus id is visible
func (f ScopeFilter) Matches(campusID uint) bool {
	return !f.IsScoped() || f.CampusID == campusID
}

// Apply adds the tenant predicate to a gorm query. Tables carrying the
// tenant column name it campus_id uniformly.
func (f ScopeFilter) Apply(db *gorm.DB) *gorm.DB {
	if !f.IsScoped() {
		return db
	}
	return db.Where("campus_id = ?", f.CampusID)
}

// predicate is the gorm scope form of Apply, usable with db.Scopes(...)
func (f ScopeFilter) predicate() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return f.Apply(db)
	}
}
