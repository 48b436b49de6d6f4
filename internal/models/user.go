package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an actor in the system: a global admin or a
// campus-bound technician.
type User struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Username          string    `gorm:"uniqueIndex;not null" json:"username"`
	FullName          string    `json:"full_name"`
	EncryptedPassword string    `gorm:"column:encrypted_password;not null" json:"-"`
	Role              string    `gorm:"default:tecnico" json:"role"`
	Status            string    `gorm:"default:active" json:"status"`
	CampusID          *uint     `gorm:"index" json:"campus_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// Associations
	Campus *Campus `gorm:"foreignKey:CampusID" json:"campus,omitempty"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// BeforeCreate hook for setting defaults
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleTecnico
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	return nil
}

// IsAdmin returns true if the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsTecnico returns true if the user is a campus-bound technician
func (u *User) IsTecnico() bool {
	return u.Role == RoleTecnico
}

// IsActive returns true if the user status is active
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// CampusRef returns the user's campus reference. Admins have none.
func (u *User) CampusRef() *CampusRef {
	if u.CampusID == nil {
		return nil
	}
	ref := CampusRef{ID: *u.CampusID}
	if u.Campus != nil {
		ref.Name = u.Campus.Name
	}
	return &ref
}

// Role constants
const (
	RoleAdmin   = "admin"
	RoleTecnico = "tecnico"
)

// Status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// UserResponse is the JSON response format for users
type UserResponse struct {
	ID         uint      `json:"id"`
	Username   string    `json:"username"`
	FullName   string    `json:"full_name"`
	Role       string    `json:"role"`
	Status     string    `json:"status"`
	CampusID   *uint     `json:"campus_id"`
	CampusName string    `json:"campus_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		Role:      u.Role,
		Status:    u.Status,
		CampusID:  u.CampusID,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if ref := u.CampusRef(); ref != nil {
		resp.CampusName = ref.Name
	}
	return resp
}
