package models

import (
	"time"
)

// Category classifies inventory items (Desktop, Notebook, Projetor...).
// Names are unique per campus, not globally: two campuses may each have
// their own "Desktop" row.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;uniqueIndex:idx_categories_name_campus,expression:lower(name)" json:"name"`
	CampusID  uint      `gorm:"not null;index;uniqueIndex:idx_categories_name_campus" json:"campus_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Campus *Campus `gorm:"foreignKey:CampusID" json:"campus,omitempty"`
}

// TableName specifies the table name for Category
func (Category) TableName() string {
	return "categories"
}

// Sector locates inventory items inside a campus (Laboratório 2,
// Secretaria, Biblioteca...). Same per-campus uniqueness as Category.
type Sector struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;uniqueIndex:idx_sectors_name_campus,expression:lower(name)" json:"name"`
	CampusID  uint      `gorm:"not null;index;uniqueIndex:idx_sectors_name_campus" json:"campus_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Campus *Campus `gorm:"foreignKey:CampusID" json:"campus,omitempty"`
}

// TableName specifies the table name for Sector
func (Sector) TableName() string {
	return "sectors"
}

// TaxonomyResponse is the JSON response format shared by categories and sectors
type TaxonomyResponse struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	CampusID   uint      `json:"campus_id"`
	CampusName string    `json:"campus_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToResponse converts Category to TaxonomyResponse
func (c *Category) ToResponse() TaxonomyResponse {
	resp := TaxonomyResponse{ID: c.ID, Name: c.Name, CampusID: c.CampusID, CreatedAt: c.CreatedAt}
	if c.Campus != nil {
		resp.CampusName = c.Campus.Name
	}
	return resp
}

// ToResponse converts Sector to TaxonomyResponse
func (s *Sector) ToResponse() TaxonomyResponse {
	resp := TaxonomyResponse{ID: s.ID, Name: s.Name, CampusID: s.CampusID, CreatedAt: s.CreatedAt}
	if s.Campus != nil {
		resp.CampusName = s.Campus.Name
	}
	return resp
}
