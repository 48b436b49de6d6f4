package models

import (
	"time"
)

// Campus is the tenant boundary. Every item, loan and taxonomy entry
// belongs to exactly one campus.
type Campus struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Campus
func (Campus) TableName() string {
	return "campuses"
}

// AdminCampusName is the bucket campus that receives taxonomy entries
// created by admins, who are not bound to any single campus.
const AdminCampusName = "Administração"

// CampusRef is the canonical campus reference resolved once at the
// boundary (actor construction). Downstream code never re-derives a
// campus from a bare name string.
type CampusRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func (c *Campus) Ref() CampusRef {
	return CampusRef{ID: c.ID, Name: c.Name}
}
