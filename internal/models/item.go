package models

import (
	"time"
)

// Item status constants. emprestado and emuso are side-channel states:
// they can only be entered and left through the loan/use operations,
// never by a direct status edit.
const (
	ItemStatusFuncionando = "funcionando"
	ItemStatusDefeito     = "defeito"
	ItemStatusManutencao  = "manutencao"
	ItemStatusBackup      = "backup"
	ItemStatusDescarte    = "descarte"
	ItemStatusEmprestado  = "emprestado"
	ItemStatusEmUso       = "emuso"
)

// FreeStatuses are the states reachable by direct status change.
var FreeStatuses = []string{
	ItemStatusFuncionando,
	ItemStatusDefeito,
	ItemStatusManutencao,
	ItemStatusBackup,
	ItemStatusDescarte,
}

// IsFreeStatus reports whether s can be set by a direct status edit.
func IsFreeStatus(s string) bool {
	for _, fs := range FreeStatuses {
		if s == fs {
			return true
		}
	}
	return false
}

// InventoryItem is the core tracked entity. Serial numbers are unique
// across all campuses; the unique index backs the guard's pre-check so
// two concurrent creators cannot both win.
type InventoryItem struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CampusID        uint      `gorm:"not null;index" json:"campus_id"`
	CategoryID      uint      `gorm:"not null;index" json:"category_id"`
	SectorID        uint      `gorm:"not null;index" json:"sector_id"`
	Room            string    `json:"room"`
	Brand           string    `json:"brand"`
	SerialNumber    string    `gorm:"uniqueIndex:idx_items_serial;not null" json:"serial_number"`
	PatrimonyTag    string    `json:"patrimony_tag"`
	Status          string    `gorm:"default:funcionando;index" json:"status"`
	ResponsibleID   *uint     `json:"responsible_id"`
	ResponsibleName string    `json:"responsible_name"`
	Observation     string    `gorm:"type:text" json:"observation"`
	IsFixed         bool      `gorm:"default:false" json:"is_fixed"`
	LockVersion     int       `gorm:"default:0" json:"lock_version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Associations
	Campus      *Campus   `gorm:"foreignKey:CampusID" json:"campus,omitempty"`
	Category    *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Sector      *Sector   `gorm:"foreignKey:SectorID" json:"sector,omitempty"`
	Responsible *User     `gorm:"foreignKey:ResponsibleID" json:"responsible,omitempty"`
}

// TableName specifies the table name for InventoryItem
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// InCirculation returns true while the item is loaned out or in local use.
// Such items cannot be status-edited or permanently deleted.
func (i *InventoryItem) InCirculation() bool {
	return i.Status == ItemStatusEmprestado || i.Status == ItemStatusEmUso
}

// MayLoan returns true if the item can be handed out on loan
func (i *InventoryItem) MayLoan() bool {
	if i.IsFixed {
		return false
	}
	return i.Status == ItemStatusFuncionando || i.Status == ItemStatusBackup
}

// MayUse returns true if the item can be registered for local use
func (i *InventoryItem) MayUse() bool {
	return i.MayLoan()
}

// MayDeletePermanently returns true if the row may be removed from storage
func (i *InventoryItem) MayDeletePermanently() bool {
	return !i.InCirculation()
}

// ItemResponse is the denormalized, display-ready JSON format for items
type ItemResponse struct {
	ID              uint      `json:"id"`
	CampusID        uint      `json:"campus_id"`
	CampusName      string    `json:"campus_name"`
	CategoryID      uint      `json:"category_id"`
	CategoryName    string    `json:"category_name"`
	SectorID        uint      `json:"sector_id"`
	SectorName      string    `json:"sector_name"`
	Room            string    `json:"room"`
	Brand           string    `json:"brand"`
	SerialNumber    string    `json:"serial_number"`
	PatrimonyTag    string    `json:"patrimony_tag"`
	Status          string    `json:"status"`
	ResponsibleName string    `json:"responsible_name"`
	Observation     string    `json:"observation"`
	IsFixed         bool      `json:"is_fixed"`
	LockVersion     int       `json:"lock_version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ToResponse converts InventoryItem to ItemResponse
func (i *InventoryItem) ToResponse() ItemResponse {
	resp := ItemResponse{
		ID:              i.ID,
		CampusID:        i.CampusID,
		CategoryID:      i.CategoryID,
		SectorID:        i.SectorID,
		Room:            i.Room,
		Brand:           i.Brand,
		SerialNumber:    i.SerialNumber,
		PatrimonyTag:    i.PatrimonyTag,
		Status:          i.Status,
		ResponsibleName: i.ResponsibleName,
		Observation:     i.Observation,
		IsFixed:         i.IsFixed,
		LockVersion:     i.LockVersion,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
	if i.Campus != nil {
		resp.CampusName = i.Campus.Name
	}
	if i.Category != nil {
		resp.CategoryName = i.Category.Name
	}
	if i.Sector != nil {
		resp.SectorName = i.Sector.Name
	}
	if i.Responsible != nil && resp.ResponsibleName == "" {
		resp.ResponsibleName = i.Responsible.FullName
	}
	return resp
}
