package models

import (
	"encoding/json"
	"time"
)

// Audit action constants
const (
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
	AuditActionLoan   = "loan"
	AuditActionReturn = "return"
)

// AuditLog is an append-only record of every state-changing action.
// ItemSnapshot holds a JSON copy of the affected item taken at write
// time, so history stays readable after the item row is deleted.
type AuditLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Action       string    `gorm:"size:20;not null" json:"action"`
	UserName     string    `gorm:"not null" json:"user_name"`
	CampusID     uint      `gorm:"not null;index" json:"campus_id"`
	ItemID       *uint     `gorm:"index" json:"item_id"`
	ItemSnapshot *string   `gorm:"type:text" json:"item_snapshot"`
	Details      string    `gorm:"type:text" json:"details"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`

	// Associations
	Campus *Campus `gorm:"foreignKey:CampusID" json:"campus,omitempty"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}

// SnapshotItem serializes an item into the snapshot column format.
// A nil item (e.g. after a permanent delete with no surviving copy)
// yields a nil snapshot.
func SnapshotItem(item *InventoryItem) (*string, error) {
	if item == nil {
		return nil, nil
	}
	raw, err := json.Marshal(item.ToResponse())
	if err != nil {
		return nil, err
	}
	s := string(raw)
	return &s, nil
}

// AuditLogResponse is the JSON response format for audit entries
type AuditLogResponse struct {
	ID           uint            `json:"id"`
	Action       string          `json:"action"`
	UserName     string          `json:"user_name"`
	CampusID     uint            `json:"campus_id"`
	CampusName   string          `json:"campus_name"`
	ItemID       *uint           `json:"item_id"`
	ItemSnapshot json.RawMessage `json:"item_snapshot"`
	Details      string          `json:"details"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ToResponse converts AuditLog to AuditLogResponse
func (a *AuditLog) ToResponse() AuditLogResponse {
	resp := AuditLogResponse{
		ID:        a.ID,
		Action:    a.Action,
		UserName:  a.UserName,
		CampusID:  a.CampusID,
		ItemID:    a.ItemID,
		Details:   a.Details,
		CreatedAt: a.CreatedAt,
	}
	if a.Campus != nil {
		resp.CampusName = a.Campus.Name
	}
	if a.ItemSnapshot != nil {
		resp.ItemSnapshot = json.RawMessage(*a.ItemSnapshot)
	}
	return resp
}
