package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Loan status constants
const (
	LoanStatusLoaned   = "loaned"
	LoanStatusReturned = "returned"
)

// Loan is a time-bounded assignment of one item to an external
// borrower. Serial and category are copied from the item at loan time
// so the record stays legible after the item is deleted.
type Loan struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Ticket           string     `gorm:"uniqueIndex;not null" json:"ticket"`
	ItemID           *uint      `gorm:"index" json:"item_id"`
	ItemSerial       string     `gorm:"not null" json:"item_serial"`
	ItemCategory     string     `json:"item_category"`
	BorrowerName     string     `gorm:"not null" json:"borrower_name"`
	BorrowerContact  string     `json:"borrower_contact"`
	LoanedAt         time.Time  `json:"loaned_at"`
	ExpectedReturnAt *time.Time `json:"expected_return_at"`
	ReturnedAt       *time.Time `json:"returned_at"`
	Status           string     `gorm:"default:loaned;index" json:"status"`
	CampusID         uint       `gorm:"not null;index" json:"campus_id"`
	LoanerUserID     uint       `gorm:"not null" json:"loaner_user_id"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Associations
	Item   *InventoryItem `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Campus *Campus        `gorm:"foreignKey:CampusID" json:"campus,omitempty"`
	Loaner *User          `gorm:"foreignKey:LoanerUserID" json:"loaner,omitempty"`
}

// TableName specifies the table name for Loan
func (Loan) TableName() string {
	return "loans"
}

// BeforeCreate assigns the loan ticket
func (l *Loan) BeforeCreate(tx *gorm.DB) error {
	if l.Ticket == "" {
		l.Ticket = uuid.NewString()
	}
	if l.Status == "" {
		l.Status = LoanStatusLoaned
	}
	if l.LoanedAt.IsZero() {
		l.LoanedAt = time.Now()
	}
	return nil
}

// IsReturned returns true once the loan has been closed
func (l *Loan) IsReturned() bool {
	return l.Status == LoanStatusReturned
}

// IsOverdue returns true for open loans past their expected return date
func (l *Loan) IsOverdue(now time.Time) bool {
	if l.Status != LoanStatusLoaned || l.ExpectedReturnAt == nil {
		return false
	}
	return now.After(*l.ExpectedReturnAt)
}

// LoanResponse is the JSON response format for loans
type LoanResponse struct {
	ID               uint       `json:"id"`
	Ticket           string     `json:"ticket"`
	ItemID           *uint      `json:"item_id"`
	ItemSerial       string     `json:"item_serial"`
	ItemCategory     string     `json:"item_category"`
	BorrowerName     string     `json:"borrower_name"`
	BorrowerContact  string     `json:"borrower_contact"`
	LoanedAt         time.Time  `json:"loaned_at"`
	ExpectedReturnAt *time.Time `json:"expected_return_at"`
	ReturnedAt       *time.Time `json:"returned_at"`
	Status           string     `json:"status"`
	CampusID         uint       `json:"campus_id"`
	CampusName       string     `json:"campus_name"`
	LoanerName       string     `json:"loaner_name"`
}

// ToResponse converts Loan to LoanResponse
func (l *Loan) ToResponse() LoanResponse {
	resp := LoanResponse{
		ID:               l.ID,
		Ticket:           l.Ticket,
		ItemID:           l.ItemID,
		ItemSerial:       l.ItemSerial,
		ItemCategory:     l.ItemCategory,
		BorrowerName:     l.BorrowerName,
		BorrowerContact:  l.BorrowerContact,
		LoanedAt:         l.LoanedAt,
		ExpectedReturnAt: l.ExpectedReturnAt,
		ReturnedAt:       l.ReturnedAt,
		Status:           l.Status,
		CampusID:         l.CampusID,
	}
	if l.Campus != nil {
		resp.CampusName = l.Campus.Name
	}
	if l.Loaner != nil {
		resp.LoanerName = l.Loaner.FullName
	}
	return resp
}
