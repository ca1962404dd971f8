package models

import (
	"time"

	"fundledger/internal/money"
)

// Expense is a spend request against a project's allocated balance.
type Expense struct {
	Record
	ProjectID    string       `gorm:"type:uuid;not null;index" json:"project_id"`
	UserID       string       `gorm:"type:uuid;not null;index" json:"user_id"`
	Amount       money.Amount `gorm:"type:bigint;not null" json:"amount"`
	Description  string       `gorm:"not null" json:"description"`
	Category     string       `json:"category,omitempty"`
	ReceiptImage string       `json:"receipt_image,omitempty"`
	Status       Status       `gorm:"not null;index" json:"status"`
	ApprovedBy   *string      `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedAt   *time.Time   `json:"approved_at,omitempty"`
	SpentAt      time.Time    `gorm:"not null" json:"spent_at"`

	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
