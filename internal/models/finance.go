package models

import (
	"time"

	"fundledger/internal/money"
)

// Finance is a deposit into the system-wide fund pool.
type Finance struct {
	Record
	Amount      money.Amount `gorm:"type:bigint;not null" json:"amount"`
	Description string       `json:"description"`
	DepositedBy *string      `gorm:"type:uuid" json:"deposited_by,omitempty"`
	Status      Status       `gorm:"not null;index" json:"status"`
	DepositedAt time.Time    `gorm:"not null" json:"deposited_at"`
	ApprovedBy  *string      `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedAt  *time.Time   `json:"approved_at,omitempty"`
}
