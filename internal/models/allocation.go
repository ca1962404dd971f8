package models

import (
	"time"

	"fundledger/internal/money"
)

// Allocation earmarks system funds for a project.
type Allocation struct {
	Record
	ProjectID   string       `gorm:"type:uuid;not null;index" json:"project_id"`
	Amount      money.Amount `gorm:"type:bigint;not null" json:"amount"`
	Description string       `json:"description"`
	ProofImage  string       `json:"proof_image,omitempty"`
	AllocatedBy string       `gorm:"type:uuid;not null" json:"allocated_by"`
	Status      Status       `gorm:"not null;index" json:"status"`
	AllocatedAt time.Time    `gorm:"not null" json:"allocated_at"`
	ApprovedBy  *string      `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedAt  *time.Time   `json:"approved_at,omitempty"`

	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}
