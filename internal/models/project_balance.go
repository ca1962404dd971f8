package models

import (
	"time"

	"fundledger/internal/money"
)

// ProjectBalance is the denormalized balance cache for a project. The ledger
// aggregates are authoritative; this row is maintained in the same
// transaction as every ledger write and can be rebuilt from them.
type ProjectBalance struct {
	ProjectID          string       `gorm:"type:uuid;primaryKey" json:"project_id"`
	UnallocatedBalance money.Amount `gorm:"type:bigint;not null;default:0" json:"unallocated_balance"`
	AllocatedBalance   money.Amount `gorm:"type:bigint;not null;default:0" json:"allocated_balance"`
	TotalSpent         money.Amount `gorm:"type:bigint;not null;default:0" json:"total_spent"`
	UpdatedAt          time.Time    `json:"updated_at"`
}
