package models

import (
	"time"

	"fundledger/internal/uuid"

	"gorm.io/gorm"
)

// Base contains common columns for soft-deletable tables
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}

// Record contains common columns for ledger tables. Ledger rows are
// hard-deleted; balances are derived, so nothing needs a tombstone.
type Record struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (r *Record) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New()
	}
	return nil
}

// All lists every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Project{},
		&ProjectUser{},
		&Finance{},
		&Allocation{},
		&Expense{},
		&ProjectBalance{},
		&Notification{},
		&AuditLog{},
		&LedgerLock{},
	}
}
