package models

import "time"

// SystemLedgerLock names the row locked by every write that checks the
// system-wide available balance.
const SystemLedgerLock = "system"

// LedgerLock is a named row used purely as a transaction-scoped mutex
// (SELECT ... FOR UPDATE).
type LedgerLock struct {
	Name      string    `gorm:"primaryKey" json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}
