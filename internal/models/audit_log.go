package models

// AuditLog records who changed which ledger or project record.
type AuditLog struct {
	Record
	UserID       string `gorm:"type:uuid;index" json:"user_id"`
	Action       string `gorm:"not null;index" json:"action"`
	ResourceType string `gorm:"not null" json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	IPAddress    string `json:"ip_address"`
	Changes      string `json:"changes,omitempty"`
}
