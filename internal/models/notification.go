package models

import "time"

// Notification types emitted by the ledger.
const (
	NotificationExpenseSubmitted = "expense_submitted"
	NotificationExpenseApproved  = "expense_approved"
	NotificationExpenseRejected  = "expense_rejected"
	NotificationAllocationMade   = "allocation_created"
	NotificationProjectAssigned  = "project_assigned"
	NotificationProjectCompleted = "project_completed"
)

// Notification is an in-app message for one user.
type Notification struct {
	Record
	UserID      string     `gorm:"type:uuid;not null;index" json:"user_id"`
	Type        string     `gorm:"not null" json:"type"`
	Title       string     `gorm:"not null" json:"title"`
	Message     string     `json:"message"`
	RelatedType string     `json:"related_type,omitempty"`
	RelatedID   string     `json:"related_id,omitempty"`
	IsRead      bool       `gorm:"not null;default:false" json:"is_read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
}
