package models

import "time"

// ProjectUser assigns a user to a project. A user may spend from a project's
// allocated balance only while assigned.
type ProjectUser struct {
	Record
	ProjectID  string    `gorm:"type:uuid;not null;uniqueIndex:uq_project_users_project_user" json:"project_id"`
	UserID     string    `gorm:"type:uuid;not null;uniqueIndex:uq_project_users_project_user;index" json:"user_id"`
	AssignedBy string    `gorm:"type:uuid" json:"assigned_by"`
	AssignedAt time.Time `gorm:"not null" json:"assigned_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
