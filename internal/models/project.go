package models

import (
	"time"
)

// ProjectStatus represents where a project is in its lifecycle
type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusCancelled ProjectStatus = "cancelled"
	ProjectStatusClosed    ProjectStatus = "closed"
)

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusActive, ProjectStatusCompleted,
		ProjectStatusCancelled, ProjectStatusClosed:
		return true
	}
	return false
}

// Project is a destination for allocated funds.
type Project struct {
	Base
	ProjectCode  string        `gorm:"uniqueIndex;not null" json:"project_code"`
	Name         string        `gorm:"not null" json:"name"`
	Description  string        `json:"description"`
	Status       ProjectStatus `gorm:"not null;index" json:"status"`
	ExpenseTypes []string      `gorm:"serializer:json" json:"expense_types"`
	StartDate    *time.Time    `json:"start_date,omitempty"`
	EndDate      *time.Time    `json:"end_date,omitempty"`
	CreatedBy    string        `gorm:"type:uuid" json:"created_by"`

	Members []ProjectUser `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
}

// AcceptsAllocations reports whether new funds may be allocated.
func (p *Project) AcceptsAllocations() bool {
	return p.Status != ProjectStatusClosed && p.Status != ProjectStatusCancelled
}

// AcceptsExpenses reports whether new expenses may be submitted.
func (p *Project) AcceptsExpenses() bool {
	return p.AcceptsAllocations() && p.Status != ProjectStatusCompleted
}

// HasExpenseType reports whether category is allowed. A project without
// configured expense types accepts any category.
func (p *Project) HasExpenseType(category string) bool {
	if len(p.ExpenseTypes) == 0 || category == "" {
		return true
	}
	for _, t := range p.ExpenseTypes {
		if t == category {
			return true
		}
	}
	return false
}
