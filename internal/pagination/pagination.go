package pagination

import (
	"math"

	"gorm.io/gorm"
)

// PageRequest holds pagination parameters parsed from query strings.
type PageRequest struct {
	Page    int `form:"page" binding:"omitempty,min=1"`
	PerPage int `form:"per_page" binding:"omitempty,min=1,max=100"`
}

// Defaults fills in default values when page or per_page are not provided.
func (p *PageRequest) Defaults() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = 20
	}
}

// Offset returns the SQL OFFSET for the current page.
func (p *PageRequest) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Meta describes where a page sits in the full result set.
type Meta struct {
	CurrentPage     int   `json:"current_page"`
	PerPage         int   `json:"per_page"`
	Total           int64 `json:"total"`
	TotalPages      int   `json:"total_pages"`
	HasNextPage     bool  `json:"has_next_page"`
	HasPreviousPage bool  `json:"has_previous_page"`
}

// PageResponse wraps a paginated list of items with metadata.
type PageResponse[T any] struct {
	Success    bool `json:"success"`
	Data       []T  `json:"data"`
	Pagination Meta `json:"pagination"`
}

// NewPageResponse creates a PageResponse from the given data and total count.
func NewPageResponse[T any](data []T, page, perPage int, total int64) PageResponse[T] {
	totalPages := 0
	if perPage > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(perPage)))
	}
	if data == nil {
		data = []T{}
	}
	return PageResponse[T]{
		Success: true,
		Data:    data,
		Pagination: Meta{
			CurrentPage:     page,
			PerPage:         perPage,
			Total:           total,
			TotalPages:      totalPages,
			HasNextPage:     page < totalPages,
			HasPreviousPage: page > 1,
		},
	}
}

// Paginate returns a GORM scope that applies OFFSET and LIMIT for the given page request.
func Paginate(req PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(req.Offset()).Limit(req.PerPage)
	}
}
