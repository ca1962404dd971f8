package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/services"
)

const defaultSearchLimit = 10

// SearchHandler handles cross-record search
type SearchHandler struct {
	searchService services.SearchServicer
	userService   services.UserServicer
}

// NewSearchHandler creates a new SearchHandler
func NewSearchHandler(searchService services.SearchServicer, userService services.UserServicer) *SearchHandler {
	return &SearchHandler{searchService: searchService, userService: userService}
}

// SearchQuery holds the search query parameters
type SearchQuery struct {
	Q     string `form:"q" binding:"required,min=2,max=100"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

// Search handles searching projects, deposits, allocations and expenses
// @Summary     Search
// @Description Search project codes and names and record descriptions. Non-admins only see their own projects and expenses.
// @Tags        search
// @Produce     json
// @Security    BearerAuth
// @Param       q query string true "Search text"
// @Param       limit query int false "Matches per record type" default(10)
// @Success     200 {object} services.SearchResults "Matches"
// @Failure     400 {object} ErrorResponse "Invalid query"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /search [get]
func (h *SearchHandler) Search(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if q.Limit == 0 {
		q.Limit = defaultSearchLimit
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	results, err := h.searchService.Search(strings.TrimSpace(q.Q), user, q.Limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, results)
}
