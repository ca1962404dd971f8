package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	govalidator "github.com/go-playground/validator/v10"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/filestore"
	"fundledger/internal/middleware"
	"fundledger/internal/models"
	"fundledger/internal/money"
	"fundledger/internal/uuid"
)

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	v, exists := c.Get(middleware.ContextUserID)
	if !exists {
		return "", apperrors.ErrUnauthorized
	}
	id, ok := v.(string)
	if !ok || id == "" {
		return "", apperrors.ErrUnauthorized
	}
	return id, nil
}

// isAdmin reports whether the caller authenticated with the admin role.
func isAdmin(c *gin.Context) bool {
	role, _ := c.Get(middleware.ContextRole)
	return role == models.RoleAdmin
}

// parsePathID reads a UUID path parameter.
// Returns ErrInvalidInput if the parameter is not a valid UUID.
func parsePathID(c *gin.Context, param string) (string, error) {
	id := c.Param(param)
	if !uuid.IsValid(id) {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// respondWithError writes the failure envelope for err.
func respondWithError(c *gin.Context, err error) {
	middleware.WriteError(c, err)
}

// respondOK writes the success envelope around data.
func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// bindError maps a binding failure to an AppError. Amount and status problems
// keep their own codes.
func bindError(err error) error {
	if errors.Is(err, money.ErrInvalidAmount) {
		return apperrors.ErrInvalidAmount
	}
	var verrs govalidator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			switch fe.Tag() {
			case "positive_amount":
				return apperrors.ErrInvalidAmount
			case "record_status":
				return apperrors.ErrInvalidStatus
			}
		}
	}
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

// parseFlexibleTime accepts RFC3339 timestamps and plain YYYY-MM-DD dates.
func parseFlexibleTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

// optionalTime parses v when it is set.
func optionalTime(v, field string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := parseFlexibleTime(v)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+field+" format, use RFC3339 or YYYY-MM-DD")
	}
	return &t, nil
}

// parseDateRange reads the from_date and to_date query parameters.
func parseDateRange(c *gin.Context) (from, to *time.Time, err error) {
	if from, err = optionalTime(c.Query("from_date"), "from_date"); err != nil {
		return nil, nil, err
	}
	if to, err = optionalTime(c.Query("to_date"), "to_date"); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

// parseStatusQuery reads the optional status query parameter.
func parseStatusQuery(c *gin.Context) (*models.Status, error) {
	v := c.Query("status")
	if v == "" {
		return nil, nil
	}
	status := models.Status(v)
	if !status.Valid() {
		return nil, apperrors.ErrInvalidStatus
	}
	return &status, nil
}

// formUpload opens the multipart file in field. A request without the file,
// or one that is not multipart at all, yields a nil upload.
func formUpload(c *gin.Context, field string) (*filestore.Upload, func(), error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	upload, closeFn, err := filestore.FromFileHeader(fh)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrUploadFailed, err)
	}
	return upload, func() { _ = closeFn() }, nil
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Success bool        `json:"success" example:"false"`
	Message string      `json:"message"`
	Error   ErrorDetail `json:"error"`
}

// SuccessResponse represents the success envelope.
type SuccessResponse struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data"`
}
