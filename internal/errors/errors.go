// Package errors provides the structured error type shared by services and
// handlers. Services return AppError sentinels (optionally wrapped or with a
// tailored message) so that handlers can render a consistent envelope without
// leaking internal details.
package errors

import (
	stderrors "errors"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches any AppError carrying the same code, so a sentinel compares equal
// to its Wrap/WithMessage derivatives.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrInvalidToken       = &AppError{Code: "INVALID_TOKEN", Message: "Invalid or expired token", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked", StatusCode: http.StatusLocked}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Ledger errors.
var (
	ErrInvalidAmount             = &AppError{Code: "INVALID_AMOUNT", Message: "Amount must be a number greater than zero", StatusCode: http.StatusBadRequest}
	ErrInvalidStatus             = &AppError{Code: "INVALID_STATUS", Message: "Status must be one of pending, approved, rejected", StatusCode: http.StatusBadRequest}
	ErrInvalidStatusTransition   = &AppError{Code: "INVALID_STATUS_TRANSITION", Message: "Only pending records can change status", StatusCode: http.StatusConflict}
	ErrInsufficientSystemBalance = &AppError{Code: "INSUFFICIENT_SYSTEM_BALANCE", Message: "Insufficient system balance", StatusCode: http.StatusBadRequest}
	ErrInsufficientBalance       = &AppError{Code: "INSUFFICIENT_BALANCE", Message: "Insufficient allocation balance", StatusCode: http.StatusBadRequest}
	ErrAlreadyApproved           = &AppError{Code: "ALREADY_APPROVED", Message: "Approved records cannot be modified", StatusCode: http.StatusConflict}
	ErrUploadFailed              = &AppError{Code: "UPLOAD_FAILED", Message: "File upload failed", StatusCode: http.StatusBadRequest}
)

// Finance errors.
var (
	ErrFinanceNotFound  = &AppError{Code: "FINANCE_NOT_FOUND", Message: "Finance record not found", StatusCode: http.StatusNotFound}
	ErrFinanceAllocated = &AppError{Code: "FINANCE_ALLOCATED", Message: "Deposit is already allocated", StatusCode: http.StatusConflict}
)

// Allocation errors.
var (
	ErrAllocationNotFound = &AppError{Code: "ALLOCATION_NOT_FOUND", Message: "Allocation not found", StatusCode: http.StatusNotFound}
	ErrAllocationSpent    = &AppError{Code: "ALLOCATION_SPENT", Message: "Allocation is already spent", StatusCode: http.StatusConflict}
)

// Expense errors.
var (
	ErrExpenseNotFound = &AppError{Code: "EXPENSE_NOT_FOUND", Message: "Expense not found", StatusCode: http.StatusNotFound}
	ErrUserNotAssigned = &AppError{Code: "USER_NOT_ASSIGNED", Message: "User is not assigned to this project", StatusCode: http.StatusForbidden}
	ErrInvalidCategory = &AppError{Code: "INVALID_CATEGORY", Message: "Category is not an expense type of this project", StatusCode: http.StatusBadRequest}
)

// Project errors.
var (
	ErrProjectNotFound      = &AppError{Code: "PROJECT_NOT_FOUND", Message: "Project not found", StatusCode: http.StatusNotFound}
	ErrProjectClosed        = &AppError{Code: "PROJECT_CLOSED", Message: "Project is not accepting new transactions", StatusCode: http.StatusBadRequest}
	ErrDuplicateProjectCode = &AppError{Code: "DUPLICATE_PROJECT_CODE", Message: "A project with this code already exists", StatusCode: http.StatusConflict}
	ErrAlreadyAssigned      = &AppError{Code: "ALREADY_ASSIGNED", Message: "User is already assigned to this project", StatusCode: http.StatusConflict}
)

// Notification errors.
var (
	ErrNotificationNotFound = &AppError{Code: "NOTIFICATION_NOT_FOUND", Message: "Notification not found", StatusCode: http.StatusNotFound}
)

// From returns err as an *AppError. Errors that are not AppErrors are wrapped
// in ErrInternalServer so their details stay internal.
func From(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(ErrInternalServer, err)
}
