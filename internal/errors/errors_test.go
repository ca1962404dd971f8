package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Wrap(ErrInternalServer, cause)

	if err.Code != "INTERNAL_ERROR" {
		t.Errorf("expected INTERNAL_ERROR, got %s", err.Code)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected wrapped cause to be reachable with errors.Is")
	}
	if !stderrors.Is(err, ErrInternalServer) {
		t.Error("expected wrapped error to match its sentinel")
	}
}

func TestWithMessage(t *testing.T) {
	err := WithMessage(ErrInsufficientSystemBalance, "Insufficient system balance. Available: UGX 10.00")

	if err.Message != "Insufficient system balance. Available: UGX 10.00" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", err.StatusCode)
	}
	if !stderrors.Is(err, ErrInsufficientSystemBalance) {
		t.Error("expected custom message error to match its sentinel")
	}
	if stderrors.Is(err, ErrInsufficientBalance) {
		t.Error("expected different codes not to match")
	}
}

func TestFrom(t *testing.T) {
	t.Run("app_error_passthrough", func(t *testing.T) {
		err := fmt.Errorf("ctx: %w", ErrProjectNotFound)
		got := From(err)
		if got.Code != "PROJECT_NOT_FOUND" {
			t.Errorf("expected PROJECT_NOT_FOUND, got %s", got.Code)
		}
	})

	t.Run("plain_error_becomes_internal", func(t *testing.T) {
		cause := fmt.Errorf("disk full")
		got := From(cause)
		if got.Code != "INTERNAL_ERROR" || got.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected INTERNAL_ERROR/500, got %s/%d", got.Code, got.StatusCode)
		}
		if got.Message == "disk full" {
			t.Error("internal cause leaked into message")
		}
		if !stderrors.Is(got, cause) {
			t.Error("expected cause to be reachable")
		}
	})
}
