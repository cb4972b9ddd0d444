package model

import "testing"

func TestAPIError_Error(t *testing.T) {
	err := &APIError{Code: ErrNotFound, Message: "Scenario 'scn_123' not found"}
	want := "NOT_FOUND: Scenario 'scn_123' not found"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("Session", "ses_abc")
	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Message != "Session 'ses_abc' not found" {
		t.Errorf("Message = %q, want %q", err.Message, "Session 'ses_abc' not found")
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("Invalid scenario",
		FieldError{Path: "items[0].duration", Message: "must be positive"},
		FieldError{Path: "items[1].ease", Message: "unknown easing"},
	)
	if err.Code != ErrValidation {
		t.Errorf("Code = %q, want %q", err.Code, ErrValidation)
	}
	if len(err.Details) != 2 {
		t.Errorf("Details length = %d, want 2", len(err.Details))
	}
}

func TestNewConflictError(t *testing.T) {
	err := NewConflictError("scenario 'pulse' already exists")
	if err.Code != ErrConflict {
		t.Errorf("Code = %q, want %q", err.Code, ErrConflict)
	}
}
