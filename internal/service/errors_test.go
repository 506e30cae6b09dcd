package service

import (
	"errors"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "field and message",
			err: &ValidationError{
				Field:   "message",
				Message: "cannot be empty",
			},
			want: "validation error on field message: cannot be empty",
		},
		{
			name: "empty field",
			err: &ValidationError{
				Field:   "",
				Message: "invalid",
			},
			want: "validation error on field : invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("ValidationError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorConstants(t *testing.T) {
	if ErrInvalidInput == nil {
		t.Error("ErrInvalidInput should not be nil")
	}
	if ErrNotFound == nil {
		t.Error("ErrNotFound should not be nil")
	}
	if ErrExternalService == nil {
		t.Error("ErrExternalService should not be nil")
	}

	// Test error matching
	if !errors.Is(ErrInvalidInput, ErrInvalidInput) {
		t.Error("ErrInvalidInput should match itself")
	}
	if !errors.Is(ErrNotFound, ErrNotFound) {
		t.Error("ErrNotFound should match itself")
	}
	if !errors.Is(ErrExternalService, ErrExternalService) {
		t.Error("ErrExternalService should match itself")
	}
}

func TestValidationError_IsInvalidInput(t *testing.T) {
	var err error = &ValidationError{Field: "question", Message: "cannot be empty"}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ValidationError should match ErrInvalidInput")
	}
}

func TestClassify(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name    string
		kind    error
		err     error
		wantNil bool
		wantMsg string
	}{
		{name: "nil error", kind: ErrStoreUnavailable, wantNil: true},
		{name: "store", kind: ErrStoreUnavailable, err: cause, wantMsg: "search: store unavailable: connection refused"},
		{name: "external", kind: ErrExternalService, err: cause, wantMsg: "search: external service error: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.kind, "search", tt.err)
			if tt.wantNil {
				if got != nil {
					t.Errorf("Classify() = %v, want nil", got)
				}
				return
			}
			if got.Error() != tt.wantMsg {
				t.Errorf("Classify() = %v, want %v", got, tt.wantMsg)
			}
			if !errors.Is(got, tt.kind) || !errors.Is(got, cause) {
				t.Error("Classify() should match both the kind and the cause")
			}
		})
	}
}
