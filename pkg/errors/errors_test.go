package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "basic error",
			err:      New(ErrCodeStoreOpen, "Failed to open store"),
			expected: "[WST4001] ERROR: Failed to open store",
		},
		{
			name: "error with suggestions",
			err: New(ErrCodeStoreOpen, "Failed to open store").
				WithSuggestions("Check the store path", "Check file permissions"),
			expected: "[WST4001] ERROR: Failed to open store\nSuggestions:\n  1. Check the store path\n  2. Check file permissions",
		},
		{
			name: "error with context",
			err: New(ErrCodeStoreOpen, "Failed to open store").
				WithContext("path", "data/housing_analytics.db"),
			expected: "[WST4001] ERROR: Failed to open store",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	baseErr := fmt.Errorf("disk I/O error")

	appErr := Wrap(baseErr, ErrCodeStoreTransaction, "Failed to commit reload")

	if appErr.Cause != baseErr {
		t.Error("Wrapped error should contain original error as cause")
	}

	if appErr.Code != ErrCodeStoreTransaction {
		t.Errorf("Expected code %s, got %s", ErrCodeStoreTransaction, appErr.Code)
	}

	if !errors.Is(appErr, baseErr) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, ErrCodeInternal, "should be nil") != nil {
		t.Error("Wrapping nil should return nil")
	}
}

func TestContextInheritance(t *testing.T) {
	inner := New(ErrCodeExtractMalformed, "bad row").
		WithContext("file", "fact_doorlooptijden.csv").
		WithContext("line", 42)

	outer := Wrap(inner, ErrCodeInternal, "transform failed")

	if outer.Context["file"] != "fact_doorlooptijden.csv" {
		t.Error("Wrapped AppError should inherit context")
	}
	if outer.Context["line"] != 42 {
		t.Error("Wrapped AppError should inherit all context keys")
	}
}

func TestConfigMismatchError(t *testing.T) {
	err := ConfigMismatchError("window mismatch", "2015-2024", "2015-2023")

	if err.Code != ErrCodeConfigMismatch {
		t.Errorf("Expected %s, got %s", ErrCodeConfigMismatch, err.Code)
	}
	if err.Context["configured_window"] != "2015-2024" {
		t.Error("Configured window should be recorded in context")
	}
	if err.Context["recorded_window"] != "2015-2023" {
		t.Error("Recorded window should be recorded in context")
	}
}

func TestReferentialIntegrityError(t *testing.T) {
	err := ReferentialIntegrityError("fact_woningen_pijplijn", "regios", "GM9999", "17")

	if err.Code != ErrCodeReferentialIntegrity {
		t.Errorf("Expected %s, got %s", ErrCodeReferentialIntegrity, err.Code)
	}
	if err.Context["code"] != "GM9999" {
		t.Error("Offending code should be in context")
	}
	if err.Context["row_id"] != "17" {
		t.Error("Fact row identity should be in context")
	}
}

func TestIsCode(t *testing.T) {
	err := DuplicateConflictError("woningtype", "T001100")

	wrapped := fmt.Errorf("normalize: %w", err)

	if !IsCode(wrapped, ErrCodeDuplicateConflict) {
		t.Error("IsCode should see through fmt.Errorf wrapping")
	}
	if IsCode(wrapped, ErrCodeConfigMismatch) {
		t.Error("IsCode should not match a different code")
	}
	if IsCode(fmt.Errorf("plain"), ErrCodeDuplicateConflict) {
		t.Error("IsCode should be false for non-AppError")
	}
}

func TestGetErrorCode(t *testing.T) {
	if GetErrorCode(fmt.Errorf("plain error")) != ErrCodeInternal {
		t.Error("Plain errors should map to ErrCodeInternal")
	}
	if GetErrorCode(New(ErrCodeArtifactNotFound, "missing")) != ErrCodeArtifactNotFound {
		t.Error("AppError code should be extracted")
	}
}

func TestErrorIs(t *testing.T) {
	a := New(ErrCodeConfigMismatch, "first")
	b := New(ErrCodeConfigMismatch, "second")
	c := New(ErrCodeInternal, "other")

	if !errors.Is(a, b) {
		t.Error("Errors with the same code should match via errors.Is")
	}
	if errors.Is(a, c) {
		t.Error("Errors with different codes should not match")
	}
}
