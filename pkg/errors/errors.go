package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a unique error code for categorizing errors
type ErrorCode string

const (
	// Configuration errors (1xxx)
	ErrCodeConfigNotFound  ErrorCode = "WST1001"
	ErrCodeConfigInvalid   ErrorCode = "WST1002"
	ErrCodeConfigMismatch  ErrorCode = "WST1003"

	// Extract errors (2xxx)
	ErrCodeExtractNotFound  ErrorCode = "WST2001"
	ErrCodeExtractMalformed ErrorCode = "WST2002"

	// Transform errors (3xxx)
	ErrCodeDuplicateConflict    ErrorCode = "WST3001"
	ErrCodeReferentialIntegrity ErrorCode = "WST3002"
	ErrCodeInvariantViolation   ErrorCode = "WST3003"

	// Store errors (4xxx)
	ErrCodeStoreOpen        ErrorCode = "WST4001"
	ErrCodeStoreTransaction ErrorCode = "WST4002"
	ErrCodeStoreExecution   ErrorCode = "WST4003"

	// Artifact errors (5xxx)
	ErrCodeArtifactNotFound ErrorCode = "WST5001"
	ErrCodeArtifactCorrupt  ErrorCode = "WST5002"
	ErrCodeArtifactPublish  ErrorCode = "WST5003"

	// File system errors (6xxx)
	ErrCodeFileNotFound   ErrorCode = "WST6001"
	ErrCodeFilePermission ErrorCode = "WST6002"
	ErrCodeFileOperation  ErrorCode = "WST6003"

	// System errors (9xxx)
	ErrCodeInternal ErrorCode = "WST9001"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL" // Run aborted, store may need inspection
	SeverityError    ErrorSeverity = "ERROR"    // Run aborted, store untouched
	SeverityWarning  ErrorSeverity = "WARNING"  // Run continued with degraded values
	SeverityInfo     ErrorSeverity = "INFO"     // Informational, not an error
)

// AppError represents a structured application error with context
type AppError struct {
	Code        ErrorCode
	Message     string
	Severity    ErrorSeverity
	Context     map[string]interface{}
	Cause       error
	Stack       string
	Timestamp   time.Time
	Suggestions []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\nCaused by: %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return b.String()
}

// Unwrap returns the cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Severity:  SeverityError,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error with AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	appErr := New(code, message)
	appErr.Cause = err

	// If wrapping another AppError, inherit its context
	if ae, ok := err.(*AppError); ok {
		for k, v := range ae.Context {
			appErr.Context[k] = v
		}
	}

	return appErr
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the error severity
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithSuggestions adds recovery suggestions
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// captureStack captures the current stack trace
func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			b.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return b.String()
}

// Common error constructors

// ConfigMismatchError signals that the transform window disagrees with
// the extraction window or the prior run artifact window.
func ConfigMismatchError(message string, configured, recorded string) *AppError {
	return New(ErrCodeConfigMismatch, message).
		WithContext("configured_window", configured).
		WithContext("recorded_window", recorded).
		WithSuggestions(
			"Re-run extraction with the currently configured window",
			"Or adjust start_year/end_year in the config to match the extracts",
		)
}

// DuplicateConflictError signals that the same dimension code carries
// conflicting attributes across extract pages.
func DuplicateConflictError(dimension, code string) *AppError {
	return New(ErrCodeDuplicateConflict,
		fmt.Sprintf("dimension %s has conflicting attributes for code %s", dimension, code)).
		WithContext("dimension", dimension).
		WithContext("code", code).
		WithSuggestions(
			"Inspect the raw dimension extracts for upstream cube drift",
			"Re-extract the dimension tables from CBS",
		)
}

// ReferentialIntegrityError signals a fact row referencing a dimension
// code that is absent from the normalized dimension tables.
func ReferentialIntegrityError(table, dimension, code, rowID string) *AppError {
	return New(ErrCodeReferentialIntegrity,
		fmt.Sprintf("%s row %s references unknown %s code %q", table, rowID, dimension, code)).
		WithContext("fact_table", table).
		WithContext("dimension", dimension).
		WithContext("code", code).
		WithContext("row_id", rowID).
		WithSuggestions(
			"Verify the dimension extract covers the same run as the fact extract",
			"Re-run extraction so dimensions and facts come from one snapshot",
		)
}

// StoreError creates a store execution error with the offending statement
func StoreError(message string, statement string, cause error) *AppError {
	return Wrap(cause, ErrCodeStoreExecution, message).
		WithContext("statement", truncateString(statement, 200))
}

// ExtractError creates a malformed-extract error with file position context
func ExtractError(message, file string, line int, cause error) *AppError {
	err := New(ErrCodeExtractMalformed, message).
		WithContext("file", file).
		WithContext("line", line)
	err.Cause = cause
	return err
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given error code
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// truncateString truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
