// Package domain defines the core domain models for the record store.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a record store error with a structured error code.
// Codes follow the format RC-<AREA>-<NNNN>.
type DomainError struct {
	Code    string // Error code (e.g., "RC-SCHM-4001")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Validation Errors
// ============================================================================

var (
	// ErrSchemaViolation indicates a non-null value whose type disagrees with
	// the type recorded for the attribute in its collection.
	ErrSchemaViolation = NewDomainError("RC-SCHM-4001", "schema violation")

	// ErrUnsupportedValue indicates a value that is not JSON-representable.
	ErrUnsupportedValue = NewDomainError("RC-VAL-4002", "unsupported value")

	// ErrInvalidAttribute indicates an empty or reserved attribute name.
	ErrInvalidAttribute = NewDomainError("RC-ARG-4003", "invalid attribute name")

	// ErrInvalidCollection indicates an empty collection name.
	ErrInvalidCollection = NewDomainError("RC-ARG-4004", "invalid collection name")
)

// ============================================================================
// Record Errors
// ============================================================================

var (
	// ErrRecordNotFound indicates a write through a record handle whose
	// record has been deleted from its collection.
	ErrRecordNotFound = NewDomainError("RC-REC-4040", "record not found")
)

// ============================================================================
// Storage Errors
// ============================================================================

var (
	// ErrStorageError indicates a snapshot read, write or delete failed.
	ErrStorageError = NewDomainError("RC-SYS-5001", "storage error")

	// ErrNoSnapshots indicates the snapshot history is empty.
	ErrNoSnapshots = NewDomainError("RC-SNAP-4041", "no snapshots available")
)

// NewSchemaViolation builds the error returned when attribute in collection
// already holds values of type expected and a non-null value of type actual
// is assigned.
func NewSchemaViolation(collection, attribute string, expected, actual ValueType) *DomainError {
	return ErrSchemaViolation.WithDetails(fmt.Sprintf(
		"attribute %q in collection %q expects type %s, got %s",
		attribute, collection, expected, actual))
}

// NewUnsupportedValue builds the error returned when the value assigned to
// attribute is not JSON-representable. reason names the offending element.
func NewUnsupportedValue(collection, attribute, reason string) *DomainError {
	return ErrUnsupportedValue.WithDetails(fmt.Sprintf(
		"attribute %q in collection %q must be JSON-native (null, boolean, number, string, list, map): %s",
		attribute, collection, reason))
}
