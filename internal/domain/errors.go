package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when an id does not resolve inside the caller's visible scope.
	// Rows owned by another household are reported the same way.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied is returned when a caller tries to mutate a global row
	ErrPermissionDenied = errors.New("permission denied: global rows are read-only")

	// ErrProtected is returned when a delete is blocked by rows that still reference the target
	ErrProtected = errors.New("cannot delete: row is still referenced")
)

// ValidationError carries field-level messages for rejected input
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records a message for field, keeping the first message per field
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// Empty reports whether no field failed
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// OrNil returns e when it holds at least one field error, nil otherwise
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ReferenceTenantMismatch reports a foreign reference that points outside the caller's household.
// Unknown ids produce the same error so that other households' rows cannot be discovered.
type ReferenceTenantMismatch struct {
	Field string
}

func (e *ReferenceTenantMismatch) Error() string {
	return fmt.Sprintf("%s: referenced row does not exist or belongs to another household", e.Field)
}

// IsValidation reports whether err belongs to the validation class (ValidationError or ReferenceTenantMismatch)
func IsValidation(err error) bool {
	var ve *ValidationError
	var rm *ReferenceTenantMismatch
	return errors.As(err, &ve) || errors.As(err, &rm)
}

// FieldErrors flattens a validation-class error into field messages
func FieldErrors(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	var rm *ReferenceTenantMismatch
	if errors.As(err, &rm) {
		return map[string]string{rm.Field: "does not exist or belongs to another household"}
	}
	return nil
}
