package zipstock

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a lookup by id or name matches nothing.
	ErrNotFound = errors.New("not found")

	// ErrInUse is returned when deleting a catalog entry that inventory
	// items or models still reference.
	ErrInUse = errors.New("entry is referenced and cannot be deleted")

	// ErrDuplicateSerial is returned when adding or updating an item with
	// a non-empty serial number already present on another item.
	ErrDuplicateSerial = errors.New("serial number already exists")
)

// SchemaError wraps a failure during database initialization with the
// migration step that produced it.
type SchemaError struct {
	Step string
	Err  error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema migration %q: %v", e.Step, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// ValidationErrors collects field errors so callers see every problem in
// one pass instead of fixing them one at a time.
type ValidationErrors struct {
	Errors []ValidationError
}

func (ve *ValidationErrors) Add(field, message string) {
	ve.Errors = append(ve.Errors, ValidationError{Field: field, Message: message})
}

func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

func (ve *ValidationErrors) Error() string {
	msgs := make([]string, len(ve.Errors))
	for i, e := range ve.Errors {
		msgs[i] = e.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationErrors
	return errors.As(err, &ve)
}
