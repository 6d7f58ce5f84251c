package models

import (
	"fmt"
	"strings"
)

// ValidationError reports a field that failed a local check before any
// network call was made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateDraft runs the presence checks required before submitting a
// resource. Only the name is required.
func ValidateDraft(kind Kind, r Resource) error {
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Field: "name", Message: kind.Label() + " name is required"}
	}
	if r.Progress < 0 || r.Progress > 100 {
		return &ValidationError{Field: "progress", Message: "progress must be between 0 and 100"}
	}
	return nil
}
