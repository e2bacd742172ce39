package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports input the engine refuses to apply: an unknown
// block type or a malformed content/style patch.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// NotFoundError reports an operation referencing an id that does not exist.
type NotFoundError struct {
	Kind string // "block" | "template" | "revision" | "column"
	ID   string
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// InvariantViolation means the document engine itself is broken.
// It is raised with panic and must never be handled as a user error.
type InvariantViolation struct {
	Message string
}

func (e *InvariantViolation) Error() string {
	return "invariant violation: " + e.Message
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// BlockNotFound builds the NotFoundError used for unknown block ids.
func BlockNotFound(id string) error {
	return &NotFoundError{Kind: "block", ID: id}
}

// TemplateNotFound builds the NotFoundError used for unknown template ids.
func TemplateNotFound(id string) error {
	return &NotFoundError{Kind: "template", ID: id}
}
