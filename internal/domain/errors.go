package domain

import "fmt"

// NotFoundError reports that a requested resource does not exist.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with %s", e.Resource, e.Key)
}

// NewNotFound builds a NotFoundError for resource identified by key.
func NewNotFound(resource, key string) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: key}
}

// ValidationError reports malformed or unacceptable input. Details holds
// one entry per offending field, if known.
type ValidationError struct {
	Message string
	Details []string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidation builds a ValidationError with an optional list of details.
func NewValidation(msg string, details ...string) *ValidationError {
	return &ValidationError{Message: msg, Details: details}
}
