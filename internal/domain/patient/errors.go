package patient

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound   = errors.New("patient not found")
	ErrValidation = errors.New("validation error")
	ErrTransport  = errors.New("transport error")
)

// ValidationError is a rejection of submitted fields. Messages are shown to
// the user as-is.
type ValidationError struct {
	Messages []string
}

func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Joined()
}

// Joined returns the messages separated by ", ".
func (e *ValidationError) Joined() string {
	return strings.Join(e.Messages, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// TransportError is a network or server failure unrelated to field content.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": transport failure"
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Err}
}
