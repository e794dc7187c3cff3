package entryform

import (
	"context"
	"errors"

	"github.com/ehr/patientor/internal/domain/entry"
	"github.com/ehr/patientor/internal/domain/patient"
)

// Class groups submission failures by how they are shown.
type Class int

const (
	ClassNone Class = iota
	ClassValidation
	ClassTransport
	ClassUnrecognized
	// ClassInternal is a broken invariant. It is never shown in the form.
	ClassInternal
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassValidation:
		return "validation"
	case ClassTransport:
		return "transport"
	case ClassUnrecognized:
		return "unrecognized"
	case ClassInternal:
		return "internal"
	}
	return "unknown"
}

const (
	messageTransport    = "Could not reach the patient service, please try again"
	messageNotFound     = "Patient no longer exists"
	messageUnrecognized = "Unknown error"
)

// Classify maps a submission error to its class and the message displayed
// inside the form.
func Classify(err error) (Class, string) {
	if err == nil {
		return ClassNone, ""
	}
	var verr *patient.ValidationError
	switch {
	case errors.Is(err, entry.ErrInternalConsistency):
		return ClassInternal, ""
	case errors.As(err, &verr):
		return ClassValidation, verr.Joined()
	case errors.Is(err, patient.ErrNotFound):
		return ClassTransport, messageNotFound
	case errors.Is(err, patient.ErrTransport),
		errors.Is(err, context.DeadlineExceeded):
		return ClassTransport, messageTransport
	}
	return ClassUnrecognized, messageUnrecognized
}

// SubmitError is a failed submission. The form stays open with Message shown.
type SubmitError struct {
	Class   Class
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	return "submit entry: " + e.Err.Error()
}

func (e *SubmitError) Unwrap() error { return e.Err }
