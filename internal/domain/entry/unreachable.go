package entry

import (
	"errors"
	"fmt"
)

// ErrInternalConsistency marks a value outside the closed Kind set. It means
// the data model and a dispatch site disagree; it is a bug, not user input.
var ErrInternalConsistency = errors.New("internal consistency failure")

// InternalConsistencyError carries the offending value.
type InternalConsistencyError struct {
	Value any
	Where string
}

func (e *InternalConsistencyError) Error() string {
	if e.Where != "" {
		return fmt.Sprintf("%s: unhandled entry variant %T(%v)", e.Where, e.Value, e.Value)
	}
	return fmt.Sprintf("unhandled entry variant %T(%v)", e.Value, e.Value)
}

func (e *InternalConsistencyError) Unwrap() error { return ErrInternalConsistency }

// PanicUnhandled is the fallback branch of an exhaustive switch. Valid data
// never reaches it.
func PanicUnhandled(v any) {
	panic(&InternalConsistencyError{Value: v})
}

// Unreachable is PanicUnhandled for switches that must produce a value.
func Unreachable[T any](v any) T {
	PanicUnhandled(v)
	var zero T
	return zero
}
