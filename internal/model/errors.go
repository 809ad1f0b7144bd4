package model

import "fmt"

// InvalidInputError reports a missing or malformed field that the requested
// computation cannot do without.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %s: %s", e.Field, e.Reason)
}

func NewInvalidInput(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}

// OutOfRangeError reports a share count outside [Min, Max]. It points at an
// inconsistent record upstream.
type OutOfRangeError struct {
	Field string
	Value int64
	Min   int64
	Max   int64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s %d out of range [%d, %d]", e.Field, e.Value, e.Min, e.Max)
}
