package core

// validation.go checks the invariants every Event must hold before it leaves
// the parser:
//  1. The span is set and does not run backwards
//  2. Every batch is <Letters><Digits>, unless the whole list is free-form labels

import (
	"fmt"
)

// ValidationError represents a single invariant violation on an Event field.
type ValidationError struct {
	Field   string // Event field name
	Value   string // The offending value
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Is makes errors.Is(err, ErrInvalidEvent) succeed.
func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidEvent
}

// ValidateEvent returns the first invariant ev violates, or nil.
func ValidateEvent(ev Event) error {
	if ev.Span.IsZero() {
		return ValidationError{Field: "span", Message: "no period span"}
	}
	if ev.Span.Start > ev.Span.End {
		return ValidationError{
			Field:   "span",
			Value:   ev.Span.String(),
			Message: "start is after end",
		}
	}

	if allStringOnly(ev.Batches) {
		return nil
	}
	for _, b := range ev.Batches {
		if !IsBatchCode(b) {
			return ValidationError{
				Field:   "batches",
				Value:   b,
				Message: "batch is neither <Letter><Number> nor a free-form label list",
			}
		}
	}
	return nil
}
