package model

import "fmt"

// ValidationError reports malformed or inconsistent input data. It is fatal
// at load time; callers must never coerce a partially-valid record into use.
type ValidationError struct {
	Entity string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.Entity, e.Field, e.Reason)
}

func validationErr(entity, field, format string, args ...any) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}
