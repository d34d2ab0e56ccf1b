package domain

import "fmt"

// ValidationError reports malformed or out-of-range caller input. It names
// the offending field and echoes the rejected value so API consumers can see
// exactly what was wrong. It never wraps an ephemeris failure.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s (got: %v)", e.Field, e.Reason, e.Value)
}

// ComputationError reports an ephemeris provider failure at a specific step
// of the chart build (Julian-Day conversion, one body, or the houses call).
// The provider's own error is retained as the cause.
type ComputationError struct {
	Step string
	Err  error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("failed to compute %s: %v", e.Step, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }
