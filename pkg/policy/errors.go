package policy

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNoRulesLoaded indicates the evaluator has no rule table; evaluation
	// fails closed while this holds.
	ErrNoRulesLoaded = errors.New("no policy rules loaded")

	// ErrInvalidRules indicates a rule table failed validation.
	ErrInvalidRules = errors.New("invalid policy rules")
)

// ParseError indicates a rule document could not be parsed or validated.
type ParseError struct {
	Path   string
	Errors []string
	Cause  error
}

// Error returns the error message.
func (e *ParseError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("policy rules %q: %d validation errors: %v", e.Path, len(e.Errors), e.Errors)
	}
	return fmt.Sprintf("policy rules %q: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ReloadError indicates a rule reload failure. The previous table, if any,
// stays active.
type ReloadError struct {
	Source string
	Cause  error
}

// Error returns the error message.
func (e *ReloadError) Error() string {
	return fmt.Sprintf("policy reload failed from %s: %v", e.Source, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ReloadError) Unwrap() error {
	return e.Cause
}
