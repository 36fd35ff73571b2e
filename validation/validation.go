/*
Package validation provides structured validation results.

PURPOSE:
  Every validator in this codebase returns a Result instead of failing on
  the first violation. Callers (and ultimately the UI) see ALL problems
  with an input at once, not just the first one.

TWO-PHASE VALIDATION:
  1. Shape phase: types, ranges, enum membership (construction time)
  2. Business phase: cross-field and cross-entity rules (operation time)

  Both phases produce the same Result shape so handlers render them
  uniformly.

USAGE:
  res := validation.NewResult()
  if input.EndTime.Before(input.StartTime) {
      res.Addf("end_time", "chronology", "end %s is before start %s", ...)
  }
  if !res.Valid() {
      return res.AsError()
  }
*/
package validation

import (
	"fmt"
	"strings"
)

// =============================================================================
// VIOLATION - A single failed rule
// =============================================================================

// Violation identifies one failed rule on one field.
type Violation struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s (%s)", v.Field, v.Message, v.Code)
}

// =============================================================================
// RESULT - Accumulated validation outcome
// =============================================================================

// Result accumulates violations. The zero value is a valid result.
type Result struct {
	Violations []Violation `json:"violations"`
}

func NewResult() *Result {
	return &Result{}
}

// Valid reports whether no violations were recorded.
func (r *Result) Valid() bool {
	return len(r.Violations) == 0
}

// Add records a violation.
func (r *Result) Add(field, code, message string) {
	r.Violations = append(r.Violations, Violation{Field: field, Code: code, Message: message})
}

// Addf records a violation with a formatted message.
func (r *Result) Addf(field, code, format string, args ...any) {
	r.Add(field, code, fmt.Sprintf(format, args...))
}

// Merge appends all violations from another result.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// AsError returns nil when valid, otherwise an *Error wrapping the result.
func (r *Result) AsError() error {
	if r.Valid() {
		return nil
	}
	return &Error{Result: *r}
}

// =============================================================================
// ERROR - Result as an error value
// =============================================================================

// Error carries a failed Result across an error-returning boundary.
type Error struct {
	Result Result
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Result.Violations))
	for i, v := range e.Result.Violations {
		msgs[i] = v.String()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}
