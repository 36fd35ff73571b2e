/*
errors.go - Error types for the timesheet package

ERROR CATEGORIES:
  1. Validation errors - malformed input, caught at construction
     (returned as *validation.Error with the full violation list)
  2. Business-rule errors - well-formed but semantically invalid operations
     (sentinel errors below, use with errors.Is)

Neither category is retried internally; both are synchronous and leave the
receiving entry untouched.
*/
package timesheet

import (
	"errors"

	"github.com/solomon-wilson/hrmis-sub001/validation"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrAlreadyClockedOut is returned when clocking out a completed entry.
	ErrAlreadyClockedOut = errors.New("entry already clocked out")

	// ErrNotClockedOut is returned when an operation needs a completed span.
	ErrNotClockedOut = errors.New("entry has no clock-out time")

	// ErrOpenBreak is returned when clocking out while a break is open.
	ErrOpenBreak = errors.New("cannot clock out with an open break")

	// ErrBreakNotFound is returned when ending a break that doesn't exist.
	ErrBreakNotFound = errors.New("break not found on entry")

	// ErrBreakAlreadyEnded is returned when ending a break twice.
	ErrBreakAlreadyEnded = errors.New("break already ended")

	// ErrNotApprovable is returned when approving an entry that is not a
	// manual entry pending approval.
	ErrNotApprovable = errors.New("only manual entries pending approval can be approved")

	// ErrBreakConflict is returned when a break change breaks the aggregate:
	// overlap with another break, outside entry bounds, or over the type cap.
	ErrBreakConflict = errors.New("break violates entry sequencing rules")
)

// IsBusinessRule reports whether err is one of this package's business-rule
// violations (as opposed to a shape/validation failure).
func IsBusinessRule(err error) bool {
	return errors.Is(err, ErrAlreadyClockedOut) ||
		errors.Is(err, ErrNotClockedOut) ||
		errors.Is(err, ErrOpenBreak) ||
		errors.Is(err, ErrBreakNotFound) ||
		errors.Is(err, ErrBreakAlreadyEnded) ||
		errors.Is(err, ErrNotApprovable) ||
		errors.Is(err, ErrBreakConflict)
}

// IsValidation reports whether err carries a structured validation result.
func IsValidation(err error) bool {
	var ve *validation.Error
	return errors.As(err, &ve)
}
