/*
errors.go - Centralized error types for the leave package

ERROR CATEGORIES:
  1. Validation errors - malformed input, caught at construction
     (*validation.Error with the full violation list)
  2. Business-rule errors - well-formed but semantically invalid operations
     (sentinels below, use with errors.Is; InsufficientBalanceError carries
     the amounts involved)

No operation partially applies: a failed operation returns the error and
leaves the receiving value untouched.
*/
package leave

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/solomon-wilson/hrmis-sub001/validation"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInsufficientBalance is returned when usage exceeds the current
	// balance. Usage equal to the balance succeeds and drains it to zero.
	ErrInsufficientBalance = errors.New("insufficient leave balance")

	// ErrInvalidTransition is returned for a state-machine move the current
	// status does not allow.
	ErrInvalidTransition = errors.New("invalid request status transition")

	// ErrReviewerRequired is returned when approving or denying without a
	// reviewer id.
	ErrReviewerRequired = errors.New("reviewer id is required")

	// ErrNotesRequired is returned when denying without review notes.
	ErrNotesRequired = errors.New("denial requires review notes")

	// ErrRequestStarted is returned when cancelling a request whose start
	// date has already passed.
	ErrRequestStarted = errors.New("request start date has already passed")
)

// IsBusinessRule reports whether err is one of this package's business-rule
// violations.
func IsBusinessRule(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrReviewerRequired) ||
		errors.Is(err, ErrNotesRequired) ||
		errors.Is(err, ErrRequestStarted)
}

// IsValidation reports whether err carries a structured validation result.
func IsValidation(err error) bool {
	var ve *validation.Error
	return errors.As(err, &ve)
}

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError details a balance shortage.
type InsufficientBalanceError struct {
	BalanceID string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance %s: available %s, requested %s",
		e.BalanceID, e.Available.String(), e.Requested.String())
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// TransitionError details a rejected state-machine move.
type TransitionError struct {
	RequestID string
	From      RequestStatus
	To        RequestStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("request %s: cannot move from %s to %s", e.RequestID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
