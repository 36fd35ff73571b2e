// errors.go - Sentinel errors for policy matching.
package policy

import (
	"errors"

	"github.com/solomon-wilson/hrmis-sub001/validation"
)

var (
	// ErrNoPolicyMatch means no applicable, eligible policy exists for the
	// employee and leave type.
	ErrNoPolicyMatch = errors.New("no matching policy")
)

// IsBusinessRule reports whether the error is a policy business-rule
// failure rather than malformed input.
func IsBusinessRule(err error) bool {
	return errors.Is(err, ErrNoPolicyMatch)
}

// IsValidation reports whether the error is a shape validation failure.
func IsValidation(err error) bool {
	var verr *validation.Error
	return errors.As(err, &verr)
}
