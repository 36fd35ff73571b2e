/*
leavetype.go - Leave type reference data and request business rules

PURPOSE:
  LeaveType is immutable reference data (vacation, sick, ...) describing
  how requests against it must behave: approval requirement, consecutive
  day caps, advance notice, partial-day permission, accrual backing.

  ValidateRequest runs the business-rule phase for a request against its
  type and returns every violation, not just the first.
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/solomon-wilson/hrmis-sub001/validation"
)

// =============================================================================
// LEAVE TYPE - Immutable reference data
// =============================================================================

type LeaveType struct {
	ID   string
	Name string
	Code string

	Paid             bool
	RequiresApproval bool

	// Nil means unrestricted.
	MaxConsecutiveDays *int
	AdvanceNoticeDays  *int

	AllowsPartialDays bool
	AccrualBased      bool
	Active            bool
}

// =============================================================================
// REQUEST BUSINESS RULES
// =============================================================================

// ValidateRequest applies the type's business rules to a request. The
// available amount is the caller-supplied balance for accrual-based types;
// pass zero for non-accrual types. All rules are evaluated so the result
// lists every violation.
func (lt LeaveType) ValidateRequest(r Request, available decimal.Decimal) *validation.Result {
	res := validation.NewResult()

	if !lt.Active {
		res.Addf("leave_type_id", "inactive", "leave type %s is not active", lt.Code)
	}

	if lt.MaxConsecutiveDays != nil {
		if span := r.SpanDays(); span > *lt.MaxConsecutiveDays {
			res.Addf("end_date", "max_consecutive_days",
				"%d consecutive days exceeds the %d day limit for %s",
				span, *lt.MaxConsecutiveDays, lt.Code)
		}
	}

	if lt.AdvanceNoticeDays != nil && !r.MeetsAdvanceNotice(*lt.AdvanceNoticeDays) {
		res.Addf("start_date", "advance_notice",
			"%s requires %d days of advance notice", lt.Code, *lt.AdvanceNoticeDays)
	}

	if !lt.AllowsPartialDays && !r.TotalDays.Equal(r.TotalDays.Truncate(0)) {
		res.Addf("total_days", "partial_days", "%s does not allow partial days", lt.Code)
	}

	if lt.AccrualBased && r.TotalDays.GreaterThan(available) {
		res.Addf("total_days", "insufficient_balance",
			"requested %s days but only %s available", r.TotalDays.String(), available.String())
	}

	return res
}

// =============================================================================
// BLACKOUT PERIODS
// =============================================================================

// BlackoutPeriod is a date window during which requests are disallowed or
// flagged. Dates are inclusive at day granularity.
type BlackoutPeriod struct {
	Name  string
	Start time.Time
	End   time.Time
}

func (p BlackoutPeriod) contains(start, end time.Time) bool {
	return rangesIntersect(start, end, p.Start, p.End)
}
