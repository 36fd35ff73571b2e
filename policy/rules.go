/*
rules.go - Rule objects nested inside leave policies

RULE KINDS:
  EligibilityRule  WHO qualifies (tenure, employment type, department, custom)
  AccrualRule      how the balance grows (rate, period, caps)
  UsageRule        how leave may be taken (consecutive caps, notice, increments)

EVALUATION:
  EligibilityRule.Evaluate compares an employee attribute value against the
  rule value. GREATER_THAN and LESS_THAN parse both sides as decimals and
  fall back to lexicographic comparison when either side is non-numeric.
  IN and NOT_IN treat the rule value as a comma-separated list.
*/
package policy

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/solomon-wilson/hrmis-sub001/leave"
	"github.com/solomon-wilson/hrmis-sub001/validation"
)

// =============================================================================
// ELIGIBILITY RULES
// =============================================================================

type RuleType string

const (
	RuleTenure         RuleType = "TENURE"
	RuleEmploymentType RuleType = "EMPLOYMENT_TYPE"
	RuleDepartment     RuleType = "DEPARTMENT"
	RuleCustom         RuleType = "CUSTOM"
)

func (t RuleType) Known() bool {
	switch t {
	case RuleTenure, RuleEmploymentType, RuleDepartment, RuleCustom:
		return true
	}
	return false
}

type Operator string

const (
	OpEquals      Operator = "EQUALS"
	OpGreaterThan Operator = "GREATER_THAN"
	OpLessThan    Operator = "LESS_THAN"
	OpIn          Operator = "IN"
	OpNotIn       Operator = "NOT_IN"
)

func (o Operator) Known() bool {
	switch o {
	case OpEquals, OpGreaterThan, OpLessThan, OpIn, OpNotIn:
		return true
	}
	return false
}

// EligibilityRule compares one employee attribute against a value. For
// CUSTOM rules Attribute names the key looked up in the employee's custom
// attribute map; the other rule types ignore it.
type EligibilityRule struct {
	Type      RuleType
	Attribute string
	Operator  Operator
	Value     string
}

func (r EligibilityRule) validate(i int) *validation.Result {
	res := validation.NewResult()
	if !r.Type.Known() {
		res.Addf("eligibility_rules", "enum", "rule %d: unknown rule type %q", i, r.Type)
	}
	if !r.Operator.Known() {
		res.Addf("eligibility_rules", "enum", "rule %d: unknown operator %q", i, r.Operator)
	}
	if r.Value == "" {
		res.Addf("eligibility_rules", "required", "rule %d: value is required", i)
	}
	if r.Type == RuleCustom && r.Attribute == "" {
		res.Addf("eligibility_rules", "required", "rule %d: custom rules need an attribute name", i)
	}
	return res
}

// Evaluate reports whether the employee attribute value satisfies the rule.
func (r EligibilityRule) Evaluate(employeeValue string) bool {
	switch r.Operator {
	case OpEquals:
		return employeeValue == r.Value
	case OpGreaterThan:
		return compareValues(employeeValue, r.Value) > 0
	case OpLessThan:
		return compareValues(employeeValue, r.Value) < 0
	case OpIn:
		return inList(employeeValue, r.Value)
	case OpNotIn:
		return !inList(employeeValue, r.Value)
	}
	return false
}

// compareValues compares numerically when both sides parse as decimals,
// lexicographically otherwise.
func compareValues(a, b string) int {
	da, errA := decimal.NewFromString(a)
	db, errB := decimal.NewFromString(b)
	if errA == nil && errB == nil {
		return da.Cmp(db)
	}
	return strings.Compare(a, b)
}

func inList(value, list string) bool {
	for _, item := range strings.Split(list, ",") {
		if strings.TrimSpace(item) == value {
			return true
		}
	}
	return false
}

// =============================================================================
// ACCRUAL RULES
// =============================================================================

// AccrualRule configures how a balance governed by the policy grows. The
// period reuses the leave package's accrual cadence vocabulary.
type AccrualRule struct {
	Rate           decimal.Decimal
	Period         leave.AccrualPeriod
	MaxBalance     *decimal.Decimal
	CarryoverLimit *decimal.Decimal
}

func (r AccrualRule) validate(i int) *validation.Result {
	res := validation.NewResult()
	if r.Rate.IsNegative() {
		res.Addf("accrual_rules", "range", "rule %d: accrual rate cannot be negative", i)
	}
	if !r.Period.Known() {
		res.Addf("accrual_rules", "enum", "rule %d: unknown accrual period %q", i, r.Period)
	}
	if r.MaxBalance != nil && r.MaxBalance.IsNegative() {
		res.Addf("accrual_rules", "range", "rule %d: maximum balance cannot be negative", i)
	}
	if r.MaxBalance != nil && r.CarryoverLimit != nil && r.CarryoverLimit.GreaterThan(*r.MaxBalance) {
		res.Addf("accrual_rules", "range", "rule %d: carryover limit cannot exceed the maximum balance", i)
	}
	return res
}

// SeedBalance stamps the rule's accrual configuration onto a balance
// snapshot, so balances opened under the policy start consistent with it.
func (r AccrualRule) SeedBalance(b leave.Balance) leave.Balance {
	b.AccrualRate = r.Rate
	b.Period = r.Period
	if r.MaxBalance != nil {
		max := *r.MaxBalance
		b.MaxBalance = &max
	}
	if r.CarryoverLimit != nil {
		limit := *r.CarryoverLimit
		b.CarryoverLimit = &limit
	}
	return b
}

// =============================================================================
// USAGE RULES
// =============================================================================

// UsageRule constrains how leave under the policy may be taken. Nil fields
// mean unrestricted.
type UsageRule struct {
	MaxConsecutiveDays *int
	AdvanceNoticeDays  *int
	MinIncrementDays   *decimal.Decimal
	RequiresApproval   bool
}

func (r UsageRule) validate(i int) *validation.Result {
	res := validation.NewResult()
	if r.MaxConsecutiveDays != nil && *r.MaxConsecutiveDays <= 0 {
		res.Addf("usage_rules", "range", "rule %d: max consecutive days must be positive", i)
	}
	if r.AdvanceNoticeDays != nil && *r.AdvanceNoticeDays < 0 {
		res.Addf("usage_rules", "range", "rule %d: advance notice days cannot be negative", i)
	}
	if r.MinIncrementDays != nil && !r.MinIncrementDays.IsPositive() {
		res.Addf("usage_rules", "range", "rule %d: minimum increment must be positive", i)
	}
	return res
}

// CheckRequest applies the usage constraints to a leave request, collecting
// every violation.
func (r UsageRule) CheckRequest(req leave.Request) *validation.Result {
	res := validation.NewResult()

	if r.MaxConsecutiveDays != nil {
		if span := req.SpanDays(); span > *r.MaxConsecutiveDays {
			res.Addf("end_date", "max_consecutive_days",
				"%d consecutive days exceeds the policy limit of %d", span, *r.MaxConsecutiveDays)
		}
	}
	if r.AdvanceNoticeDays != nil && !req.MeetsAdvanceNotice(*r.AdvanceNoticeDays) {
		res.Addf("start_date", "advance_notice",
			"policy requires %d days of advance notice", *r.AdvanceNoticeDays)
	}
	if r.MinIncrementDays != nil && req.TotalDays.IsPositive() {
		increments := req.TotalDays.Div(*r.MinIncrementDays)
		if !increments.Equal(increments.Truncate(0)) {
			res.Addf("total_days", "min_increment",
				"leave must be taken in increments of %s days", r.MinIncrementDays.String())
		}
	}
	return res
}
