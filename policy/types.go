/*
Package policy defines leave and overtime policies and the engine that
matches them to employees.

PURPOSE:
  Policies are declarative configuration: WHO a policy applies to (scope +
  eligibility rules) and WHAT it enforces (accrual and usage rules, or
  overtime thresholds). The application engine in engine.go selects the
  best match for an employee, detects conflicting configuration, and
  computes adoption impact.

KEY CONCEPTS IN THIS FILE (types.go):
  - Scope: activation window + applicable groups, shared by both policy
    kinds through embedding (no inheritance; the two kinds share nothing
    beyond applicability)
  - LeavePolicy / OvertimePolicy: the two concrete kinds
  - Policy: a tagged union for transporting mixed policy sets

SEE ALSO:
  - rules.go: eligibility / accrual / usage rule objects
  - engine.go: matching, conflict detection, impact analysis
*/
package policy

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/solomon-wilson/hrmis-sub001/timesheet"
	"github.com/solomon-wilson/hrmis-sub001/validation"
)

// =============================================================================
// SCOPE - Activation window and group applicability
// =============================================================================

// Scope is embedded by both policy kinds. An empty ApplicableGroups list
// means the policy is universal.
type Scope struct {
	EffectiveDate    time.Time
	EndDate          *time.Time
	ApplicableGroups []string
	Active           bool
}

// InWindow reports whether the policy is active at the given date.
func (s Scope) InWindow(at time.Time) bool {
	if !s.Active {
		return false
	}
	if !s.EffectiveDate.IsZero() && at.Before(s.EffectiveDate) {
		return false
	}
	if s.EndDate != nil && at.After(*s.EndDate) {
		return false
	}
	return true
}

// AppliesToAnyGroup reports whether any of the employee's groups match.
func (s Scope) AppliesToAnyGroup(groups []string) bool {
	if len(s.ApplicableGroups) == 0 {
		return true // universal
	}
	for _, pg := range s.ApplicableGroups {
		for _, g := range groups {
			if pg == g {
				return true
			}
		}
	}
	return false
}

// Unrestricted reports whether the scope applies to every group.
func (s Scope) Unrestricted() bool {
	return len(s.ApplicableGroups) == 0
}

// =============================================================================
// LEAVE POLICY
// =============================================================================

type LeavePolicy struct {
	ID          string
	Name        string
	LeaveTypeID string
	Scope

	Eligibility []EligibilityRule
	Accrual     []AccrualRule
	Usage       []UsageRule
}

// NewLeavePolicy validates the policy and its nested rules at construction
// and copies the rule slices so the aggregate owns its children.
func NewLeavePolicy(p LeavePolicy) (LeavePolicy, error) {
	res := validation.NewResult()

	if p.ID == "" {
		res.Add("id", "required", "policy id is required")
	}
	if p.Name == "" {
		res.Add("name", "required", "policy name is required")
	}
	if p.LeaveTypeID == "" {
		res.Add("leave_type_id", "required", "leave type id is required")
	}
	for i, r := range p.Eligibility {
		res.Merge(r.validate(i))
	}
	for i, r := range p.Accrual {
		res.Merge(r.validate(i))
	}
	for i, r := range p.Usage {
		res.Merge(r.validate(i))
	}

	if err := res.AsError(); err != nil {
		return LeavePolicy{}, err
	}

	p.Eligibility = append([]EligibilityRule(nil), p.Eligibility...)
	p.Accrual = append([]AccrualRule(nil), p.Accrual...)
	p.Usage = append([]UsageRule(nil), p.Usage...)
	p.ApplicableGroups = append([]string(nil), p.ApplicableGroups...)
	return p, nil
}

// Specificity scores how targeted the policy is: rule count plus group
// count. Higher wins during matching; ties keep input order.
func (p LeavePolicy) Specificity() int {
	return len(p.Eligibility) + len(p.ApplicableGroups)
}

// =============================================================================
// OVERTIME POLICY
// =============================================================================

type OvertimePolicy struct {
	ID   string
	Name string
	Scope

	DailyOvertimeThreshold  decimal.Decimal
	WeeklyOvertimeThreshold decimal.Decimal
	OvertimeMultiplier      decimal.Decimal
	DoubleTimeThreshold     *decimal.Decimal
	DoubleTimeMultiplier    decimal.Decimal
}

// NewOvertimePolicy validates threshold ordering at construction.
func NewOvertimePolicy(p OvertimePolicy) (OvertimePolicy, error) {
	res := validation.NewResult()

	if p.ID == "" {
		res.Add("id", "required", "policy id is required")
	}
	if !p.DailyOvertimeThreshold.IsPositive() {
		res.Add("daily_overtime_threshold", "range", "daily threshold must be positive")
	}
	if !p.WeeklyOvertimeThreshold.IsPositive() {
		res.Add("weekly_overtime_threshold", "range", "weekly threshold must be positive")
	}
	if p.OvertimeMultiplier.LessThan(decimal.NewFromInt(1)) {
		res.Add("overtime_multiplier", "range", "overtime multiplier must be at least 1")
	}
	if p.DoubleTimeThreshold != nil && !p.DoubleTimeThreshold.GreaterThan(p.DailyOvertimeThreshold) {
		res.Add("double_time_threshold", "range", "double-time threshold must exceed the daily threshold")
	}

	if err := res.AsError(); err != nil {
		return OvertimePolicy{}, err
	}
	p.ApplicableGroups = append([]string(nil), p.ApplicableGroups...)
	return p, nil
}

// Rules converts the policy into the calculation engine's configuration.
func (p OvertimePolicy) Rules() timesheet.OvertimeRules {
	rules := timesheet.OvertimeRules{
		DailyOvertimeThreshold:  p.DailyOvertimeThreshold,
		WeeklyOvertimeThreshold: p.WeeklyOvertimeThreshold,
		OvertimeMultiplier:      p.OvertimeMultiplier,
		DoubleTimeMultiplier:    p.DoubleTimeMultiplier,
	}
	if p.DoubleTimeThreshold != nil {
		dt := *p.DoubleTimeThreshold
		rules.DoubleTimeThreshold = &dt
	}
	if rules.DoubleTimeMultiplier.IsZero() {
		rules.DoubleTimeMultiplier = decimal.NewFromInt(2)
	}
	return rules
}

// Specificity mirrors LeavePolicy scoring; overtime policies carry no
// eligibility rules, so only the group count counts.
func (p OvertimePolicy) Specificity() int {
	return len(p.ApplicableGroups)
}

// =============================================================================
// TAGGED UNION - For transporting mixed policy sets
// =============================================================================

type Kind string

const (
	KindLeave    Kind = "leave"
	KindOvertime Kind = "overtime"
)

// Policy tags exactly one of the two concrete kinds.
type Policy struct {
	Kind     Kind
	Leave    *LeavePolicy
	Overtime *OvertimePolicy
}

func ForLeave(p LeavePolicy) Policy {
	return Policy{Kind: KindLeave, Leave: &p}
}

func ForOvertime(p OvertimePolicy) Policy {
	return Policy{Kind: KindOvertime, Overtime: &p}
}
