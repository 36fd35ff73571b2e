/*
engine.go - Policy application: matching, configuration checks, impact

MATCHING:
  Evaluate splits the question in two. Applicability (active, in window,
  group overlap) decides whether the policy is even in play; eligibility
  (the rule conjunction) decides whether this employee qualifies. An
  ineligible result carries EVERY failing rule's reason, not just the
  first, so an admin sees the full picture.

  FindBestLeavePolicyMatch keeps the applicable + eligible candidates for
  the leave type, then picks the highest Specificity. Ties keep the first
  candidate in input order, so callers control tie-breaking by ordering.

CONFIGURATION CHECKS:
  Two policies for the same leave type conflict when their group scopes can
  both capture the same employee (overlapping groups, or either is
  unrestricted). Coverage gaps are group x leave-type combinations no
  active policy reaches.
*/
package policy

import (
	"fmt"
	"time"

	"github.com/solomon-wilson/hrmis-sub001/timesheet"
)

// Engine evaluates policies against employees. It is stateless; the
// zero value is ready to use.
type Engine struct{}

// =============================================================================
// EVALUATION
// =============================================================================

// EligibilityResult is the outcome of evaluating one policy for one
// employee. Reasons is populated only when the policy applies but the
// employee fails eligibility.
type EligibilityResult struct {
	PolicyID   string
	Applicable bool
	Eligible   bool
	Reasons    []string
}

// Evaluate runs one leave policy against one employee as of a date.
func (Engine) Evaluate(p LeavePolicy, emp EmployeeGroupData, asOf time.Time) EligibilityResult {
	result := EligibilityResult{PolicyID: p.ID}

	if !p.InWindow(asOf) || !p.AppliesToAnyGroup(emp.Groups) {
		return result
	}
	result.Applicable = true

	for _, rule := range p.Eligibility {
		if !rule.Evaluate(emp.attributeFor(rule, asOf)) {
			result.Reasons = append(result.Reasons, ruleFailure(rule))
		}
	}
	result.Eligible = len(result.Reasons) == 0
	return result
}

func ruleFailure(r EligibilityRule) string {
	attr := string(r.Type)
	if r.Type == RuleCustom {
		attr = r.Attribute
	}
	return fmt.Sprintf("%s must be %s %s", attr, r.Operator, r.Value)
}

// FindBestLeavePolicyMatch selects the most specific applicable and
// eligible policy for the leave type. Returns ErrNoPolicyMatch when no
// candidate qualifies.
func (e Engine) FindBestLeavePolicyMatch(policies []LeavePolicy, leaveTypeID string, emp EmployeeGroupData, asOf time.Time) (LeavePolicy, error) {
	var best LeavePolicy
	found := false

	for _, p := range policies {
		if p.LeaveTypeID != leaveTypeID {
			continue
		}
		r := e.Evaluate(p, emp, asOf)
		if !r.Applicable || !r.Eligible {
			continue
		}
		// Strict comparison keeps the first candidate on ties.
		if !found || p.Specificity() > best.Specificity() {
			best = p
			found = true
		}
	}

	if !found {
		return LeavePolicy{}, ErrNoPolicyMatch
	}
	return best, nil
}

// OvertimeRulesFor resolves the calculation rules for an employee: the
// most specific applicable overtime policy, or the statutory defaults
// when none applies.
func (Engine) OvertimeRulesFor(policies []OvertimePolicy, emp EmployeeGroupData, asOf time.Time) timesheet.OvertimeRules {
	var best OvertimePolicy
	found := false

	for _, p := range policies {
		if !p.InWindow(asOf) || !p.AppliesToAnyGroup(emp.Groups) {
			continue
		}
		if !found || p.Specificity() > best.Specificity() {
			best = p
			found = true
		}
	}

	if !found {
		return timesheet.DefaultOvertimeRules()
	}
	return best.Rules()
}

// =============================================================================
// CONFIGURATION VALIDATION
// =============================================================================

// expectedLeaveTypes is the baseline set every group should be covered
// for. Coverage gaps are reported against this set.
var expectedLeaveTypes = []string{"vacation", "sick", "personal"}

// PolicyConflict flags two policies that can both capture the same
// employee for the same leave type.
type PolicyConflict struct {
	PolicyA     string
	PolicyB     string
	LeaveTypeID string
	Reason      string
}

// CoverageGap is a group x leave-type combination no active policy reaches.
type CoverageGap struct {
	Group       string
	LeaveTypeID string
}

// ConfigReport is the result of validating a policy set.
type ConfigReport struct {
	Conflicts []PolicyConflict
	Gaps      []CoverageGap
}

func (r ConfigReport) Valid() bool {
	return len(r.Conflicts) == 0 && len(r.Gaps) == 0
}

// ValidateConfiguration checks a policy set for overlapping scopes and for
// coverage gaps across the given groups, as of a date.
func (e Engine) ValidateConfiguration(policies []LeavePolicy, groups []string, asOf time.Time) ConfigReport {
	var report ConfigReport

	active := make([]LeavePolicy, 0, len(policies))
	for _, p := range policies {
		if p.InWindow(asOf) {
			active = append(active, p)
		}
	}

	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			a, b := active[i], active[j]
			if a.LeaveTypeID != b.LeaveTypeID {
				continue
			}
			if reason, overlap := scopesOverlap(a.Scope, b.Scope); overlap {
				report.Conflicts = append(report.Conflicts, PolicyConflict{
					PolicyA:     a.ID,
					PolicyB:     b.ID,
					LeaveTypeID: a.LeaveTypeID,
					Reason:      reason,
				})
			}
		}
	}

	for _, group := range groups {
		for _, lt := range expectedLeaveTypes {
			if !covered(active, group, lt) {
				report.Gaps = append(report.Gaps, CoverageGap{Group: group, LeaveTypeID: lt})
			}
		}
	}

	return report
}

func scopesOverlap(a, b Scope) (string, bool) {
	if a.Unrestricted() || b.Unrestricted() {
		return "an unrestricted policy overlaps every scope", true
	}
	for _, ga := range a.ApplicableGroups {
		for _, gb := range b.ApplicableGroups {
			if ga == gb {
				return fmt.Sprintf("both policies apply to group %q", ga), true
			}
		}
	}
	return "", false
}

func covered(policies []LeavePolicy, group, leaveTypeID string) bool {
	for _, p := range policies {
		if p.LeaveTypeID == leaveTypeID && p.AppliesToAnyGroup([]string{group}) {
			return true
		}
	}
	return false
}

// =============================================================================
// ADOPTION IMPACT
// =============================================================================

// ImpactReport estimates what adopting a policy would do to a population.
type ImpactReport struct {
	PolicyID       string
	TotalEmployees int
	Applicable     int
	Eligible       int
	Ineligible     []EligibilityResult
}

// AdoptionImpact evaluates a candidate policy against every employee and
// tallies who it would reach. Ineligible lists the applicable-but-failing
// results with their reasons.
func (e Engine) AdoptionImpact(p LeavePolicy, employees []EmployeeGroupData, asOf time.Time) ImpactReport {
	report := ImpactReport{PolicyID: p.ID, TotalEmployees: len(employees)}

	for _, emp := range employees {
		r := e.Evaluate(p, emp, asOf)
		if !r.Applicable {
			continue
		}
		report.Applicable++
		if r.Eligible {
			report.Eligible++
		} else {
			report.Ineligible = append(report.Ineligible, r)
		}
	}
	return report
}
