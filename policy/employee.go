/*
employee.go - The employee attributes policies evaluate against

Policies never see full personnel records; they evaluate this projection
of the attributes rules can reference. Tenure is derived from the hire
date at evaluation time so stored data never goes stale.
*/
package policy

import (
	"strconv"
	"time"
)

// EmployeeGroupData is the rule-visible projection of an employee.
type EmployeeGroupData struct {
	EmployeeID     string
	Department     string
	EmploymentType string
	HireDate       time.Time
	Groups         []string

	// Custom holds attributes referenced by CUSTOM rules, keyed by the
	// rule's Attribute field.
	Custom map[string]string
}

// TenureMonths is the number of whole months employed as of the given date.
func (e EmployeeGroupData) TenureMonths(asOf time.Time) int {
	if e.HireDate.IsZero() || asOf.Before(e.HireDate) {
		return 0
	}
	months := (asOf.Year()-e.HireDate.Year())*12 + int(asOf.Month()) - int(e.HireDate.Month())
	if asOf.Day() < e.HireDate.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// attributeFor resolves the employee-side value for an eligibility rule.
// Tenure is expressed in whole months so TENURE rule values are month
// counts.
func (e EmployeeGroupData) attributeFor(r EligibilityRule, asOf time.Time) string {
	switch r.Type {
	case RuleTenure:
		return strconv.Itoa(e.TenureMonths(asOf))
	case RuleEmploymentType:
		return e.EmploymentType
	case RuleDepartment:
		return e.Department
	case RuleCustom:
		return e.Custom[r.Attribute]
	}
	return ""
}
