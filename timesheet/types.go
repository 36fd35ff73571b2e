/*
Package timesheet models clock events and derives payroll-grade hours.

PURPOSE:
  This package contains the time-entry aggregate (a clock-in/clock-out span
  owning its breaks) and the pure calculation engine that turns one or many
  entries into regular, overtime, and double-time hours at daily, weekly,
  and pay-period granularity.

KEY CONCEPTS IN THIS FILE (types.go):
  - Break: an atomic pause inside an entry, with type-specific duration caps
  - Entry: the aggregate; owns its breaks exclusively
  - EntryStatus: ACTIVE (clocked in), COMPLETED, PENDING_APPROVAL (manual)

DESIGN PRINCIPLES:
  1. Immutability: every mutation returns a new Entry; breaks are copied
     wholesale, never shared
  2. Precision: decimal.Decimal for hour arithmetic, rounded to 2 places
     only at computation boundaries
  3. Whole-aggregate validation: every change re-validates the full entry,
     so a bad break can never survive inside a "valid" entry

SEE ALSO:
  - entry.go: aggregate operations (clock-out, breaks, approval)
  - calc.go: OvertimeRules and the per-entry tiering split
  - aggregate.go: daily / weekly / pay-period rollups
*/
package timesheet

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BREAK - Atomic pause inside a time entry
// =============================================================================

type BreakType string

const (
	BreakLunch    BreakType = "LUNCH"
	BreakShort    BreakType = "SHORT_BREAK"
	BreakPersonal BreakType = "PERSONAL"
)

// breakCaps is the maximum duration, in minutes, allowed per break type.
var breakCaps = map[BreakType]int{
	BreakLunch:    120,
	BreakShort:    30,
	BreakPersonal: 60,
}

// MaxDurationMinutes returns the cap for this break type, or 0 for an
// unknown type (which never validates).
func (bt BreakType) MaxDurationMinutes() int {
	return breakCaps[bt]
}

func (bt BreakType) Known() bool {
	_, ok := breakCaps[bt]
	return ok
}

// Break is one pause inside an entry. EndTime is nil while the break is
// still open; DurationMinutes is set when the break ends.
type Break struct {
	ID              string
	EntryID         string
	Type            BreakType
	StartTime       time.Time
	EndTime         *time.Time
	DurationMinutes int
	Paid            bool
}

// Open reports whether the break has not ended yet.
func (b Break) Open() bool {
	return b.EndTime == nil
}

// =============================================================================
// ENTRY - Clock-in/clock-out span owning zero or more breaks
// =============================================================================

type EntryStatus string

const (
	StatusActive          EntryStatus = "ACTIVE"
	StatusCompleted       EntryStatus = "COMPLETED"
	StatusPendingApproval EntryStatus = "PENDING_APPROVAL"
)

// Entry is the time-entry aggregate. Treat values as immutable: operations
// in entry.go return a modified copy and never touch the receiver.
type Entry struct {
	ID         string
	EmployeeID string
	ClockIn    time.Time
	ClockOut   *time.Time
	Breaks     []Break
	Status     EntryStatus

	// Manual entries are back-filled by a person rather than a clock
	// device, require a note, and enter PENDING_APPROVAL.
	ManualEntry bool
	Note        string

	ApproverID *string
	ApprovedAt *time.Time

	// Derived on clock-out / approval.
	TotalHours    decimal.Decimal
	RegularHours  decimal.Decimal
	OvertimeHours decimal.Decimal
	DoubleHours   decimal.Decimal
}

// cloneBreaks copies the break slice so a derived entry never aliases the
// original's children.
func cloneBreaks(in []Break) []Break {
	if in == nil {
		return nil
	}
	out := make([]Break, len(in))
	copy(out, in)
	return out
}

// maxEntrySpan is the longest a single entry may run.
const maxEntrySpan = 24 * time.Hour
