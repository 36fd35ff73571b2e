/*
entry.go - Time-entry aggregate operations

PURPOSE:
  Construction and lifecycle of the Entry aggregate. Every operation is
  copy-on-write: the receiver is never modified, a validated copy is
  returned. A failed operation leaves the input exactly as it was.

LIFECYCLE:
  NewEntry (clock-in)          -> ACTIVE
  NewManualEntry (back-fill)   -> PENDING_APPROVAL
  Entry.AddBreak / EndBreak    -> same status, breaks changed
  Entry.Complete (clock-out)   -> COMPLETED (derived hours set)
  Entry.Approve                -> COMPLETED (manual entries only)

VALIDATION:
  Shape problems (missing employee, unknown break type, end before start)
  are construction-time failures returned as *validation.Error. Sequencing
  problems introduced by a change (overlapping breaks, break outside the
  entry span, over-cap duration) are business-rule failures wrapping
  ErrBreakConflict. Either way the whole aggregate is re-validated after
  every change - an invalid break can never hide inside an entry.
*/
package timesheet

import (
	"fmt"
	"sort"
	"time"

	"github.com/solomon-wilson/hrmis-sub001/validation"
)

// =============================================================================
// CONSTRUCTION
// =============================================================================

// NewEntry starts an ACTIVE entry at the given clock-in time.
func NewEntry(id, employeeID string, clockIn time.Time) (Entry, error) {
	e := Entry{
		ID:         id,
		EmployeeID: employeeID,
		ClockIn:    clockIn,
		Status:     StatusActive,
	}
	if err := e.Validate().AsError(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// ManualEntryInput carries the data for a back-filled entry.
type ManualEntryInput struct {
	ID         string
	EmployeeID string
	ClockIn    time.Time
	ClockOut   time.Time
	Note       string
	Breaks     []Break
}

// NewManualEntry creates a PENDING_APPROVAL entry with both clock times set.
// Manual entries require an explanatory note.
func NewManualEntry(input ManualEntryInput) (Entry, error) {
	out := input.ClockOut
	e := Entry{
		ID:          input.ID,
		EmployeeID:  input.EmployeeID,
		ClockIn:     input.ClockIn,
		ClockOut:    &out,
		Breaks:      cloneBreaks(input.Breaks),
		Status:      StatusPendingApproval,
		ManualEntry: true,
		Note:        input.Note,
	}
	sortBreaks(e.Breaks)
	if err := e.Validate().AsError(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// =============================================================================
// AGGREGATE VALIDATION
// =============================================================================

// Validate checks the whole aggregate and returns every violation found.
func (e Entry) Validate() *validation.Result {
	res := validation.NewResult()

	if e.ID == "" {
		res.Add("id", "required", "entry id is required")
	}
	if e.EmployeeID == "" {
		res.Add("employee_id", "required", "employee id is required")
	}
	if e.ClockIn.IsZero() {
		res.Add("clock_in", "required", "clock-in time is required")
	}

	switch e.Status {
	case StatusActive:
		if e.ClockOut != nil {
			res.Add("clock_out", "status", "an active entry cannot have a clock-out time")
		}
	case StatusCompleted:
		if e.ClockOut == nil {
			res.Add("clock_out", "status", "a completed entry requires a clock-out time")
		}
	case StatusPendingApproval:
		if !e.ManualEntry {
			res.Add("status", "status", "only manual entries may be pending approval")
		}
	default:
		res.Addf("status", "enum", "unknown entry status %q", e.Status)
	}

	if e.ManualEntry && e.Note == "" {
		res.Add("note", "required", "manual entries require an explanatory note")
	}

	if e.ClockOut != nil {
		if !e.ClockOut.After(e.ClockIn) {
			res.Add("clock_out", "chronology", "clock-out must be after clock-in")
		} else if e.ClockOut.Sub(e.ClockIn) > maxEntrySpan {
			res.Add("clock_out", "span", "entry span exceeds 24 hours")
		}
	}

	e.validateBreaks(res)
	return res
}

func (e Entry) validateBreaks(res *validation.Result) {
	for i, b := range e.Breaks {
		field := fmt.Sprintf("breaks[%d]", i)

		if !b.Type.Known() {
			res.Addf(field, "enum", "unknown break type %q", b.Type)
			continue
		}
		if b.StartTime.IsZero() {
			res.Add(field, "required", "break start time is required")
			continue
		}
		if b.StartTime.Before(e.ClockIn) {
			res.Add(field, "bounds", "break starts before clock-in")
		}
		if b.EndTime == nil {
			if e.ClockOut != nil {
				res.Add(field, "bounds", "break never ended on a clocked-out entry")
			}
			continue
		}
		if !b.EndTime.After(b.StartTime) {
			res.Add(field, "chronology", "break end must be after break start")
		}
		if b.EndTime.After(time.Now()) {
			res.Add(field, "future", "break end time cannot be in the future")
		}
		if e.ClockOut != nil && b.EndTime.After(*e.ClockOut) {
			res.Add(field, "bounds", "break ends after clock-out")
		}
		if limit := b.Type.MaxDurationMinutes(); b.DurationMinutes > limit {
			res.Addf(field, "duration_cap", "%s break of %d minutes exceeds the %d minute cap",
				b.Type, b.DurationMinutes, limit)
		}
	}

	// Overlap scan; breaks are kept sorted by start time.
	for i := 1; i < len(e.Breaks); i++ {
		prev, cur := e.Breaks[i-1], e.Breaks[i]
		if prev.EndTime == nil || cur.StartTime.Before(*prev.EndTime) {
			res.Addf(fmt.Sprintf("breaks[%d]", i), "overlap",
				"break starting %s overlaps the previous break", cur.StartTime.Format(time.RFC3339))
		}
	}
}

// =============================================================================
// BREAK OPERATIONS
// =============================================================================

// AddBreak returns a copy of the entry with the break added. The whole
// aggregate is re-validated; sequencing problems wrap ErrBreakConflict,
// malformed break data surfaces as a validation error.
func (e Entry) AddBreak(b Break) (Entry, error) {
	if !b.Type.Known() {
		res := validation.NewResult()
		res.Addf("type", "enum", "unknown break type %q", b.Type)
		return Entry{}, res.AsError()
	}
	if b.EndTime != nil {
		b.DurationMinutes = int(b.EndTime.Sub(b.StartTime).Minutes())
	}
	b.EntryID = e.ID

	next := e
	next.Breaks = append(cloneBreaks(e.Breaks), b)
	sortBreaks(next.Breaks)

	if res := next.Validate(); !res.Valid() {
		return Entry{}, breakChangeError(res)
	}
	return next, nil
}

// EndBreak closes an open break at the given time and re-validates.
func (e Entry) EndBreak(breakID string, at time.Time) (Entry, error) {
	idx := -1
	for i, b := range e.Breaks {
		if b.ID == breakID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Entry{}, fmt.Errorf("%w: %s", ErrBreakNotFound, breakID)
	}
	if !e.Breaks[idx].Open() {
		return Entry{}, fmt.Errorf("%w: %s", ErrBreakAlreadyEnded, breakID)
	}

	next := e
	next.Breaks = cloneBreaks(e.Breaks)
	end := at
	next.Breaks[idx].EndTime = &end
	next.Breaks[idx].DurationMinutes = int(end.Sub(next.Breaks[idx].StartTime).Minutes())

	if res := next.Validate(); !res.Valid() {
		return Entry{}, breakChangeError(res)
	}
	return next, nil
}

// breakSequencingCodes are re-validation failures caused by how a break
// sits inside the entry rather than by malformed break data.
var breakSequencingCodes = map[string]bool{
	"bounds":       true,
	"overlap":      true,
	"duration_cap": true,
}

// breakChangeError maps a failed re-validation after a break change onto
// the error kinds: sequencing violations wrap ErrBreakConflict, anything
// else is returned as the validation error itself.
func breakChangeError(res *validation.Result) error {
	for _, v := range res.Violations {
		if breakSequencingCodes[v.Code] {
			return fmt.Errorf("%w: %s", ErrBreakConflict, v.Message)
		}
	}
	return res.AsError()
}

// OpenBreak returns the currently open break, if any.
func (e Entry) OpenBreak() *Break {
	for i := range e.Breaks {
		if e.Breaks[i].Open() {
			return &e.Breaks[i]
		}
	}
	return nil
}

// =============================================================================
// CLOCK-OUT AND APPROVAL
// =============================================================================

// Complete clocks the entry out at the given time, computing derived hours
// under the supplied rules. Fails if the entry is already clocked out or a
// break is still open.
func (e Entry) Complete(at time.Time, rules OvertimeRules) (Entry, error) {
	if e.ClockOut != nil {
		return Entry{}, ErrAlreadyClockedOut
	}
	if ob := e.OpenBreak(); ob != nil {
		return Entry{}, fmt.Errorf("%w: break %s", ErrOpenBreak, ob.ID)
	}

	next := e
	next.Breaks = cloneBreaks(e.Breaks)
	out := at
	next.ClockOut = &out
	next.Status = StatusCompleted

	if err := next.Validate().AsError(); err != nil {
		return Entry{}, err
	}
	return next.withDerivedHours(rules)
}

// Approve moves a manual PENDING_APPROVAL entry to COMPLETED, recording the
// approver. Derived hours are computed at approval time.
func (e Entry) Approve(approverID string, at time.Time, rules OvertimeRules) (Entry, error) {
	if !e.ManualEntry || e.Status != StatusPendingApproval {
		return Entry{}, ErrNotApprovable
	}

	next := e
	next.Breaks = cloneBreaks(e.Breaks)
	next.Status = StatusCompleted
	approver := approverID
	approvedAt := at
	next.ApproverID = &approver
	next.ApprovedAt = &approvedAt

	if err := next.Validate().AsError(); err != nil {
		return Entry{}, err
	}
	return next.withDerivedHours(rules)
}

func (e Entry) withDerivedHours(rules OvertimeRules) (Entry, error) {
	hours, err := e.WorkedHours()
	if err != nil {
		return Entry{}, err
	}
	split := rules.Split(hours)
	e.TotalHours = split.Total
	e.RegularHours = split.Regular
	e.OvertimeHours = split.Overtime
	e.DoubleHours = split.DoubleTime
	return e, nil
}

func sortBreaks(breaks []Break) {
	sort.Slice(breaks, func(i, j int) bool {
		return breaks[i].StartTime.Before(breaks[j].StartTime)
	})
}
