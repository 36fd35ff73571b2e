/*
request.go - Leave request lifecycle and conflict detection

STATE MACHINE:
  PENDING  -> APPROVED | DENIED | CANCELLED
  APPROVED -> CANCELLED          (only while the start date is still future)
  DENIED, CANCELLED              terminal

  Approve/Deny require a reviewer id; Deny additionally requires notes.
  Cancellation belongs to the requester and fails once leave has started.

CONFLICT DETECTION:
  Checked against a caller-supplied candidate set of the same employee's
  requests. Per candidate the FIRST matching class wins, in priority order:
    SAME_DATES  identical start and end
    OVERLAP     inclusive ranges intersect
    ADJACENT    ranges touch within one day
  The candidate set excludes this request's own id and anything DENIED or
  CANCELLED. The relation is symmetric: if A conflicts with B, checking B
  against [A] yields the same conflict type.

DATES:
  All request dates are day-granular and ranges are inclusive; a one-day
  request has end == start.
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/solomon-wilson/hrmis-sub001/validation"
)

// =============================================================================
// REQUEST - A requested absence
// =============================================================================

type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestApproved  RequestStatus = "APPROVED"
	RequestDenied    RequestStatus = "DENIED"
	RequestCancelled RequestStatus = "CANCELLED"
)

// Request is an immutable value; transitions return modified copies.
type Request struct {
	ID          string
	EmployeeID  string
	LeaveTypeID string

	StartDate  time.Time
	EndDate    time.Time
	TotalDays  decimal.Decimal
	TotalHours decimal.Decimal
	Reason     string

	Status      RequestStatus
	SubmittedAt time.Time

	ReviewerID  *string
	ReviewedAt  *time.Time
	ReviewNotes string

	Attachments []string
}

// NewRequest validates shape and returns a PENDING request.
//
// The start date may be at most one day in the past (late same-day
// submissions are tolerated); the end date may not precede the start.
func NewRequest(r Request) (Request, error) {
	res := validation.NewResult()

	if r.ID == "" {
		res.Add("id", "required", "request id is required")
	}
	if r.EmployeeID == "" {
		res.Add("employee_id", "required", "employee id is required")
	}
	if r.LeaveTypeID == "" {
		res.Add("leave_type_id", "required", "leave type id is required")
	}
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		res.Add("start_date", "required", "start and end dates are required")
	} else {
		if dayOf(r.EndDate).Before(dayOf(r.StartDate)) {
			res.Add("end_date", "chronology", "end date cannot precede start date")
		}
		if dayOf(r.StartDate).Before(dayOf(time.Now()).AddDate(0, 0, -1)) {
			res.Add("start_date", "past", "start date cannot be in the past")
		}
	}
	if !r.TotalDays.IsPositive() && !r.TotalHours.IsPositive() {
		res.Add("total_days", "range", "requested days or hours must be positive")
	}

	if err := res.AsError(); err != nil {
		return Request{}, err
	}

	r.Status = RequestPending
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = time.Now()
	}
	r.Attachments = append([]string(nil), r.Attachments...)
	return r, nil
}

// SpanDays is the inclusive calendar length of the request.
func (r Request) SpanDays() int {
	return int(dayOf(r.EndDate).Sub(dayOf(r.StartDate)).Hours()/24) + 1
}

// =============================================================================
// STATE MACHINE
// =============================================================================

// Approve moves a pending request to APPROVED, recording the reviewer.
func (r Request) Approve(reviewerID string, at time.Time) (Request, error) {
	if r.Status != RequestPending {
		return Request{}, &TransitionError{RequestID: r.ID, From: r.Status, To: RequestApproved}
	}
	if reviewerID == "" {
		return Request{}, ErrReviewerRequired
	}

	next := r
	reviewer := reviewerID
	reviewedAt := at
	next.Status = RequestApproved
	next.ReviewerID = &reviewer
	next.ReviewedAt = &reviewedAt
	return next, nil
}

// Deny moves a pending request to DENIED. Notes are mandatory so the
// requester always learns why.
func (r Request) Deny(reviewerID, notes string, at time.Time) (Request, error) {
	if r.Status != RequestPending {
		return Request{}, &TransitionError{RequestID: r.ID, From: r.Status, To: RequestDenied}
	}
	if reviewerID == "" {
		return Request{}, ErrReviewerRequired
	}
	if notes == "" {
		return Request{}, ErrNotesRequired
	}

	next := r
	reviewer := reviewerID
	reviewedAt := at
	next.Status = RequestDenied
	next.ReviewerID = &reviewer
	next.ReviewedAt = &reviewedAt
	next.ReviewNotes = notes
	return next, nil
}

// Cancel withdraws a PENDING or APPROVED request before its start date.
func (r Request) Cancel(at time.Time) (Request, error) {
	if r.Status != RequestPending && r.Status != RequestApproved {
		return Request{}, &TransitionError{RequestID: r.ID, From: r.Status, To: RequestCancelled}
	}
	if !dayOf(at).Before(dayOf(r.StartDate)) {
		return Request{}, ErrRequestStarted
	}

	next := r
	next.Status = RequestCancelled
	return next, nil
}

// =============================================================================
// CONFLICT DETECTION
// =============================================================================

type ConflictType string

const (
	ConflictSameDates ConflictType = "SAME_DATES"
	ConflictOverlap   ConflictType = "OVERLAP"
	ConflictAdjacent  ConflictType = "ADJACENT"
)

// Conflict pairs a candidate request with the detected conflict class.
type Conflict struct {
	RequestID string
	Type      ConflictType
}

// CheckDateConflict scans the candidate set for date conflicts with this
// request. Self and DENIED/CANCELLED candidates are skipped.
func (r Request) CheckDateConflict(candidates []Request) []Conflict {
	var conflicts []Conflict
	for _, c := range candidates {
		if c.ID == r.ID {
			continue
		}
		if c.Status == RequestDenied || c.Status == RequestCancelled {
			continue
		}
		if ct, ok := r.classifyConflict(c); ok {
			conflicts = append(conflicts, Conflict{RequestID: c.ID, Type: ct})
		}
	}
	return conflicts
}

func (r Request) classifyConflict(c Request) (ConflictType, bool) {
	rs, re := dayOf(r.StartDate), dayOf(r.EndDate)
	cs, ce := dayOf(c.StartDate), dayOf(c.EndDate)

	switch {
	case rs.Equal(cs) && re.Equal(ce):
		return ConflictSameDates, true
	case rangesIntersect(rs, re, cs, ce):
		return ConflictOverlap, true
	case withinOneDay(rs, re, cs, ce):
		return ConflictAdjacent, true
	}
	return "", false
}

// InBlackoutPeriod reports whether the request intersects any configured
// blackout window, returning the first match.
func (r Request) InBlackoutPeriod(periods []BlackoutPeriod) (BlackoutPeriod, bool) {
	for _, p := range periods {
		if p.contains(dayOf(r.StartDate), dayOf(r.EndDate)) {
			return p, true
		}
	}
	return BlackoutPeriod{}, false
}

// MeetsAdvanceNotice compares whole days between submission and start
// against the required minimum.
func (r Request) MeetsAdvanceNotice(requiredDays int) bool {
	notice := int(dayOf(r.StartDate).Sub(dayOf(r.SubmittedAt)).Hours() / 24)
	return notice >= requiredDays
}

// =============================================================================
// DATE HELPERS
// =============================================================================

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// rangesIntersect is the inclusive interval test shared by conflict and
// blackout checks.
func rangesIntersect(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// withinOneDay reports ranges that touch without intersecting: one ends
// exactly the day before the other starts.
func withinOneDay(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aEnd.AddDate(0, 0, 1).Equal(bStart) || bEnd.AddDate(0, 0, 1).Equal(aStart)
}
