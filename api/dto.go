/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

DATES:
  Clock timestamps use RFC 3339. Day-granular dates (leave requests,
  accruals) use YYYY-MM-DD.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/solomon-wilson/hrmis-sub001/leave"
	"github.com/solomon-wilson/hrmis-sub001/timesheet"
	"github.com/solomon-wilson/hrmis-sub001/validation"
)

const dateLayout = "2006-01-02"

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error      string                 `json:"error"`
	Details    string                 `json:"details,omitempty"`
	Violations []validation.Violation `json:"violations,omitempty"`
}

// =============================================================================
// TIME ENTRIES
// =============================================================================

type BreakDTO struct {
	ID              string  `json:"id"`
	Type            string  `json:"type"`
	StartTime       string  `json:"start_time"`
	EndTime         *string `json:"end_time,omitempty"`
	DurationMinutes int     `json:"duration_minutes"`
	Paid            bool    `json:"paid"`
}

type EntryDTO struct {
	ID            string     `json:"id"`
	EmployeeID    string     `json:"employee_id"`
	ClockIn       string     `json:"clock_in"`
	ClockOut      *string    `json:"clock_out,omitempty"`
	Status        string     `json:"status"`
	ManualEntry   bool       `json:"manual_entry"`
	Note          string     `json:"note,omitempty"`
	ApproverID    *string    `json:"approver_id,omitempty"`
	Breaks        []BreakDTO `json:"breaks"`
	TotalHours    string     `json:"total_hours"`
	RegularHours  string     `json:"regular_hours"`
	OvertimeHours string     `json:"overtime_hours"`
	DoubleHours   string     `json:"double_hours"`
}

type ClockInRequest struct {
	At string `json:"at,omitempty"` // RFC 3339; defaults to now
}

type ClockOutRequest struct {
	At string `json:"at,omitempty"`
}

type ManualEntryRequest struct {
	EmployeeID string `json:"employee_id"`
	ClockIn    string `json:"clock_in"`
	ClockOut   string `json:"clock_out"`
	Note       string `json:"note"`
}

type StartBreakRequest struct {
	Type string `json:"type"`
	At   string `json:"at,omitempty"`
	Paid bool   `json:"paid"`
}

type EndBreakRequest struct {
	At string `json:"at,omitempty"`
}

type ApproveEntryRequest struct {
	ApproverID string `json:"approver_id"`
}

// =============================================================================
// HOUR SUMMARIES
// =============================================================================

type BreakdownDTO struct {
	Total      string `json:"total"`
	Regular    string `json:"regular"`
	Overtime   string `json:"overtime"`
	DoubleTime string `json:"double_time"`
}

type DaySummaryDTO struct {
	Date  string       `json:"date"`
	Hours BreakdownDTO `json:"hours"`
}

type WeekSummaryDTO struct {
	WeekStart    string          `json:"week_start"`
	Days         []DaySummaryDTO `json:"days"`
	Hours        BreakdownDTO    `json:"hours"`
	Reclassified string          `json:"reclassified"`
}

type PayPeriodSummaryDTO struct {
	Start         string           `json:"start"`
	End           string           `json:"end"`
	Weeks         []WeekSummaryDTO `json:"weeks"`
	Hours         BreakdownDTO     `json:"hours"`
	WeightedHours string           `json:"weighted_hours"`
}

// =============================================================================
// LEAVE BALANCES AND LEDGER
// =============================================================================

type BalanceDTO struct {
	ID             string  `json:"id"`
	EmployeeID     string  `json:"employee_id"`
	LeaveTypeID    string  `json:"leave_type_id"`
	Current        string  `json:"current"`
	AccrualRate    string  `json:"accrual_rate"`
	Period         string  `json:"period"`
	MaxBalance     *string `json:"max_balance,omitempty"`
	CarryoverLimit *string `json:"carryover_limit,omitempty"`
	YearUsed       string  `json:"year_used"`
	YearAccrued    string  `json:"year_accrued"`
	LastAccrual    string  `json:"last_accrual_date"`
	NextAccrual    string  `json:"next_accrual_date"`
}

type TransactionDTO struct {
	ID          string `json:"id"`
	BalanceID   string `json:"balance_id"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
	RequestID   string `json:"request_id,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type CreateBalanceRequest struct {
	EmployeeID     string  `json:"employee_id"`
	LeaveTypeID    string  `json:"leave_type_id"`
	Current        string  `json:"current"`
	AccrualRate    string  `json:"accrual_rate"`
	Period         string  `json:"period"`
	MaxBalance     *string `json:"max_balance,omitempty"`
	CarryoverLimit *string `json:"carryover_limit,omitempty"`
	EffectiveDate  string  `json:"effective_date"`
}

type AccrueRequest struct {
	Amount string `json:"amount,omitempty"` // defaults to the balance's rate
	Date   string `json:"date,omitempty"`   // defaults to today
}

type AdjustRequest struct {
	Amount string `json:"amount"`
	Reason string `json:"reason"`
	Date   string `json:"date,omitempty"`
}

type ProjectionDTO struct {
	BalanceID string `json:"balance_id"`
	AsOf      string `json:"as_of"`
	Projected string `json:"projected"`
}

type CarryoverRequest struct {
	NewYearDate string `json:"new_year_date"`
}

type CarryoverDTO struct {
	OldBalanceID string `json:"old_balance_id"`
	NewBalanceID string `json:"new_balance_id"`
	CarriedOver  string `json:"carried_over"`
	Forfeited    string `json:"forfeited"`
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

type RequestDTO struct {
	ID          string  `json:"id"`
	EmployeeID  string  `json:"employee_id"`
	LeaveTypeID string  `json:"leave_type_id"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	TotalDays   string  `json:"total_days"`
	TotalHours  string  `json:"total_hours"`
	Reason      string  `json:"reason,omitempty"`
	Status      string  `json:"status"`
	SubmittedAt string  `json:"submitted_at"`
	ReviewerID  *string `json:"reviewer_id,omitempty"`
	ReviewNotes string  `json:"review_notes,omitempty"`

	Conflicts []ConflictDTO `json:"conflicts,omitempty"`
}

type ConflictDTO struct {
	RequestID string `json:"request_id"`
	Type      string `json:"type"`
}

type SubmitRequestRequest struct {
	LeaveTypeID string   `json:"leave_type_id"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	TotalDays   string   `json:"total_days"`
	Reason      string   `json:"reason,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

type ReviewRequest struct {
	ReviewerID string `json:"reviewer_id"`
	Notes      string `json:"notes,omitempty"`
}

// =============================================================================
// LEAVE TYPES AND POLICIES
// =============================================================================

type LeaveTypeDTO struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Code               string `json:"code"`
	Paid               bool   `json:"paid"`
	RequiresApproval   bool   `json:"requires_approval"`
	MaxConsecutiveDays *int   `json:"max_consecutive_days,omitempty"`
	AdvanceNoticeDays  *int   `json:"advance_notice_days,omitempty"`
	AllowsPartialDays  bool   `json:"allows_partial_days"`
	AccrualBased       bool   `json:"accrual_based"`
	Active             bool   `json:"active"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toEntryDTO(e timesheet.Entry) EntryDTO {
	dto := EntryDTO{
		ID:            e.ID,
		EmployeeID:    e.EmployeeID,
		ClockIn:       e.ClockIn.Format(time.RFC3339),
		Status:        string(e.Status),
		ManualEntry:   e.ManualEntry,
		Note:          e.Note,
		ApproverID:    e.ApproverID,
		Breaks:        make([]BreakDTO, len(e.Breaks)),
		TotalHours:    e.TotalHours.String(),
		RegularHours:  e.RegularHours.String(),
		OvertimeHours: e.OvertimeHours.String(),
		DoubleHours:   e.DoubleHours.String(),
	}
	if e.ClockOut != nil {
		v := e.ClockOut.Format(time.RFC3339)
		dto.ClockOut = &v
	}
	for i, b := range e.Breaks {
		dto.Breaks[i] = toBreakDTO(b)
	}
	return dto
}

func toBreakDTO(b timesheet.Break) BreakDTO {
	dto := BreakDTO{
		ID:              b.ID,
		Type:            string(b.Type),
		StartTime:       b.StartTime.Format(time.RFC3339),
		DurationMinutes: b.DurationMinutes,
		Paid:            b.Paid,
	}
	if b.EndTime != nil {
		v := b.EndTime.Format(time.RFC3339)
		dto.EndTime = &v
	}
	return dto
}

func toBreakdownDTO(b timesheet.Breakdown) BreakdownDTO {
	return BreakdownDTO{
		Total:      b.Total.String(),
		Regular:    b.Regular.String(),
		Overtime:   b.Overtime.String(),
		DoubleTime: b.DoubleTime.String(),
	}
}

func toBalanceDTO(b leave.Balance) BalanceDTO {
	dto := BalanceDTO{
		ID:          b.ID,
		EmployeeID:  b.EmployeeID,
		LeaveTypeID: b.LeaveTypeID,
		Current:     b.Current.String(),
		AccrualRate: b.AccrualRate.String(),
		Period:      string(b.Period),
		YearUsed:    b.YearUsed.String(),
		YearAccrued: b.YearAccrued.String(),
		LastAccrual: b.LastAccrualDate.Format(dateLayout),
		NextAccrual: b.NextAccrualDate().Format(dateLayout),
	}
	dto.MaxBalance = decimalPtrString(b.MaxBalance)
	dto.CarryoverLimit = decimalPtrString(b.CarryoverLimit)
	return dto
}

func toTransactionDTO(tx leave.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:          tx.ID,
		BalanceID:   tx.BalanceID,
		Type:        string(tx.Type),
		Amount:      tx.Amount.String(),
		Description: tx.Description,
		Date:        tx.Date.Format(dateLayout),
		RequestID:   tx.RequestID,
		CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
	}
}

func toRequestDTO(r leave.Request) RequestDTO {
	return RequestDTO{
		ID:          r.ID,
		EmployeeID:  r.EmployeeID,
		LeaveTypeID: r.LeaveTypeID,
		StartDate:   r.StartDate.Format(dateLayout),
		EndDate:     r.EndDate.Format(dateLayout),
		TotalDays:   r.TotalDays.String(),
		TotalHours:  r.TotalHours.String(),
		Reason:      r.Reason,
		Status:      string(r.Status),
		SubmittedAt: r.SubmittedAt.Format(time.RFC3339),
		ReviewerID:  r.ReviewerID,
		ReviewNotes: r.ReviewNotes,
	}
}

func toLeaveTypeDTO(lt leave.LeaveType) LeaveTypeDTO {
	return LeaveTypeDTO{
		ID:                 lt.ID,
		Name:               lt.Name,
		Code:               lt.Code,
		Paid:               lt.Paid,
		RequiresApproval:   lt.RequiresApproval,
		MaxConsecutiveDays: lt.MaxConsecutiveDays,
		AdvanceNoticeDays:  lt.AdvanceNoticeDays,
		AllowsPartialDays:  lt.AllowsPartialDays,
		AccrualBased:       lt.AccrualBased,
		Active:             lt.Active,
	}
}

func fromLeaveTypeDTO(dto LeaveTypeDTO) leave.LeaveType {
	return leave.LeaveType{
		ID:                 dto.ID,
		Name:               dto.Name,
		Code:               dto.Code,
		Paid:               dto.Paid,
		RequiresApproval:   dto.RequiresApproval,
		MaxConsecutiveDays: dto.MaxConsecutiveDays,
		AdvanceNoticeDays:  dto.AdvanceNoticeDays,
		AllowsPartialDays:  dto.AllowsPartialDays,
		AccrualBased:       dto.AccrualBased,
		Active:             dto.Active,
	}
}

func decimalPtrString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
