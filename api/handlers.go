/*
handlers.go - HTTP API handlers for the time accounting system

PURPOSE:
  Exposes time entries, hour summaries, leave balances, leave requests,
  and policies via REST. Handles HTTP request/response and JSON; all
  business decisions live in the domain packages.

ENDPOINTS:
  Time entries:
    POST   /api/employees/{id}/clock-in
    POST   /api/employees/{id}/clock-out
    GET    /api/employees/{id}/entries
    POST   /api/entries                      Manual (back-filled) entry
    GET    /api/entries/{id}
    POST   /api/entries/{id}/breaks          Start a break
    POST   /api/entries/{id}/breaks/{breakID}/end
    POST   /api/entries/{id}/approve         Approve a manual entry

  Summaries:
    GET    /api/employees/{id}/summaries/daily
    GET    /api/employees/{id}/summaries/weekly
    GET    /api/employees/{id}/summaries/pay-period

  Balances and ledger:
    POST   /api/balances
    GET    /api/employees/{id}/balances
    GET    /api/balances/{id}
    GET    /api/balances/{id}/transactions
    GET    /api/balances/{id}/projection
    POST   /api/balances/{id}/accrue
    POST   /api/balances/{id}/adjust
    POST   /api/balances/{id}/carryover

  Leave requests:
    POST   /api/employees/{id}/requests
    GET    /api/requests
    GET    /api/requests/{id}
    POST   /api/requests/{id}/approve
    POST   /api/requests/{id}/deny
    POST   /api/requests/{id}/cancel

  Reference data and policies:
    GET    /api/leave-types
    POST   /api/leave-types
    GET    /api/policies/leave
    POST   /api/policies/leave
    GET    /api/policies/overtime
    POST   /api/policies/overtime
    POST   /api/policies/validate
    POST   /api/policies/impact

ERROR HANDLING:
  - 400: shape validation failures (violations listed)
  - 404: record not found
  - 409: conflicts (active entry exists, date conflicts, duplicates)
  - 422: business-rule failures (insufficient balance, bad transition)
  - 500: everything else

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/solomon-wilson/hrmis-sub001/leave"
	"github.com/solomon-wilson/hrmis-sub001/policy"
	"github.com/solomon-wilson/hrmis-sub001/store"
	"github.com/solomon-wilson/hrmis-sub001/timesheet"
	"github.com/solomon-wilson/hrmis-sub001/validation"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  store.Store
	Engine policy.Engine

	// now is swappable for tests.
	now func() time.Time
}

// NewHandler creates a new handler backed by the given store.
func NewHandler(st store.Store) *Handler {
	return &Handler{Store: st, now: time.Now}
}

// rulesFor resolves the overtime rules for an employee: the most specific
// applicable overtime policy, or the statutory defaults.
func (h *Handler) rulesFor(r *http.Request, employeeID string) timesheet.OvertimeRules {
	policies, err := h.Store.ListOvertimePolicies(r.Context())
	if err != nil {
		return timesheet.DefaultOvertimeRules()
	}
	emp := policy.EmployeeGroupData{EmployeeID: employeeID}
	return h.Engine.OvertimeRulesFor(policies, emp, h.now())
}

// =============================================================================
// TIME ENTRY HANDLERS
// =============================================================================

// ClockIn opens an ACTIVE entry for the employee.
// POST /api/employees/{id}/clock-in
func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	var req ClockInRequest
	decodeOptionalBody(r, &req)
	at, err := parseTimeOrNow(req.At, h.now)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid at timestamp (use RFC 3339)", err)
		return
	}

	if _, active, err := h.Store.ActiveEntry(r.Context(), employeeID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check active entry", err)
		return
	} else if active {
		writeError(w, http.StatusConflict, "Employee is already clocked in", nil)
		return
	}

	entry, err := timesheet.NewEntry(uuid.NewString(), employeeID, at)
	if err != nil {
		h.writeDomainError(w, "Invalid clock-in", err)
		return
	}
	if err := h.Store.SaveEntry(r.Context(), entry); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(entry))
}

// ClockOut completes the employee's active entry.
// POST /api/employees/{id}/clock-out
func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	var req ClockOutRequest
	decodeOptionalBody(r, &req)
	at, err := parseTimeOrNow(req.At, h.now)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid at timestamp (use RFC 3339)", err)
		return
	}

	entry, active, err := h.Store.ActiveEntry(r.Context(), employeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load active entry", err)
		return
	}
	if !active {
		writeError(w, http.StatusNotFound, "Employee is not clocked in", nil)
		return
	}

	completed, err := entry.Complete(at, h.rulesFor(r, employeeID))
	if err != nil {
		h.writeDomainError(w, "Clock-out failed", err)
		return
	}
	if err := h.Store.SaveEntry(r.Context(), completed); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(completed))
}

// CreateManualEntry back-fills a completed span as PENDING_APPROVAL.
// POST /api/entries
func (h *Handler) CreateManualEntry(w http.ResponseWriter, r *http.Request) {
	var req ManualEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	clockIn, err := time.Parse(time.RFC3339, req.ClockIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid clock_in (use RFC 3339)", err)
		return
	}
	clockOut, err := time.Parse(time.RFC3339, req.ClockOut)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid clock_out (use RFC 3339)", err)
		return
	}

	entry, err := timesheet.NewManualEntry(timesheet.ManualEntryInput{
		ID:         uuid.NewString(),
		EmployeeID: req.EmployeeID,
		ClockIn:    clockIn,
		ClockOut:   clockOut,
		Note:       req.Note,
	})
	if err != nil {
		h.writeDomainError(w, "Invalid manual entry", err)
		return
	}
	if err := h.Store.SaveEntry(r.Context(), entry); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(entry))
}

// GetEntry returns a single entry with its breaks.
// GET /api/entries/{id}
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Store.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry))
}

// ListEntries returns an employee's entries, optionally bounded by
// from/to query parameters (RFC 3339, on clock-in).
// GET /api/employees/{id}/entries
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	f := store.EntryFilter{EmployeeID: chi.URLParam(r, "id")}

	var err error
	if f.From, f.To, err = parseRange(r); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from/to (use RFC 3339)", err)
		return
	}

	entries, err := h.Store.ListEntries(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}

	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// StartBreak opens a break on an entry.
// POST /api/entries/{id}/breaks
func (h *Handler) StartBreak(w http.ResponseWriter, r *http.Request) {
	var req StartBreakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	at, err := parseTimeOrNow(req.At, h.now)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid at timestamp (use RFC 3339)", err)
		return
	}

	entry, err := h.Store.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get entry", err)
		return
	}

	updated, err := entry.AddBreak(timesheet.Break{
		ID:        uuid.NewString(),
		Type:      timesheet.BreakType(req.Type),
		StartTime: at,
		Paid:      req.Paid,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to start break", err)
		return
	}
	if err := h.Store.SaveEntry(r.Context(), updated); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(updated))
}

// EndBreak closes an open break.
// POST /api/entries/{id}/breaks/{breakID}/end
func (h *Handler) EndBreak(w http.ResponseWriter, r *http.Request) {
	var req EndBreakRequest
	decodeOptionalBody(r, &req)
	at, err := parseTimeOrNow(req.At, h.now)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid at timestamp (use RFC 3339)", err)
		return
	}

	entry, err := h.Store.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get entry", err)
		return
	}

	updated, err := entry.EndBreak(chi.URLParam(r, "breakID"), at)
	if err != nil {
		h.writeDomainError(w, "Failed to end break", err)
		return
	}
	if err := h.Store.SaveEntry(r.Context(), updated); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(updated))
}

// ApproveEntry approves a manual entry, computing its hours.
// POST /api/entries/{id}/approve
func (h *Handler) ApproveEntry(w http.ResponseWriter, r *http.Request) {
	var req ApproveEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ApproverID == "" {
		writeError(w, http.StatusBadRequest, "approver_id is required", nil)
		return
	}

	entry, err := h.Store.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get entry", err)
		return
	}

	approved, err := entry.Approve(req.ApproverID, h.now(), h.rulesFor(r, entry.EmployeeID))
	if err != nil {
		h.writeDomainError(w, "Approval failed", err)
		return
	}
	if err := h.Store.SaveEntry(r.Context(), approved); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(approved))
}

// =============================================================================
// SUMMARY HANDLERS
// =============================================================================

// DailySummary returns tiered per-day hours for an employee.
// GET /api/employees/{id}/summaries/daily
func (h *Handler) DailySummary(w http.ResponseWriter, r *http.Request) {
	entries, rules, ok := h.loadSummaryInput(w, r)
	if !ok {
		return
	}

	days := timesheet.DailySummaries(entries, rules)
	dtos := make([]DaySummaryDTO, len(days))
	for i, d := range days {
		dtos[i] = DaySummaryDTO{Date: d.Date.Format(dateLayout), Hours: toBreakdownDTO(d.Hours)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// WeeklySummary returns Sunday-start weekly hours with reclassification.
// GET /api/employees/{id}/summaries/weekly
func (h *Handler) WeeklySummary(w http.ResponseWriter, r *http.Request) {
	entries, rules, ok := h.loadSummaryInput(w, r)
	if !ok {
		return
	}

	weeks := timesheet.WeeklySummaries(entries, rules)
	dtos := make([]WeekSummaryDTO, len(weeks))
	for i, wk := range weeks {
		dtos[i] = toWeekSummaryDTO(wk)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// PayPeriodSummary returns week-bucketed hours for an arbitrary period.
// GET /api/employees/{id}/summaries/pay-period?start=...&end=...
func (h *Handler) PayPeriodSummary(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	start, err := time.Parse(dateLayout, r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date (use YYYY-MM-DD)", err)
		return
	}
	end, err := time.Parse(dateLayout, r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date (use YYYY-MM-DD)", err)
		return
	}

	entries, err := h.Store.ListEntries(r.Context(), store.EntryFilter{
		EmployeeID: employeeID,
		From:       start,
		To:         end.AddDate(0, 0, 1),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}

	rules := h.rulesFor(r, employeeID)
	period := timesheet.PayPeriodHours(entries, start, end, rules)

	dto := PayPeriodSummaryDTO{
		Start:         period.Start.Format(dateLayout),
		End:           period.End.Format(dateLayout),
		Weeks:         make([]WeekSummaryDTO, len(period.Weeks)),
		Hours:         toBreakdownDTO(period.Hours),
		WeightedHours: rules.WeightedHours(period.Hours).String(),
	}
	for i, wk := range period.Weeks {
		dto.Weeks[i] = toWeekSummaryDTO(wk)
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) loadSummaryInput(w http.ResponseWriter, r *http.Request) ([]timesheet.Entry, timesheet.OvertimeRules, bool) {
	employeeID := chi.URLParam(r, "id")

	f := store.EntryFilter{EmployeeID: employeeID}
	var err error
	if f.From, f.To, err = parseRange(r); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from/to (use RFC 3339)", err)
		return nil, timesheet.OvertimeRules{}, false
	}

	entries, err := h.Store.ListEntries(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return nil, timesheet.OvertimeRules{}, false
	}
	return entries, h.rulesFor(r, employeeID), true
}

func toWeekSummaryDTO(wk timesheet.WeekSummary) WeekSummaryDTO {
	dto := WeekSummaryDTO{
		WeekStart:    wk.WeekStart.Format(dateLayout),
		Days:         make([]DaySummaryDTO, len(wk.Days)),
		Hours:        toBreakdownDTO(wk.Hours),
		Reclassified: wk.Reclassified.Overtime.String(),
	}
	for i, d := range wk.Days {
		dto.Days[i] = DaySummaryDTO{Date: d.Date.Format(dateLayout), Hours: toBreakdownDTO(d.Hours)}
	}
	return dto
}

// =============================================================================
// BALANCE HANDLERS
// =============================================================================

// CreateBalance opens a balance for an employee and leave type.
// POST /api/balances
func (h *Handler) CreateBalance(w http.ResponseWriter, r *http.Request) {
	var req CreateBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	effective, err := time.Parse(dateLayout, req.EffectiveDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid effective_date (use YYYY-MM-DD)", err)
		return
	}

	b := leave.Balance{
		ID:              uuid.NewString(),
		EmployeeID:      req.EmployeeID,
		LeaveTypeID:     req.LeaveTypeID,
		Current:         parseDecimalOrZero(req.Current),
		AccrualRate:     parseDecimalOrZero(req.AccrualRate),
		Period:          leave.AccrualPeriod(req.Period),
		LastAccrualDate: effective,
		EffectiveDate:   effective,
	}
	if req.MaxBalance != nil {
		d := parseDecimalOrZero(*req.MaxBalance)
		b.MaxBalance = &d
	}
	if req.CarryoverLimit != nil {
		d := parseDecimalOrZero(*req.CarryoverLimit)
		b.CarryoverLimit = &d
	}

	balance, err := leave.NewBalance(b)
	if err != nil {
		h.writeDomainError(w, "Invalid balance", err)
		return
	}
	if err := h.Store.SaveBalance(r.Context(), balance); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save balance", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBalanceDTO(balance))
}

// ListBalances returns all of an employee's balances.
// GET /api/employees/{id}/balances
func (h *Handler) ListBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.Store.ListBalances(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list balances", err)
		return
	}

	dtos := make([]BalanceDTO, len(balances))
	for i, b := range balances {
		dtos[i] = toBalanceDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetBalance returns one balance snapshot.
// GET /api/balances/{id}
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	b, err := h.Store.GetBalance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(b))
}

// GetTransactions returns a balance's ledger, oldest first.
// GET /api/balances/{id}/transactions
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Store.ListTransactions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}

	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetProjection estimates a balance at a future date.
// GET /api/balances/{id}/projection?as_of=YYYY-MM-DD
func (h *Handler) GetProjection(w http.ResponseWriter, r *http.Request) {
	asOf, err := time.Parse(dateLayout, r.URL.Query().Get("as_of"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
		return
	}

	b, err := h.Store.GetBalance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, ProjectionDTO{
		BalanceID: b.ID,
		AsOf:      asOf.Format(dateLayout),
		Projected: b.ProjectedBalance(asOf).String(),
	})
}

// Accrue applies one accrual to a balance. Amount defaults to the
// balance's configured rate.
// POST /api/balances/{id}/accrue
func (h *Handler) Accrue(w http.ResponseWriter, r *http.Request) {
	var req AccrueRequest
	decodeOptionalBody(r, &req)

	b, err := h.Store.GetBalance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get balance", err)
		return
	}

	amount := b.AccrualRate
	if req.Amount != "" {
		amount = parseDecimalOrZero(req.Amount)
	}
	date, err := parseDateOrToday(req.Date, h.now)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}

	next, tx, err := b.ApplyAccrual(uuid.NewString(), amount, date)
	if err != nil {
		h.writeDomainError(w, "Accrual failed", err)
		return
	}
	if err := h.persistBalanceChange(r, next, tx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to persist accrual", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(next))
}

// Adjust applies a signed manual correction.
// POST /api/balances/{id}/adjust
func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req AdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Reason == "" {
		writeError(w, http.StatusBadRequest, "reason is required", nil)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	date, err := parseDateOrToday(req.Date, h.now)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}

	b, err := h.Store.GetBalance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get balance", err)
		return
	}

	next, tx, err := b.ApplyAdjustment(uuid.NewString(), amount, date, req.Reason)
	if err != nil {
		h.writeDomainError(w, "Adjustment failed", err)
		return
	}
	if err := h.persistBalanceChange(r, next, tx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to persist adjustment", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(next))
}

// Carryover closes the balance's year, spawning a new snapshot seeded
// with the carryover amount.
// POST /api/balances/{id}/carryover
func (h *Handler) Carryover(w http.ResponseWriter, r *http.Request) {
	var req CarryoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	newYearDate, err := time.Parse(dateLayout, req.NewYearDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid new_year_date (use YYYY-MM-DD)", err)
		return
	}

	b, err := h.Store.GetBalance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get balance", err)
		return
	}

	next, tx, err := b.ApplyYearEndCarryover(uuid.NewString(), uuid.NewString(), newYearDate)
	if err != nil {
		h.writeDomainError(w, "Carryover failed", err)
		return
	}
	if err := h.persistBalanceChange(r, next, tx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to persist carryover", err)
		return
	}

	writeJSON(w, http.StatusOK, CarryoverDTO{
		OldBalanceID: b.ID,
		NewBalanceID: next.ID,
		CarriedOver:  b.CarryoverAmount().String(),
		Forfeited:    b.Forfeiture().String(),
	})
}

// persistBalanceChange saves the new snapshot and, when present, its
// ledger line. A zero-value transaction (fully capped accrual) produces
// no ledger line.
func (h *Handler) persistBalanceChange(r *http.Request, b leave.Balance, tx leave.Transaction) error {
	if err := h.Store.SaveBalance(r.Context(), b); err != nil {
		return err
	}
	if tx.ID == "" {
		return nil
	}
	return h.Store.AppendTransaction(r.Context(), tx)
}

// =============================================================================
// LEAVE REQUEST HANDLERS
// =============================================================================

// SubmitRequest validates and stores a leave request. Overlapping or
// identical date ranges against existing requests are rejected; adjacency
// is reported back as advisory. Types that do not require approval are
// auto-approved, which applies usage immediately.
// POST /api/employees/{id}/requests
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	var req SubmitRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date (use YYYY-MM-DD)", err)
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date (use YYYY-MM-DD)", err)
		return
	}

	request := leave.Request{
		ID:          uuid.NewString(),
		EmployeeID:  employeeID,
		LeaveTypeID: req.LeaveTypeID,
		StartDate:   start,
		EndDate:     end,
		Reason:      req.Reason,
		SubmittedAt: h.now(),
		Attachments: req.Attachments,
	}
	if req.TotalDays != "" {
		request.TotalDays = parseDecimalOrZero(req.TotalDays)
	}

	// Shape first, then existence checks, then business rules.
	request, err = leave.NewRequest(request)
	if err != nil {
		h.writeDomainError(w, "Invalid request", err)
		return
	}
	if request.TotalDays.IsZero() {
		request.TotalDays = decimal.NewFromInt(int64(request.SpanDays()))
	}

	lt, err := h.Store.GetLeaveType(r.Context(), request.LeaveTypeID)
	if err != nil {
		h.writeDomainError(w, "Unknown leave type", err)
		return
	}

	candidates, err := h.Store.ListRequests(r.Context(), store.RequestFilter{EmployeeID: employeeID})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load existing requests", err)
		return
	}

	conflicts := request.CheckDateConflict(candidates)
	var advisory []ConflictDTO
	for _, c := range conflicts {
		if c.Type == leave.ConflictAdjacent {
			advisory = append(advisory, ConflictDTO{RequestID: c.RequestID, Type: string(c.Type)})
			continue
		}
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:   "Request conflicts with an existing request",
			Details: string(c.Type) + " with " + c.RequestID,
		})
		return
	}

	available := decimal.Zero
	if lt.AccrualBased {
		b, err := h.Store.FindBalance(r.Context(), employeeID, request.LeaveTypeID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusInternalServerError, "Failed to load balance", err)
			return
		}
		if err == nil {
			available = b.Current
		}
	}

	if res := lt.ValidateRequest(request, available); !res.Valid() {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:      "Request violates leave type rules",
			Violations: res.Violations,
		})
		return
	}

	if err := h.checkPolicyRules(r, request); err != nil {
		h.writeDomainError(w, "Request violates policy rules", err)
		return
	}

	if err := h.Store.SaveRequest(r.Context(), request); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save request", err)
		return
	}

	if !lt.RequiresApproval {
		approved, err := h.approveAndDeduct(r, request, lt, "auto")
		if err != nil {
			h.writeDomainError(w, "Auto-approval failed", err)
			return
		}
		request = approved
	}

	dto := toRequestDTO(request)
	dto.Conflicts = advisory
	writeJSON(w, http.StatusCreated, dto)
}

// checkPolicyRules applies the usage rules of the best-matching leave
// policy, when one exists. No matching policy means no extra constraints.
func (h *Handler) checkPolicyRules(r *http.Request, request leave.Request) error {
	policies, err := h.Store.ListLeavePolicies(r.Context())
	if err != nil || len(policies) == 0 {
		return err
	}

	emp := policy.EmployeeGroupData{EmployeeID: request.EmployeeID}
	match, err := h.Engine.FindBestLeavePolicyMatch(policies, request.LeaveTypeID, emp, h.now())
	if errors.Is(err, policy.ErrNoPolicyMatch) {
		return nil
	}
	if err != nil {
		return err
	}

	res := validation.NewResult()
	for _, rule := range match.Usage {
		res.Merge(rule.CheckRequest(request))
	}
	return res.AsError()
}

// GetRequest returns one request.
// GET /api/requests/{id}
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	request, err := h.Store.GetRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(request))
}

// ListRequests returns requests filtered by employee_id and status query
// parameters.
// GET /api/requests
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	f := store.RequestFilter{
		EmployeeID: r.URL.Query().Get("employee_id"),
		Status:     leave.RequestStatus(r.URL.Query().Get("status")),
	}

	requests, err := h.Store.ListRequests(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}

	dtos := make([]RequestDTO, len(requests))
	for i, req := range requests {
		dtos[i] = toRequestDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ApproveRequest approves a pending request and deducts the balance for
// accrual-based leave types.
// POST /api/requests/{id}/approve
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	var review ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	request, err := h.Store.GetRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get request", err)
		return
	}
	lt, err := h.Store.GetLeaveType(r.Context(), request.LeaveTypeID)
	if err != nil {
		h.writeDomainError(w, "Unknown leave type", err)
		return
	}

	approved, err := h.approveAndDeduct(r, request, lt, review.ReviewerID)
	if err != nil {
		h.writeDomainError(w, "Approval failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(approved))
}

// approveAndDeduct runs the approval transition and, for accrual-based
// types, applies the USAGE deduction. The usage check runs before the
// request is persisted so an insufficient balance leaves it PENDING.
func (h *Handler) approveAndDeduct(r *http.Request, request leave.Request, lt leave.LeaveType, reviewerID string) (leave.Request, error) {
	approved, err := request.Approve(reviewerID, h.now())
	if err != nil {
		return leave.Request{}, err
	}

	if lt.AccrualBased {
		b, err := h.Store.FindBalance(r.Context(), request.EmployeeID, request.LeaveTypeID)
		if err != nil {
			return leave.Request{}, err
		}
		next, tx, err := b.ApplyUsage(uuid.NewString(), approved.TotalDays, dayOfToday(h.now()), approved.ID)
		if err != nil {
			return leave.Request{}, err
		}
		if err := h.persistBalanceChange(r, next, tx); err != nil {
			return leave.Request{}, err
		}
	}

	if err := h.Store.SaveRequest(r.Context(), approved); err != nil {
		return leave.Request{}, err
	}
	return approved, nil
}

// DenyRequest denies a pending request with mandatory notes.
// POST /api/requests/{id}/deny
func (h *Handler) DenyRequest(w http.ResponseWriter, r *http.Request) {
	var review ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	request, err := h.Store.GetRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get request", err)
		return
	}

	denied, err := request.Deny(review.ReviewerID, review.Notes, h.now())
	if err != nil {
		h.writeDomainError(w, "Denial failed", err)
		return
	}
	if err := h.Store.SaveRequest(r.Context(), denied); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(denied))
}

// CancelRequest withdraws a pending or approved request before its start
// date. An approved, accrual-backed request gets its usage credited back
// through an ADJUSTMENT line.
// POST /api/requests/{id}/cancel
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	request, err := h.Store.GetRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get request", err)
		return
	}

	wasApproved := request.Status == leave.RequestApproved

	cancelled, err := request.Cancel(h.now())
	if err != nil {
		h.writeDomainError(w, "Cancellation failed", err)
		return
	}

	if wasApproved {
		lt, err := h.Store.GetLeaveType(r.Context(), request.LeaveTypeID)
		if err != nil {
			h.writeDomainError(w, "Unknown leave type", err)
			return
		}
		if lt.AccrualBased {
			b, err := h.Store.FindBalance(r.Context(), request.EmployeeID, request.LeaveTypeID)
			if err != nil {
				h.writeDomainError(w, "Failed to load balance", err)
				return
			}
			next, tx, err := b.ApplyAdjustment(uuid.NewString(), request.TotalDays,
				dayOfToday(h.now()), "cancelled request "+request.ID)
			if err != nil {
				h.writeDomainError(w, "Refund failed", err)
				return
			}
			if err := h.persistBalanceChange(r, next, tx); err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to persist refund", err)
				return
			}
		}
	}

	if err := h.Store.SaveRequest(r.Context(), cancelled); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(cancelled))
}

// =============================================================================
// LEAVE TYPE HANDLERS
// =============================================================================

// ListLeaveTypes returns all leave types.
// GET /api/leave-types
func (h *Handler) ListLeaveTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Store.ListLeaveTypes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list leave types", err)
		return
	}

	dtos := make([]LeaveTypeDTO, len(types))
	for i, lt := range types {
		dtos[i] = toLeaveTypeDTO(lt)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateLeaveType upserts a leave type.
// POST /api/leave-types
func (h *Handler) CreateLeaveType(w http.ResponseWriter, r *http.Request) {
	var dto LeaveTypeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if dto.ID == "" {
		dto.ID = uuid.NewString()
	}
	if dto.Name == "" || dto.Code == "" {
		writeError(w, http.StatusBadRequest, "name and code are required", nil)
		return
	}

	lt := fromLeaveTypeDTO(dto)
	if err := h.Store.SaveLeaveType(r.Context(), lt); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save leave type", err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveTypeDTO(lt))
}

// =============================================================================
// POLICY HANDLERS
// =============================================================================

// ListLeavePolicies returns all leave policies.
// GET /api/policies/leave
func (h *Handler) ListLeavePolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.Store.ListLeavePolicies(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list policies", err)
		return
	}
	writeJSON(w, http.StatusOK, policies)
}

// CreateLeavePolicy validates and stores a leave policy.
// POST /api/policies/leave
func (h *Handler) CreateLeavePolicy(w http.ResponseWriter, r *http.Request) {
	var p policy.LeavePolicy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	valid, err := policy.NewLeavePolicy(p)
	if err != nil {
		h.writeDomainError(w, "Invalid policy", err)
		return
	}
	if err := h.Store.SavePolicy(r.Context(), policy.ForLeave(valid)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save policy", err)
		return
	}
	writeJSON(w, http.StatusCreated, valid)
}

// ListOvertimePolicies returns all overtime policies.
// GET /api/policies/overtime
func (h *Handler) ListOvertimePolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.Store.ListOvertimePolicies(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list policies", err)
		return
	}
	writeJSON(w, http.StatusOK, policies)
}

// CreateOvertimePolicy validates and stores an overtime policy.
// POST /api/policies/overtime
func (h *Handler) CreateOvertimePolicy(w http.ResponseWriter, r *http.Request) {
	var p policy.OvertimePolicy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	valid, err := policy.NewOvertimePolicy(p)
	if err != nil {
		h.writeDomainError(w, "Invalid policy", err)
		return
	}
	if err := h.Store.SavePolicy(r.Context(), policy.ForOvertime(valid)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save policy", err)
		return
	}
	writeJSON(w, http.StatusCreated, valid)
}

// ValidatePoliciesRequest supplies the group list to check coverage for.
type ValidatePoliciesRequest struct {
	Groups []string `json:"groups"`
}

// ValidatePolicies reports conflicts and coverage gaps in the stored
// leave policy set.
// POST /api/policies/validate
func (h *Handler) ValidatePolicies(w http.ResponseWriter, r *http.Request) {
	var req ValidatePoliciesRequest
	decodeOptionalBody(r, &req)

	policies, err := h.Store.ListLeavePolicies(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list policies", err)
		return
	}

	report := h.Engine.ValidateConfiguration(policies, req.Groups, h.now())
	writeJSON(w, http.StatusOK, report)
}

// ImpactRequest supplies a candidate policy and the population to
// evaluate it against.
type ImpactRequest struct {
	Policy    policy.LeavePolicy         `json:"policy"`
	Employees []policy.EmployeeGroupData `json:"employees"`
}

// PolicyImpact estimates who a candidate policy would reach.
// POST /api/policies/impact
func (h *Handler) PolicyImpact(w http.ResponseWriter, r *http.Request) {
	var req ImpactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	candidate, err := policy.NewLeavePolicy(req.Policy)
	if err != nil {
		h.writeDomainError(w, "Invalid policy", err)
		return
	}

	report := h.Engine.AdoptionImpact(candidate, req.Employees, h.now())
	writeJSON(w, http.StatusOK, report)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// writeDomainError maps domain errors onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:      message,
			Violations: verr.Result.Violations,
		})
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, store.ErrDuplicateID):
		writeError(w, http.StatusConflict, message, err)
	case timesheet.IsBusinessRule(err), leave.IsBusinessRule(err), policy.IsBusinessRule(err):
		writeError(w, http.StatusUnprocessableEntity, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// decodeOptionalBody tolerates an empty body for endpoints whose inputs
// all have defaults.
func decodeOptionalBody(r *http.Request, v any) {
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(v)
	}
}

func parseTimeOrNow(s string, now func() time.Time) (time.Time, error) {
	if s == "" {
		return now(), nil
	}
	return time.Parse(time.RFC3339, s)
}

func parseDateOrToday(s string, now func() time.Time) (time.Time, error) {
	if s == "" {
		return dayOfToday(now()), nil
	}
	return time.Parse(dateLayout, s)
}

func dayOfToday(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func parseRange(r *http.Request) (from, to time.Time, err error) {
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = time.Parse(time.RFC3339, v); err != nil {
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to, err = time.Parse(time.RFC3339, v)
	}
	return
}

func parseDecimalOrZero(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
