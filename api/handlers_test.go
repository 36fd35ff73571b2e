package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/solomon-wilson/hrmis-sub001/api"
	"github.com/solomon-wilson/hrmis-sub001/store/memory"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	st := memory.New()
	t.Cleanup(func() { st.Close() })
	return api.NewRouter(api.NewHandler(st))
}

// do sends a JSON request to the router and returns the recorder.
func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func rfc(t time.Time) string {
	return t.Format(time.RFC3339)
}

func ymd(t time.Time) string {
	return t.Format("2006-01-02")
}

// seedVacation creates an accrual-based vacation leave type and a funded
// balance for the employee, returning the balance id.
func seedVacation(t *testing.T, router http.Handler, employeeID, current string, requiresApproval bool) string {
	t.Helper()

	rec := do(t, router, http.MethodPost, "/api/leave-types", map[string]any{
		"id":                  "vacation",
		"name":                "Vacation",
		"code":                "VAC",
		"paid":                true,
		"requires_approval":   requiresApproval,
		"allows_partial_days": true,
		"accrual_based":       true,
		"active":              true,
	})
	wantStatus(t, rec, http.StatusCreated)

	rec = do(t, router, http.MethodPost, "/api/balances", map[string]any{
		"employee_id":    employeeID,
		"leave_type_id":  "vacation",
		"current":        current,
		"accrual_rate":   "1.25",
		"period":         "MONTHLY",
		"effective_date": "2025-01-01",
	})
	wantStatus(t, rec, http.StatusCreated)

	var balance struct {
		ID string `json:"id"`
	}
	decode(t, rec, &balance)
	return balance.ID
}

// =============================================================================
// CLOCKING
// =============================================================================

func TestClockInOutFlow(t *testing.T) {
	// GIVEN: An employee clocked in 9 hours ago
	// WHEN: Clocking out now
	// THEN: The entry completes with 8 regular + 1 overtime hours

	router := newTestServer(t)
	now := time.Now()

	rec := do(t, router, http.MethodPost, "/api/employees/emp1/clock-in",
		map[string]string{"at": rfc(now.Add(-9 * time.Hour))})
	wantStatus(t, rec, http.StatusCreated)

	var entry struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decode(t, rec, &entry)
	if entry.Status != "ACTIVE" {
		t.Errorf("expected ACTIVE, got %s", entry.Status)
	}

	// A second clock-in while active is a conflict.
	rec = do(t, router, http.MethodPost, "/api/employees/emp1/clock-in", nil)
	wantStatus(t, rec, http.StatusConflict)

	rec = do(t, router, http.MethodPost, "/api/employees/emp1/clock-out",
		map[string]string{"at": rfc(now)})
	wantStatus(t, rec, http.StatusOK)

	var completed struct {
		Status        string `json:"status"`
		RegularHours  string `json:"regular_hours"`
		OvertimeHours string `json:"overtime_hours"`
	}
	decode(t, rec, &completed)
	if completed.Status != "COMPLETED" {
		t.Errorf("expected COMPLETED, got %s", completed.Status)
	}
	if completed.RegularHours != "8" || completed.OvertimeHours != "1" {
		t.Errorf("expected 8 regular + 1 overtime, got %s + %s",
			completed.RegularHours, completed.OvertimeHours)
	}
}

func TestClockOut_NotClockedIn(t *testing.T) {
	router := newTestServer(t)

	rec := do(t, router, http.MethodPost, "/api/employees/emp1/clock-out", nil)
	wantStatus(t, rec, http.StatusNotFound)
}

func TestBreakFlow(t *testing.T) {
	// GIVEN: An active entry with a 30 minute unpaid lunch
	// WHEN: Clocking out after 9 hours
	// THEN: Worked hours come to 8.5

	router := newTestServer(t)
	now := time.Now()

	rec := do(t, router, http.MethodPost, "/api/employees/emp1/clock-in",
		map[string]string{"at": rfc(now.Add(-9 * time.Hour))})
	wantStatus(t, rec, http.StatusCreated)

	var entry struct {
		ID string `json:"id"`
	}
	decode(t, rec, &entry)

	rec = do(t, router, http.MethodPost, "/api/entries/"+entry.ID+"/breaks",
		map[string]any{"type": "LUNCH", "at": rfc(now.Add(-5 * time.Hour)), "paid": false})
	wantStatus(t, rec, http.StatusOK)

	var withBreak struct {
		Breaks []struct {
			ID string `json:"id"`
		} `json:"breaks"`
	}
	decode(t, rec, &withBreak)
	if len(withBreak.Breaks) != 1 {
		t.Fatalf("expected 1 break, got %d", len(withBreak.Breaks))
	}

	// Clocking out with the break still open fails.
	rec = do(t, router, http.MethodPost, "/api/employees/emp1/clock-out", nil)
	wantStatus(t, rec, http.StatusUnprocessableEntity)

	rec = do(t, router, http.MethodPost,
		fmt.Sprintf("/api/entries/%s/breaks/%s/end", entry.ID, withBreak.Breaks[0].ID),
		map[string]string{"at": rfc(now.Add(-4*time.Hour - 30*time.Minute))})
	wantStatus(t, rec, http.StatusOK)

	rec = do(t, router, http.MethodPost, "/api/employees/emp1/clock-out",
		map[string]string{"at": rfc(now)})
	wantStatus(t, rec, http.StatusOK)

	var completed struct {
		TotalHours string `json:"total_hours"`
	}
	decode(t, rec, &completed)
	if completed.TotalHours != "8.5" {
		t.Errorf("expected 8.5 total hours, got %s", completed.TotalHours)
	}
}

func TestManualEntryApproval(t *testing.T) {
	router := newTestServer(t)
	now := time.Now()

	rec := do(t, router, http.MethodPost, "/api/entries", map[string]string{
		"employee_id": "emp1",
		"clock_in":    rfc(now.Add(-10 * time.Hour)),
		"clock_out":   rfc(now.Add(-2 * time.Hour)),
		"note":        "forgot my badge",
	})
	wantStatus(t, rec, http.StatusCreated)

	var entry struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decode(t, rec, &entry)
	if entry.Status != "PENDING_APPROVAL" {
		t.Fatalf("expected PENDING_APPROVAL, got %s", entry.Status)
	}

	// A note is mandatory for manual entries.
	rec = do(t, router, http.MethodPost, "/api/entries", map[string]string{
		"employee_id": "emp1",
		"clock_in":    rfc(now.Add(-10 * time.Hour)),
		"clock_out":   rfc(now.Add(-2 * time.Hour)),
	})
	wantStatus(t, rec, http.StatusBadRequest)

	rec = do(t, router, http.MethodPost, "/api/entries/"+entry.ID+"/approve",
		map[string]string{"approver_id": "mgr1"})
	wantStatus(t, rec, http.StatusOK)

	var approved struct {
		Status     string `json:"status"`
		TotalHours string `json:"total_hours"`
	}
	decode(t, rec, &approved)
	if approved.Status != "COMPLETED" || approved.TotalHours != "8" {
		t.Errorf("expected COMPLETED with 8 hours, got %s %s", approved.Status, approved.TotalHours)
	}
}

// =============================================================================
// BALANCES
// =============================================================================

func TestBalanceLifecycle(t *testing.T) {
	router := newTestServer(t)
	balanceID := seedVacation(t, router, "emp1", "10", true)

	// Accrue at the configured rate.
	rec := do(t, router, http.MethodPost, "/api/balances/"+balanceID+"/accrue", nil)
	wantStatus(t, rec, http.StatusOK)

	var balance struct {
		Current string `json:"current"`
	}
	decode(t, rec, &balance)
	if balance.Current != "11.25" {
		t.Errorf("expected 11.25 after accrual, got %s", balance.Current)
	}

	// Adjustment without a reason is rejected.
	rec = do(t, router, http.MethodPost, "/api/balances/"+balanceID+"/adjust",
		map[string]string{"amount": "-1"})
	wantStatus(t, rec, http.StatusBadRequest)

	rec = do(t, router, http.MethodPost, "/api/balances/"+balanceID+"/adjust",
		map[string]string{"amount": "-1.25", "reason": "clerical error"})
	wantStatus(t, rec, http.StatusOK)
	decode(t, rec, &balance)
	if balance.Current != "10" {
		t.Errorf("expected 10 after adjustment, got %s", balance.Current)
	}

	// Both operations left ledger lines.
	rec = do(t, router, http.MethodGet, "/api/balances/"+balanceID+"/transactions", nil)
	wantStatus(t, rec, http.StatusOK)

	var txs []struct {
		Type   string `json:"type"`
		Amount string `json:"amount"`
	}
	decode(t, rec, &txs)
	if len(txs) != 2 {
		t.Fatalf("expected 2 ledger lines, got %d", len(txs))
	}
}

func TestGetBalance_NotFound(t *testing.T) {
	router := newTestServer(t)

	rec := do(t, router, http.MethodGet, "/api/balances/nope", nil)
	wantStatus(t, rec, http.StatusNotFound)
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

func TestRequestWorkflow(t *testing.T) {
	router := newTestServer(t)
	balanceID := seedVacation(t, router, "emp1", "10", true)

	start := time.Now().AddDate(0, 0, 10)

	rec := do(t, router, http.MethodPost, "/api/employees/emp1/requests", map[string]string{
		"leave_type_id": "vacation",
		"start_date":    ymd(start),
		"end_date":      ymd(start.AddDate(0, 0, 2)),
		"reason":        "family trip",
	})
	wantStatus(t, rec, http.StatusCreated)

	var request struct {
		ID        string `json:"id"`
		Status    string `json:"status"`
		TotalDays string `json:"total_days"`
	}
	decode(t, rec, &request)
	if request.Status != "PENDING" {
		t.Fatalf("expected PENDING, got %s", request.Status)
	}
	if request.TotalDays != "3" {
		t.Errorf("total days should default to the span (3), got %s", request.TotalDays)
	}

	// An overlapping submission is a conflict.
	rec = do(t, router, http.MethodPost, "/api/employees/emp1/requests", map[string]string{
		"leave_type_id": "vacation",
		"start_date":    ymd(start.AddDate(0, 0, 1)),
		"end_date":      ymd(start.AddDate(0, 0, 4)),
	})
	wantStatus(t, rec, http.StatusConflict)

	// Approval deducts the balance.
	rec = do(t, router, http.MethodPost, "/api/requests/"+request.ID+"/approve",
		map[string]string{"reviewer_id": "mgr1"})
	wantStatus(t, rec, http.StatusOK)

	rec = do(t, router, http.MethodGet, "/api/balances/"+balanceID, nil)
	wantStatus(t, rec, http.StatusOK)
	var balance struct {
		Current  string `json:"current"`
		YearUsed string `json:"year_used"`
	}
	decode(t, rec, &balance)
	if balance.Current != "7" || balance.YearUsed != "3" {
		t.Errorf("expected current 7 / used 3 after approval, got %s / %s",
			balance.Current, balance.YearUsed)
	}

	// Cancelling the approved future request refunds the days.
	rec = do(t, router, http.MethodPost, "/api/requests/"+request.ID+"/cancel", nil)
	wantStatus(t, rec, http.StatusOK)

	rec = do(t, router, http.MethodGet, "/api/balances/"+balanceID, nil)
	decode(t, rec, &balance)
	if balance.Current != "10" {
		t.Errorf("expected the refund to restore 10 days, got %s", balance.Current)
	}
}

func TestSubmitRequest_InsufficientBalance(t *testing.T) {
	// GIVEN: Only 1 day of vacation available
	// WHEN: Requesting 3 days
	// THEN: 422 with the violation listed

	router := newTestServer(t)
	seedVacation(t, router, "emp1", "1", true)

	start := time.Now().AddDate(0, 0, 10)
	rec := do(t, router, http.MethodPost, "/api/employees/emp1/requests", map[string]string{
		"leave_type_id": "vacation",
		"start_date":    ymd(start),
		"end_date":      ymd(start.AddDate(0, 0, 2)),
	})
	wantStatus(t, rec, http.StatusUnprocessableEntity)

	var errResp struct {
		Violations []struct {
			Code string `json:"code"`
		} `json:"violations"`
	}
	decode(t, rec, &errResp)
	if len(errResp.Violations) == 0 || errResp.Violations[0].Code != "insufficient_balance" {
		t.Errorf("expected an insufficient_balance violation, got %+v", errResp.Violations)
	}
}

func TestSubmitRequest_AutoApproval(t *testing.T) {
	// GIVEN: A leave type that does not require approval
	// WHEN: Submitting a request
	// THEN: It comes back APPROVED with the balance already deducted

	router := newTestServer(t)
	balanceID := seedVacation(t, router, "emp1", "10", false)

	start := time.Now().AddDate(0, 0, 10)
	rec := do(t, router, http.MethodPost, "/api/employees/emp1/requests", map[string]string{
		"leave_type_id": "vacation",
		"start_date":    ymd(start),
		"end_date":      ymd(start),
	})
	wantStatus(t, rec, http.StatusCreated)

	var request struct {
		Status string `json:"status"`
	}
	decode(t, rec, &request)
	if request.Status != "APPROVED" {
		t.Errorf("expected auto-approval, got %s", request.Status)
	}

	rec = do(t, router, http.MethodGet, "/api/balances/"+balanceID, nil)
	var balance struct {
		Current string `json:"current"`
	}
	decode(t, rec, &balance)
	if balance.Current != "9" {
		t.Errorf("expected 9 after auto-approval, got %s", balance.Current)
	}
}

func TestDenyRequest_RequiresNotes(t *testing.T) {
	router := newTestServer(t)
	seedVacation(t, router, "emp1", "10", true)

	start := time.Now().AddDate(0, 0, 10)
	rec := do(t, router, http.MethodPost, "/api/employees/emp1/requests", map[string]string{
		"leave_type_id": "vacation",
		"start_date":    ymd(start),
		"end_date":      ymd(start),
	})
	wantStatus(t, rec, http.StatusCreated)

	var request struct {
		ID string `json:"id"`
	}
	decode(t, rec, &request)

	rec = do(t, router, http.MethodPost, "/api/requests/"+request.ID+"/deny",
		map[string]string{"reviewer_id": "mgr1"})
	wantStatus(t, rec, http.StatusUnprocessableEntity)

	rec = do(t, router, http.MethodPost, "/api/requests/"+request.ID+"/deny",
		map[string]string{"reviewer_id": "mgr1", "notes": "coverage gap"})
	wantStatus(t, rec, http.StatusOK)

	var denied struct {
		Status      string `json:"status"`
		ReviewNotes string `json:"review_notes"`
	}
	decode(t, rec, &denied)
	if denied.Status != "DENIED" || denied.ReviewNotes != "coverage gap" {
		t.Errorf("unexpected denial result: %+v", denied)
	}
}

// =============================================================================
// SUMMARIES
// =============================================================================

func TestPayPeriodSummary(t *testing.T) {
	// GIVEN: Two manual 10-hour entries on consecutive days, approved
	// WHEN: Asking for the pay-period summary spanning them
	// THEN: Daily tiering yields 16 regular + 4 overtime, weighted 22

	router := newTestServer(t)
	base := time.Now().AddDate(0, 0, -7)

	for i := 0; i < 2; i++ {
		day := base.AddDate(0, 0, i)
		clockIn := time.Date(day.Year(), day.Month(), day.Day(), 8, 0, 0, 0, day.Location())

		rec := do(t, router, http.MethodPost, "/api/entries", map[string]string{
			"employee_id": "emp1",
			"clock_in":    rfc(clockIn),
			"clock_out":   rfc(clockIn.Add(10 * time.Hour)),
			"note":        "timesheet correction",
		})
		wantStatus(t, rec, http.StatusCreated)

		var entry struct {
			ID string `json:"id"`
		}
		decode(t, rec, &entry)

		rec = do(t, router, http.MethodPost, "/api/entries/"+entry.ID+"/approve",
			map[string]string{"approver_id": "mgr1"})
		wantStatus(t, rec, http.StatusOK)
	}

	path := fmt.Sprintf("/api/employees/emp1/summaries/pay-period?start=%s&end=%s",
		ymd(base), ymd(base.AddDate(0, 0, 6)))
	rec := do(t, router, http.MethodGet, path, nil)
	wantStatus(t, rec, http.StatusOK)

	var summary struct {
		Hours struct {
			Regular  string `json:"regular"`
			Overtime string `json:"overtime"`
		} `json:"hours"`
		WeightedHours string `json:"weighted_hours"`
	}
	decode(t, rec, &summary)
	if summary.Hours.Regular != "16" || summary.Hours.Overtime != "4" {
		t.Errorf("expected 16 regular + 4 overtime, got %s + %s",
			summary.Hours.Regular, summary.Hours.Overtime)
	}
	if summary.WeightedHours != "22" {
		t.Errorf("expected 22 weighted hours, got %s", summary.WeightedHours)
	}
}

// =============================================================================
// POLICIES
// =============================================================================

func TestPolicyEndpoints(t *testing.T) {
	router := newTestServer(t)

	rec := do(t, router, http.MethodPost, "/api/policies/overtime", map[string]any{
		"ID":                      "ot1",
		"Name":                    "warehouse overtime",
		"Active":                  true,
		"DailyOvertimeThreshold":  "7.5",
		"WeeklyOvertimeThreshold": "40",
		"OvertimeMultiplier":      "1.5",
	})
	wantStatus(t, rec, http.StatusCreated)

	rec = do(t, router, http.MethodGet, "/api/policies/overtime", nil)
	wantStatus(t, rec, http.StatusOK)

	var policies []struct {
		ID string `json:"ID"`
	}
	decode(t, rec, &policies)
	if len(policies) != 1 || policies[0].ID != "ot1" {
		t.Errorf("expected the stored policy back, got %+v", policies)
	}

	// An invalid policy is rejected with violations.
	rec = do(t, router, http.MethodPost, "/api/policies/overtime", map[string]any{
		"Name":                    "broken",
		"Active":                  true,
		"DailyOvertimeThreshold":  "0",
		"WeeklyOvertimeThreshold": "40",
		"OvertimeMultiplier":      "1.5",
	})
	wantStatus(t, rec, http.StatusBadRequest)
}

func TestValidatePolicies_ReportsGaps(t *testing.T) {
	router := newTestServer(t)

	rec := do(t, router, http.MethodPost, "/api/policies/leave", map[string]any{
		"ID":               "p1",
		"Name":             "staff vacation",
		"LeaveTypeID":      "vacation",
		"ApplicableGroups": []string{"staff"},
		"Active":           true,
	})
	wantStatus(t, rec, http.StatusCreated)

	rec = do(t, router, http.MethodPost, "/api/policies/validate",
		map[string]any{"groups": []string{"staff"}})
	wantStatus(t, rec, http.StatusOK)

	var report struct {
		Gaps []struct {
			Group       string `json:"Group"`
			LeaveTypeID string `json:"LeaveTypeID"`
		} `json:"Gaps"`
	}
	decode(t, rec, &report)
	if len(report.Gaps) != 2 {
		t.Errorf("expected gaps for sick and personal, got %+v", report.Gaps)
	}
}
