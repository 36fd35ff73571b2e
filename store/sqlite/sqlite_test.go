package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/solomon-wilson/hrmis-sub001/leave"
	"github.com/solomon-wilson/hrmis-sub001/policy"
	"github.com/solomon-wilson/hrmis-sub001/store"
	"github.com/solomon-wilson/hrmis-sub001/store/sqlite"
	"github.com/solomon-wilson/hrmis-sub001/timesheet"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// ENTRIES
// =============================================================================

func TestEntryRoundTrip(t *testing.T) {
	// GIVEN: A completed entry with a closed break
	// WHEN: Saving and reloading it
	// THEN: The aggregate comes back whole, breaks included

	st := newTestStore(t)
	ctx := context.Background()

	clockIn := day(2025, time.March, 10).Add(8 * time.Hour)
	e, err := timesheet.NewEntry("e1", "emp1", clockIn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e, err = e.AddBreak(timesheet.Break{ID: "b1", Type: timesheet.BreakLunch, StartTime: clockIn.Add(4 * time.Hour)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e, err = e.EndBreak("b1", clockIn.Add(4*time.Hour+30*time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e, err = e.Complete(clockIn.Add(9*time.Hour), timesheet.DefaultOvertimeRules())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := st.SaveEntry(ctx, e); err != nil {
		t.Fatalf("failed to save entry: %v", err)
	}

	got, err := st.GetEntry(ctx, "e1")
	if err != nil {
		t.Fatalf("failed to load entry: %v", err)
	}

	if got.Status != timesheet.StatusCompleted {
		t.Errorf("expected COMPLETED, got %s", got.Status)
	}
	if !got.ClockIn.Equal(e.ClockIn) || got.ClockOut == nil || !got.ClockOut.Equal(*e.ClockOut) {
		t.Error("clock times did not survive the round trip")
	}
	if len(got.Breaks) != 1 || got.Breaks[0].DurationMinutes != 30 {
		t.Errorf("breaks did not survive the round trip: %+v", got.Breaks)
	}
	if !got.TotalHours.Equal(dec("8.5")) {
		t.Errorf("expected 8.5 total hours, got %s", got.TotalHours)
	}
}

func TestSaveEntry_UpsertReplacesBreaks(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	clockIn := day(2025, time.March, 10).Add(8 * time.Hour)
	e, _ := timesheet.NewEntry("e1", "emp1", clockIn)
	if err := st.SaveEntry(ctx, e); err != nil {
		t.Fatalf("failed to save entry: %v", err)
	}

	// Save again with one break; the mirror table must match the aggregate.
	e, err := e.AddBreak(timesheet.Break{ID: "b1", Type: timesheet.BreakShort, StartTime: clockIn.Add(2 * time.Hour), Paid: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := st.SaveEntry(ctx, e); err != nil {
		t.Fatalf("failed to re-save entry: %v", err)
	}

	got, err := st.GetEntry(ctx, "e1")
	if err != nil {
		t.Fatalf("failed to load entry: %v", err)
	}
	if len(got.Breaks) != 1 || !got.Breaks[0].Paid {
		t.Errorf("expected the single paid break, got %+v", got.Breaks)
	}
}

func TestGetEntry_NotFound(t *testing.T) {
	st := newTestStore(t)

	if _, err := st.GetEntry(context.Background(), "nope"); err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestActiveEntry(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if _, found, err := st.ActiveEntry(ctx, "emp1"); err != nil || found {
		t.Fatalf("expected no active entry, got found=%v err=%v", found, err)
	}

	e, _ := timesheet.NewEntry("e1", "emp1", day(2025, time.March, 10).Add(8*time.Hour))
	if err := st.SaveEntry(ctx, e); err != nil {
		t.Fatalf("failed to save entry: %v", err)
	}

	got, found, err := st.ActiveEntry(ctx, "emp1")
	if err != nil || !found {
		t.Fatalf("expected an active entry, got found=%v err=%v", found, err)
	}
	if got.ID != "e1" {
		t.Errorf("expected e1, got %s", got.ID)
	}

	// Another employee's clock state is independent.
	if _, found, _ := st.ActiveEntry(ctx, "emp2"); found {
		t.Error("emp2 should have no active entry")
	}
}

func TestListEntries_Filters(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for i, emp := range []string{"emp1", "emp1", "emp2"} {
		clockIn := day(2025, time.March, 10+i).Add(8 * time.Hour)
		e, _ := timesheet.NewEntry(string(rune('a'+i)), emp, clockIn)
		if err := st.SaveEntry(ctx, e); err != nil {
			t.Fatalf("failed to save entry: %v", err)
		}
	}

	got, err := st.ListEntries(ctx, store.EntryFilter{EmployeeID: "emp1"})
	if err != nil {
		t.Fatalf("failed to list entries: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 entries for emp1, got %d", len(got))
	}

	got, err = st.ListEntries(ctx, store.EntryFilter{
		EmployeeID: "emp1",
		From:       day(2025, time.March, 11),
	})
	if err != nil {
		t.Fatalf("failed to list entries: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 entry from Mar 11, got %d", len(got))
	}
}

// =============================================================================
// LEDGER (append-only)
// =============================================================================

func TestAppendTransaction_RejectsDuplicateID(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	tx, err := leave.NewTransaction(leave.Transaction{
		ID:        "tx1",
		BalanceID: "bal1",
		Type:      leave.TxAccrual,
		Amount:    dec("1.25"),
		Date:      day(2025, time.February, 1),
	})
	if err != nil {
		t.Fatalf("failed to build transaction: %v", err)
	}

	if err := st.AppendTransaction(ctx, tx); err != nil {
		t.Fatalf("first append should succeed: %v", err)
	}
	if err := st.AppendTransaction(ctx, tx); err != store.ErrDuplicateID {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestListTransactions_OrderedByDate(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	dates := []time.Time{
		day(2025, time.March, 1),
		day(2025, time.January, 1),
		day(2025, time.February, 1),
	}
	for i, d := range dates {
		tx, err := leave.NewTransaction(leave.Transaction{
			ID:        string(rune('a' + i)),
			BalanceID: "bal1",
			Type:      leave.TxAccrual,
			Amount:    dec("1"),
			Date:      d,
		})
		if err != nil {
			t.Fatalf("failed to build transaction: %v", err)
		}
		if err := st.AppendTransaction(ctx, tx); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
	}

	txs, err := st.ListTransactions(ctx, "bal1")
	if err != nil {
		t.Fatalf("failed to list transactions: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(txs))
	}
	for i := 1; i < len(txs); i++ {
		if txs[i].Date.Before(txs[i-1].Date) {
			t.Error("ledger should come back in date order")
		}
	}
}

// =============================================================================
// BALANCES
// =============================================================================

func TestBalanceRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	maxBalance := dec("20")
	b, err := leave.NewBalance(leave.Balance{
		ID:              "bal1",
		EmployeeID:      "emp1",
		LeaveTypeID:     "vacation",
		Current:         dec("10.5"),
		AccrualRate:     dec("1.25"),
		Period:          leave.PeriodMonthly,
		MaxBalance:      &maxBalance,
		LastAccrualDate: day(2025, time.January, 1),
		EffectiveDate:   day(2025, time.January, 1),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := st.SaveBalance(ctx, b); err != nil {
		t.Fatalf("failed to save balance: %v", err)
	}

	got, err := st.GetBalance(ctx, "bal1")
	if err != nil {
		t.Fatalf("failed to load balance: %v", err)
	}
	if !got.Current.Equal(dec("10.5")) || got.Period != leave.PeriodMonthly {
		t.Errorf("balance did not survive the round trip: %+v", got)
	}
	if got.MaxBalance == nil || !got.MaxBalance.Equal(dec("20")) {
		t.Error("max balance did not survive the round trip")
	}
	if got.CarryoverLimit != nil {
		t.Error("an unset carryover limit should come back nil")
	}
}

func TestFindBalance_PrefersMostRecentYear(t *testing.T) {
	// GIVEN: Two balance snapshots for the same employee and type across
	//        two years
	// WHEN: Finding the balance
	// THEN: The most recent effective date wins

	st := newTestStore(t)
	ctx := context.Background()

	for i, year := range []int{2024, 2025} {
		b := leave.Balance{
			ID:              []string{"bal-old", "bal-new"}[i],
			EmployeeID:      "emp1",
			LeaveTypeID:     "vacation",
			Current:         dec("5"),
			AccrualRate:     dec("1.25"),
			Period:          leave.PeriodMonthly,
			LastAccrualDate: day(year, time.January, 1),
			EffectiveDate:   day(year, time.January, 1),
		}
		if err := st.SaveBalance(ctx, b); err != nil {
			t.Fatalf("failed to save balance: %v", err)
		}
	}

	got, err := st.FindBalance(ctx, "emp1", "vacation")
	if err != nil {
		t.Fatalf("failed to find balance: %v", err)
	}
	if got.ID != "bal-new" {
		t.Errorf("expected the 2025 snapshot, got %s", got.ID)
	}

	if _, err := st.FindBalance(ctx, "emp1", "sick"); err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound for an uncovered type, got %v", err)
	}
}

func TestListBalances_EmptyEmployeeMeansAll(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for i, emp := range []string{"emp1", "emp2"} {
		b := leave.Balance{
			ID:              string(rune('a' + i)),
			EmployeeID:      emp,
			LeaveTypeID:     "vacation",
			Current:         dec("5"),
			AccrualRate:     dec("1"),
			Period:          leave.PeriodMonthly,
			LastAccrualDate: day(2025, time.January, 1),
			EffectiveDate:   day(2025, time.January, 1),
		}
		if err := st.SaveBalance(ctx, b); err != nil {
			t.Fatalf("failed to save balance: %v", err)
		}
	}

	all, err := st.ListBalances(ctx, "")
	if err != nil {
		t.Fatalf("failed to list balances: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected every balance, got %d", len(all))
	}

	one, err := st.ListBalances(ctx, "emp1")
	if err != nil {
		t.Fatalf("failed to list balances: %v", err)
	}
	if len(one) != 1 {
		t.Errorf("expected 1 balance for emp1, got %d", len(one))
	}
}

// =============================================================================
// REQUESTS AND LEAVE TYPES
// =============================================================================

func TestRequestRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	start := time.Now().AddDate(0, 0, 10)
	r, err := leave.NewRequest(leave.Request{
		ID:          "r1",
		EmployeeID:  "emp1",
		LeaveTypeID: "vacation",
		StartDate:   start,
		EndDate:     start.AddDate(0, 0, 2),
		TotalDays:   dec("3"),
		Reason:      "family trip",
		Attachments: []string{"doc1.pdf"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := st.SaveRequest(ctx, r); err != nil {
		t.Fatalf("failed to save request: %v", err)
	}

	// Approve and upsert the transition.
	approved, err := r.Approve("mgr1", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := st.SaveRequest(ctx, approved); err != nil {
		t.Fatalf("failed to save transition: %v", err)
	}

	got, err := st.GetRequest(ctx, "r1")
	if err != nil {
		t.Fatalf("failed to load request: %v", err)
	}
	if got.Status != leave.RequestApproved {
		t.Errorf("expected APPROVED, got %s", got.Status)
	}
	if got.ReviewerID == nil || *got.ReviewerID != "mgr1" {
		t.Error("reviewer did not survive the round trip")
	}
	if len(got.Attachments) != 1 || got.Attachments[0] != "doc1.pdf" {
		t.Errorf("attachments did not survive the round trip: %+v", got.Attachments)
	}

	pending, err := st.ListRequests(ctx, store.RequestFilter{EmployeeID: "emp1", Status: leave.RequestPending})
	if err != nil {
		t.Fatalf("failed to list requests: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected no pending requests after approval, got %d", len(pending))
	}
}

func TestLeaveTypeRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	notice := 14
	lt := leave.LeaveType{
		ID:                "vacation",
		Name:              "Vacation",
		Code:              "VAC",
		Paid:              true,
		RequiresApproval:  true,
		AdvanceNoticeDays: &notice,
		AllowsPartialDays: true,
		AccrualBased:      true,
		Active:            true,
	}

	if err := st.SaveLeaveType(ctx, lt); err != nil {
		t.Fatalf("failed to save leave type: %v", err)
	}

	got, err := st.GetLeaveType(ctx, "vacation")
	if err != nil {
		t.Fatalf("failed to load leave type: %v", err)
	}
	if got.Code != "VAC" || !got.AccrualBased {
		t.Errorf("leave type did not survive the round trip: %+v", got)
	}
	if got.AdvanceNoticeDays == nil || *got.AdvanceNoticeDays != 14 {
		t.Error("advance notice did not survive the round trip")
	}
	if got.MaxConsecutiveDays != nil {
		t.Error("an unset consecutive-day cap should come back nil")
	}
}

// =============================================================================
// POLICIES
// =============================================================================

func TestPolicyRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	lp, err := policy.NewLeavePolicy(policy.LeavePolicy{
		ID:          "p1",
		Name:        "standard vacation",
		LeaveTypeID: "vacation",
		Scope: policy.Scope{
			EffectiveDate:    day(2025, time.January, 1),
			ApplicableGroups: []string{"staff"},
			Active:           true,
		},
		Eligibility: []policy.EligibilityRule{
			{Type: policy.RuleTenure, Operator: policy.OpGreaterThan, Value: "3"},
		},
		Accrual: []policy.AccrualRule{
			{Rate: dec("1.25"), Period: leave.PeriodMonthly},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	op, err := policy.NewOvertimePolicy(policy.OvertimePolicy{
		ID:                      "p2",
		Name:                    "warehouse overtime",
		Scope:                   policy.Scope{ApplicableGroups: []string{"warehouse"}, Active: true},
		DailyOvertimeThreshold:  dec("7.5"),
		WeeklyOvertimeThreshold: dec("40"),
		OvertimeMultiplier:      dec("1.5"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := st.SavePolicy(ctx, policy.ForLeave(lp)); err != nil {
		t.Fatalf("failed to save leave policy: %v", err)
	}
	if err := st.SavePolicy(ctx, policy.ForOvertime(op)); err != nil {
		t.Fatalf("failed to save overtime policy: %v", err)
	}

	leavePolicies, err := st.ListLeavePolicies(ctx)
	if err != nil {
		t.Fatalf("failed to list leave policies: %v", err)
	}
	if len(leavePolicies) != 1 {
		t.Fatalf("expected 1 leave policy, got %d", len(leavePolicies))
	}
	got := leavePolicies[0]
	if got.LeaveTypeID != "vacation" || len(got.Eligibility) != 1 || len(got.Accrual) != 1 {
		t.Errorf("leave policy did not survive the round trip: %+v", got)
	}
	if !got.Accrual[0].Rate.Equal(dec("1.25")) {
		t.Errorf("accrual rate did not survive the round trip: %s", got.Accrual[0].Rate)
	}

	overtimePolicies, err := st.ListOvertimePolicies(ctx)
	if err != nil {
		t.Fatalf("failed to list overtime policies: %v", err)
	}
	if len(overtimePolicies) != 1 || !overtimePolicies[0].DailyOvertimeThreshold.Equal(dec("7.5")) {
		t.Errorf("overtime policy did not survive the round trip: %+v", overtimePolicies)
	}
}
