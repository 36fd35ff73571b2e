package api_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/solomon-wilson/hrmis-sub001/api"
	"github.com/solomon-wilson/hrmis-sub001/leave"
	"github.com/solomon-wilson/hrmis-sub001/store/memory"
)

func seedDueBalance(t *testing.T, st *memory.Store) leave.Balance {
	t.Helper()
	ctx := context.Background()

	err := st.SaveLeaveType(ctx, leave.LeaveType{
		ID:           "vacation",
		Name:         "Vacation",
		Code:         "VAC",
		Paid:         true,
		AccrualBased: true,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("failed to save leave type: %v", err)
	}

	anchor := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	b, err := leave.NewBalance(leave.Balance{
		ID:              "bal1",
		EmployeeID:      "emp1",
		LeaveTypeID:     "vacation",
		Current:         decimal.NewFromInt(10),
		AccrualRate:     decimal.RequireFromString("1.25"),
		Period:          leave.PeriodMonthly,
		LastAccrualDate: anchor,
		EffectiveDate:   anchor,
	})
	if err != nil {
		t.Fatalf("failed to build balance: %v", err)
	}
	if err := st.SaveBalance(ctx, b); err != nil {
		t.Fatalf("failed to save balance: %v", err)
	}
	return b
}

func TestAccrualScheduler_OneAccrualPerPass(t *testing.T) {
	// GIVEN: A monthly balance several periods behind
	// WHEN: A single scheduler pass runs
	// THEN: Exactly one accrual is credited, dated to the scheduled period

	st := memory.New()
	t.Cleanup(func() { st.Close() })
	seedDueBalance(t, st)

	scheduler := api.NewAccrualScheduler(st)
	scheduler.CheckInterval = time.Hour
	scheduler.Start()
	scheduler.Stop() // waits for the startup pass to finish

	ctx := context.Background()
	b, err := st.GetBalance(ctx, "bal1")
	if err != nil {
		t.Fatalf("failed to reload balance: %v", err)
	}
	if !b.Current.Equal(decimal.RequireFromString("11.25")) {
		t.Errorf("expected one accrual (11.25), got %s", b.Current)
	}
	if !b.LastAccrualDate.Equal(time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected the accrual dated to the scheduled period, got %s", b.LastAccrualDate)
	}

	txs, err := st.ListTransactions(ctx, "bal1")
	if err != nil {
		t.Fatalf("failed to list transactions: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected exactly 1 ledger line per pass, got %d", len(txs))
	}
	if txs[0].Type != leave.TxAccrual || !txs[0].Amount.Equal(decimal.RequireFromString("1.25")) {
		t.Errorf("unexpected ledger line: %+v", txs[0])
	}
}

func TestAccrualScheduler_StopIsIdempotent(t *testing.T) {
	st := memory.New()
	t.Cleanup(func() { st.Close() })

	scheduler := api.NewAccrualScheduler(st)
	scheduler.CheckInterval = time.Hour
	scheduler.Start()

	scheduler.Stop()
	scheduler.Stop() // second call must not panic
}

func TestAccrualScheduler_StopBeforeStart(t *testing.T) {
	scheduler := api.NewAccrualScheduler(memory.New())
	scheduler.Stop()
}
