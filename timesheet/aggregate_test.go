package timesheet_test

import (
	"testing"
	"time"

	"github.com/solomon-wilson/hrmis-sub001/timesheet"
)

// dayEntry builds a completed entry of the given length starting at 8:00
// on the given day.
func dayEntry(t *testing.T, id string, day time.Time, hours int) timesheet.Entry {
	t.Helper()
	start := time.Date(day.Year(), day.Month(), day.Day(), 8, 0, 0, 0, time.UTC)
	return completedEntryID(t, id, start, start.Add(time.Duration(hours)*time.Hour))
}

func completedEntryID(t *testing.T, id string, clockIn, clockOut time.Time) timesheet.Entry {
	t.Helper()
	e, err := timesheet.NewManualEntry(timesheet.ManualEntryInput{
		ID:         id,
		EmployeeID: "emp1",
		ClockIn:    clockIn,
		ClockOut:   clockOut,
		Note:       "test entry",
	})
	if err != nil {
		t.Fatalf("failed to build entry: %v", err)
	}
	return e
}

// =============================================================================
// DAILY
// =============================================================================

func TestDailySummaries_SumsBeforeTiering(t *testing.T) {
	// GIVEN: Two 5-hour entries on the same day
	// WHEN: Building daily summaries
	// THEN: The day has 10 hours tiered as 8 regular + 2 overtime,
	//       not two separate 5-hour regular chunks

	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	entries := []timesheet.Entry{
		completedEntryID(t, "e1", day.Add(8*time.Hour), day.Add(13*time.Hour)),
		completedEntryID(t, "e2", day.Add(14*time.Hour), day.Add(19*time.Hour)),
	}

	days := timesheet.DailySummaries(entries, timesheet.DefaultOvertimeRules())

	if len(days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(days))
	}
	d := days[0]
	if d.Entries != 2 {
		t.Errorf("expected 2 entries, got %d", d.Entries)
	}
	if !d.Hours.Regular.Equal(dec("8")) || !d.Hours.Overtime.Equal(dec("2")) {
		t.Errorf("expected 8 regular + 2 overtime, got %s + %s", d.Hours.Regular, d.Hours.Overtime)
	}
}

func TestDailySummaries_SkipsOpenEntries(t *testing.T) {
	open, err := timesheet.NewEntry("e1", "emp1", at(8, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	days := timesheet.DailySummaries([]timesheet.Entry{open}, timesheet.DefaultOvertimeRules())
	if len(days) != 0 {
		t.Errorf("open entries must not appear in daily summaries, got %d days", len(days))
	}
}

// =============================================================================
// WEEKLY
// =============================================================================

func TestWeeklySummaries_ReclassifiesExcessRegular(t *testing.T) {
	// GIVEN: Six 8-hour days in one Sunday-start week (48 regular hours)
	// WHEN: Applying the 40-hour weekly threshold
	// THEN: 40 stay regular, 8 are reclassified to overtime

	sunday := time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC)
	var entries []timesheet.Entry
	for i := 0; i < 6; i++ {
		entries = append(entries, dayEntry(t, ids(i), sunday.AddDate(0, 0, i), 8))
	}

	weeks := timesheet.WeeklySummaries(entries, timesheet.DefaultOvertimeRules())

	if len(weeks) != 1 {
		t.Fatalf("expected 1 week, got %d", len(weeks))
	}
	w := weeks[0]
	if !w.WeekStart.Equal(sunday) {
		t.Errorf("expected week start %s, got %s", sunday, w.WeekStart)
	}
	if !w.Hours.Regular.Equal(dec("40")) || !w.Hours.Overtime.Equal(dec("8")) {
		t.Errorf("expected 40 regular + 8 overtime, got %s + %s", w.Hours.Regular, w.Hours.Overtime)
	}
	if !w.Reclassified.Overtime.Equal(dec("8")) {
		t.Errorf("expected 8 reclassified hours, got %s", w.Reclassified.Overtime)
	}
}

func TestWeeklySummaries_DailyOvertimeNotDoubleCounted(t *testing.T) {
	// GIVEN: Five 9-hour days (daily tiering gives 40 regular + 5 overtime)
	// WHEN: Applying the weekly threshold
	// THEN: Regular is exactly at 40, so nothing is reclassified

	sunday := time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC)
	var entries []timesheet.Entry
	for i := 0; i < 5; i++ {
		entries = append(entries, dayEntry(t, ids(i), sunday.AddDate(0, 0, i), 9))
	}

	weeks := timesheet.WeeklySummaries(entries, timesheet.DefaultOvertimeRules())

	w := weeks[0]
	if !w.Hours.Regular.Equal(dec("40")) || !w.Hours.Overtime.Equal(dec("5")) {
		t.Errorf("expected 40 regular + 5 overtime, got %s + %s", w.Hours.Regular, w.Hours.Overtime)
	}
	if !w.Reclassified.Overtime.IsZero() {
		t.Errorf("expected no reclassification, got %s", w.Reclassified.Overtime)
	}
}

func TestWeeklySummaries_SplitsAcrossWeeks(t *testing.T) {
	// Saturday and the following Sunday land in different weeks.
	saturday := time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC)
	entries := []timesheet.Entry{
		dayEntry(t, "e1", saturday, 8),
		dayEntry(t, "e2", saturday.AddDate(0, 0, 1), 8),
	}

	weeks := timesheet.WeeklySummaries(entries, timesheet.DefaultOvertimeRules())
	if len(weeks) != 2 {
		t.Fatalf("expected 2 weeks, got %d", len(weeks))
	}
	if !weeks[0].WeekStart.Before(weeks[1].WeekStart) {
		t.Error("weeks should be sorted by start date")
	}
}

// =============================================================================
// PAY PERIOD
// =============================================================================

func TestPayPeriodHours_BucketsAnchoredAtStart(t *testing.T) {
	// GIVEN: A Wednesday-anchored 14-day period with 8h worked every day
	// WHEN: Computing pay-period hours
	// THEN: Two 7-day buckets of 56 hours each, each capped at 40 regular
	//       with 16 reclassified to overtime

	start := time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC) // a Wednesday
	end := start.AddDate(0, 0, 13)

	var entries []timesheet.Entry
	for i := 0; i < 14; i++ {
		entries = append(entries, dayEntry(t, ids(i), start.AddDate(0, 0, i), 8))
	}

	p := timesheet.PayPeriodHours(entries, start, end, timesheet.DefaultOvertimeRules())

	if len(p.Weeks) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(p.Weeks))
	}
	if !p.Weeks[0].WeekStart.Equal(start) {
		t.Errorf("first bucket should anchor at the period start, got %s", p.Weeks[0].WeekStart)
	}
	if !p.Hours.Regular.Equal(dec("80")) || !p.Hours.Overtime.Equal(dec("32")) {
		t.Errorf("expected 80 regular + 32 overtime, got %s + %s", p.Hours.Regular, p.Hours.Overtime)
	}
}

func TestPayPeriodHours_IgnoresOutsideEntries(t *testing.T) {
	start := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 6)

	entries := []timesheet.Entry{
		dayEntry(t, "in", start, 8),
		dayEntry(t, "out", end.AddDate(0, 0, 1), 8),
	}

	p := timesheet.PayPeriodHours(entries, start, end, timesheet.DefaultOvertimeRules())
	if !p.Hours.Total.Equal(dec("8")) {
		t.Errorf("expected only in-period hours (8), got %s", p.Hours.Total)
	}
}

func ids(i int) string {
	return string(rune('a' + i))
}
