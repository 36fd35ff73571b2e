/*
aggregate.go - Daily, weekly, and pay-period rollups

PURPOSE:
  Aggregates per-entry hours into payroll buckets. The order of operations
  matters and is deliberate:

  1. DAILY: entries sharing a clock-in calendar day are summed FIRST and
     the daily tiering rule is applied to the sum. Two 5-hour entries on
     one day make 10 hours -> 8 regular + 2 overtime, not 10 regular.

  2. WEEKLY (Sunday-start): the seven daily results are summed. If the
     accumulated daily REGULAR hours exceed the weekly threshold, the
     excess is reclassified regular -> overtime. The comparison uses the
     already-tiered daily regular totals, not raw hours, so daily overtime
     is never counted twice.

  3. PAY PERIOD: the period is partitioned into week-aligned buckets
     anchored at the period start; the final bucket may be partial. Each
     bucket gets the weekly treatment, then buckets are summed.

  Calendar-day grouping uses the entry's own clock-in date in its own
  location - entries are not normalized to UTC ranges first.
*/
package timesheet

import (
	"sort"
	"time"
)

// =============================================================================
// DAILY AGGREGATION
// =============================================================================

// DaySummary is the tiered result for one calendar day.
type DaySummary struct {
	Date    time.Time // midnight, entry-local
	Entries int
	Hours   Breakdown
}

// DailySummaries groups completed entries by clock-in calendar day, sums
// each day's worked hours, and applies the tiering rule to the summed
// figure. Entries without a clock-out are skipped. Results are sorted.
func DailySummaries(entries []Entry, rules OvertimeRules) []DaySummary {
	type bucket struct {
		date    time.Time
		entries int
		hours   Breakdown // only Total used pre-tiering
	}
	byDay := make(map[string]*bucket)

	for _, e := range entries {
		hours, err := e.WorkedHours()
		if err != nil {
			continue // still clocked in
		}
		day := dayOf(e.ClockIn)
		key := day.Format("2006-01-02")
		b, ok := byDay[key]
		if !ok {
			b = &bucket{date: day}
			byDay[key] = b
		}
		b.entries++
		b.hours.Total = b.hours.Total.Add(hours)
	}

	summaries := make([]DaySummary, 0, len(byDay))
	for _, b := range byDay {
		summaries = append(summaries, DaySummary{
			Date:    b.date,
			Entries: b.entries,
			Hours:   rules.Split(b.hours.Total),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Date.Before(summaries[j].Date)
	})
	return summaries
}

// =============================================================================
// WEEKLY AGGREGATION
// =============================================================================

// WeekSummary is the tiered result for one week.
type WeekSummary struct {
	WeekStart time.Time
	Days      []DaySummary
	Hours     Breakdown

	// Reclassified is how many regular hours were moved to overtime by the
	// weekly threshold.
	Reclassified Breakdown
}

// WeeklySummaries groups the daily aggregates into Sunday-start weeks and
// applies the weekly overtime threshold to each.
func WeeklySummaries(entries []Entry, rules OvertimeRules) []WeekSummary {
	days := DailySummaries(entries, rules)

	byWeek := make(map[string][]DaySummary)
	for _, d := range days {
		ws := weekStartOf(d.Date)
		key := ws.Format("2006-01-02")
		byWeek[key] = append(byWeek[key], d)
	}

	weeks := make([]WeekSummary, 0, len(byWeek))
	for _, ds := range byWeek {
		weeks = append(weeks, applyWeeklyThreshold(weekStartOf(ds[0].Date), ds, rules))
	}
	sort.Slice(weeks, func(i, j int) bool {
		return weeks[i].WeekStart.Before(weeks[j].WeekStart)
	})
	return weeks
}

// applyWeeklyThreshold sums the daily results and reclassifies regular
// hours above the weekly threshold into overtime. The comparison runs on
// tiered daily regular totals so daily overtime is excluded - a known
// under-count when daily overtime is common, preserved as-is.
func applyWeeklyThreshold(weekStart time.Time, days []DaySummary, rules OvertimeRules) WeekSummary {
	var sum Breakdown
	for _, d := range days {
		sum = sum.Add(d.Hours)
	}

	week := WeekSummary{WeekStart: weekStart, Days: days, Hours: sum}
	if sum.Regular.GreaterThan(rules.WeeklyOvertimeThreshold) {
		excess := sum.Regular.Sub(rules.WeeklyOvertimeThreshold)
		week.Hours.Regular = rules.WeeklyOvertimeThreshold
		week.Hours.Overtime = sum.Overtime.Add(excess)
		week.Reclassified.Overtime = excess
	}
	return week
}

// =============================================================================
// PAY-PERIOD AGGREGATION
// =============================================================================

// PayPeriodSummary accumulates week buckets over an arbitrary period.
type PayPeriodSummary struct {
	Start time.Time
	End   time.Time
	Weeks []WeekSummary
	Hours Breakdown
}

// PayPeriodHours partitions [start, end] into 7-day buckets anchored at the
// period start and applies the weekly treatment per bucket. The final
// bucket may be partial.
func PayPeriodHours(entries []Entry, start, end time.Time, rules OvertimeRules) PayPeriodSummary {
	start = dayOf(start)
	end = dayOf(end)
	summary := PayPeriodSummary{Start: start, End: end}

	days := DailySummaries(entries, rules)

	for bucketStart := start; !bucketStart.After(end); bucketStart = bucketStart.AddDate(0, 0, 7) {
		bucketEnd := bucketStart.AddDate(0, 0, 6)
		if bucketEnd.After(end) {
			bucketEnd = end
		}

		var inBucket []DaySummary
		for _, d := range days {
			if !d.Date.Before(bucketStart) && !d.Date.After(bucketEnd) {
				inBucket = append(inBucket, d)
			}
		}
		if len(inBucket) == 0 {
			continue
		}

		week := applyWeeklyThreshold(bucketStart, inBucket, rules)
		summary.Weeks = append(summary.Weeks, week)
		summary.Hours = summary.Hours.Add(week.Hours)
	}
	return summary
}

// =============================================================================
// CALENDAR HELPERS
// =============================================================================

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// weekStartOf returns the Sunday on or before the given day.
func weekStartOf(day time.Time) time.Time {
	return day.AddDate(0, 0, -int(day.Weekday()))
}
