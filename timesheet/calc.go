/*
calc.go - Overtime rules and per-entry hour computation

PURPOSE:
  The stateless heart of the engine: given a completed entry (or a raw
  hours figure) and an OvertimeRules configuration, split hours into
  regular / overtime / double-time tiers.

TIERING RULE:
  hours <= daily threshold              -> all regular
  daily < hours <= double-time          -> regular = daily, rest overtime
  hours > double-time threshold         -> regular = daily,
                                           overtime = double - daily,
                                           double-time = rest
  No double-time threshold configured   -> everything above daily is overtime

INVARIANT:
  Regular + Overtime + DoubleTime == Total, for any valid configuration.

BREAK ACCOUNTING:
  Worked minutes = (clock-out - clock-in) - sum of UNPAID break minutes.
  Paid breaks are never subtracted. Hours round to 2 decimal places before
  tiering.
*/
package timesheet

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// OVERTIME RULES - Engine configuration
// =============================================================================

// OvertimeRules configures the tiering thresholds and pay multipliers.
// DoubleTimeThreshold may be nil, in which case no double-time tier exists.
type OvertimeRules struct {
	DailyOvertimeThreshold  decimal.Decimal
	WeeklyOvertimeThreshold decimal.Decimal
	OvertimeMultiplier      decimal.Decimal
	DoubleTimeThreshold     *decimal.Decimal
	DoubleTimeMultiplier    decimal.Decimal
}

// DefaultOvertimeRules returns the standard configuration: overtime past 8
// hours a day or 40 a week at 1.5x, double-time past 12 hours a day at 2x.
func DefaultOvertimeRules() OvertimeRules {
	dt := decimal.NewFromInt(12)
	return OvertimeRules{
		DailyOvertimeThreshold:  decimal.NewFromInt(8),
		WeeklyOvertimeThreshold: decimal.NewFromInt(40),
		OvertimeMultiplier:      decimal.NewFromFloat(1.5),
		DoubleTimeThreshold:     &dt,
		DoubleTimeMultiplier:    decimal.NewFromInt(2),
	}
}

// Breakdown is the tiered result of a calculation.
type Breakdown struct {
	Total      decimal.Decimal
	Regular    decimal.Decimal
	Overtime   decimal.Decimal
	DoubleTime decimal.Decimal
}

// Add sums two breakdowns tier by tier.
func (b Breakdown) Add(other Breakdown) Breakdown {
	return Breakdown{
		Total:      b.Total.Add(other.Total),
		Regular:    b.Regular.Add(other.Regular),
		Overtime:   b.Overtime.Add(other.Overtime),
		DoubleTime: b.DoubleTime.Add(other.DoubleTime),
	}
}

// Split applies the daily tiering rule to an hours figure.
func (r OvertimeRules) Split(hours decimal.Decimal) Breakdown {
	hours = hours.Round(2)
	b := Breakdown{Total: hours}

	if hours.LessThanOrEqual(r.DailyOvertimeThreshold) {
		b.Regular = hours
		return b
	}

	b.Regular = r.DailyOvertimeThreshold
	if r.DoubleTimeThreshold == nil || hours.LessThanOrEqual(*r.DoubleTimeThreshold) {
		b.Overtime = hours.Sub(r.DailyOvertimeThreshold)
		return b
	}

	b.Overtime = r.DoubleTimeThreshold.Sub(r.DailyOvertimeThreshold)
	b.DoubleTime = hours.Sub(*r.DoubleTimeThreshold)
	return b
}

// WeightedHours converts a breakdown into multiplier-weighted hours
// (regular + overtime x 1.5 + double-time x 2 under the defaults). This is
// the payroll-facing total.
func (r OvertimeRules) WeightedHours(b Breakdown) decimal.Decimal {
	weighted := b.Regular.
		Add(b.Overtime.Mul(r.OvertimeMultiplier)).
		Add(b.DoubleTime.Mul(r.DoubleTimeMultiplier))
	return weighted.Round(2)
}

// =============================================================================
// BREAK-TIME ACCOUNTING
// =============================================================================

// BreakSummary totals break minutes for one entry. Only unpaid minutes are
// deductible from worked time.
type BreakSummary struct {
	TotalMinutes  int
	PaidMinutes   int
	UnpaidMinutes int
}

// BreakTime sums the entry's ended breaks into paid/unpaid buckets.
func (e Entry) BreakTime() BreakSummary {
	var s BreakSummary
	for _, b := range e.Breaks {
		if b.Open() {
			continue
		}
		s.TotalMinutes += b.DurationMinutes
		if b.Paid {
			s.PaidMinutes += b.DurationMinutes
		} else {
			s.UnpaidMinutes += b.DurationMinutes
		}
	}
	return s
}

// =============================================================================
// PER-ENTRY HOURS
// =============================================================================

// WorkedHours returns the entry's net worked hours: the clock span minus
// unpaid break minutes, rounded to 2 decimal places. Requires a clock-out.
func (e Entry) WorkedHours() (decimal.Decimal, error) {
	if e.ClockOut == nil {
		return decimal.Zero, ErrNotClockedOut
	}
	spanMinutes := int(e.ClockOut.Sub(e.ClockIn).Minutes())
	worked := spanMinutes - e.BreakTime().UnpaidMinutes
	if worked < 0 {
		worked = 0
	}
	return decimal.NewFromInt(int64(worked)).Div(decimal.NewFromInt(60)).Round(2), nil
}

// EntryHours computes the tiered breakdown for one completed entry.
func EntryHours(e Entry, rules OvertimeRules) (Breakdown, error) {
	hours, err := e.WorkedHours()
	if err != nil {
		return Breakdown{}, err
	}
	return rules.Split(hours), nil
}
