/*
balance.go - Leave balance state and accrual arithmetic

PURPOSE:
  Balance is the current/accrued/used state for one employee x leave-type x
  year. Every "mutation" returns a new Balance value plus the ledger
  Transaction recording the change, so callers persist both and the ledger
  stays the source of truth.

CAPPING vs REJECTION (deliberate asymmetry):
  ApplyAccrual silently CAPS at MaxBalance - an over-accrual is a normal
  consequence of a full bank, not an error.
  ApplyUsage REJECTS with InsufficientBalanceError when the request exceeds
  the current balance - overdrawing leave is a caller mistake.
  ApplyAdjustment FLOORS at zero and skips the year-to-date counters.

PROJECTION:
  Projected balance = current + elapsed accrual periods x rate, capped at
  MaxBalance. Period counting per AccrualPeriod:
    MONTHLY        whole months since the last accrual
    BIWEEKLY       floor(days / 14)
    ANNUAL         fractional years (days / 365.25)
    PER_PAY_PERIOD two per biweekly span (floor(days / 14) * 2)

YEAR-END:
  Carryover = min(current, carryover limit); forfeiture is the rest.
  ApplyYearEndCarryover spawns a NEW effective-dated balance snapshot - the
  old year's ledger is preserved, never reset in place.
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/solomon-wilson/hrmis-sub001/validation"
)

// =============================================================================
// ACCRUAL PERIOD
// =============================================================================

type AccrualPeriod string

const (
	PeriodMonthly      AccrualPeriod = "MONTHLY"
	PeriodBiweekly     AccrualPeriod = "BIWEEKLY"
	PeriodAnnual       AccrualPeriod = "ANNUAL"
	PeriodPerPayPeriod AccrualPeriod = "PER_PAY_PERIOD"
)

func (p AccrualPeriod) Known() bool {
	switch p {
	case PeriodMonthly, PeriodBiweekly, PeriodAnnual, PeriodPerPayPeriod:
		return true
	}
	return false
}

// =============================================================================
// BALANCE - employee x leave-type x year accounting state
// =============================================================================

// Balance is an immutable snapshot; operations return modified copies.
type Balance struct {
	ID          string
	EmployeeID  string
	LeaveTypeID string

	Current     decimal.Decimal
	AccrualRate decimal.Decimal // per accrual period
	Period      AccrualPeriod

	MaxBalance     *decimal.Decimal
	CarryoverLimit *decimal.Decimal

	LastAccrualDate time.Time
	YearUsed        decimal.Decimal
	YearAccrued     decimal.Decimal
	EffectiveDate   time.Time
}

// NewBalance validates and returns a balance snapshot.
func NewBalance(b Balance) (Balance, error) {
	res := validation.NewResult()

	if b.ID == "" {
		res.Add("id", "required", "balance id is required")
	}
	if b.EmployeeID == "" {
		res.Add("employee_id", "required", "employee id is required")
	}
	if b.LeaveTypeID == "" {
		res.Add("leave_type_id", "required", "leave type id is required")
	}
	if !b.Period.Known() {
		res.Addf("accrual_period", "enum", "unknown accrual period %q", b.Period)
	}
	if b.Current.IsNegative() {
		res.Add("current_balance", "range", "balance cannot be negative")
	}
	if b.AccrualRate.IsNegative() {
		res.Add("accrual_rate", "range", "accrual rate cannot be negative")
	}
	if b.MaxBalance != nil && b.Current.GreaterThan(*b.MaxBalance) {
		res.Add("current_balance", "range", "balance exceeds the maximum balance")
	}
	if b.MaxBalance != nil && b.CarryoverLimit != nil && b.CarryoverLimit.GreaterThan(*b.MaxBalance) {
		res.Add("carryover_limit", "range", "carryover limit cannot exceed the maximum balance")
	}
	if !b.EffectiveDate.IsZero() && b.EffectiveDate.After(time.Now()) {
		res.Add("effective_date", "future", "effective date cannot be in the future")
	}

	if err := res.AsError(); err != nil {
		return Balance{}, err
	}
	return b, nil
}

// =============================================================================
// LEDGER-PRODUCING OPERATIONS
// =============================================================================

// ApplyAccrual adds amount to the balance, silently capping at MaxBalance,
// and returns the new snapshot plus the ACCRUAL ledger line. The ledger
// line records the amount actually credited after capping.
func (b Balance) ApplyAccrual(txID string, amount decimal.Decimal, date time.Time) (Balance, Transaction, error) {
	if !amount.IsPositive() {
		res := validation.NewResult()
		res.Add("amount", "sign", "accrual amount must be positive")
		return Balance{}, Transaction{}, res.AsError()
	}

	credited := amount
	next := b
	next.Current = b.Current.Add(amount)
	if b.MaxBalance != nil && next.Current.GreaterThan(*b.MaxBalance) {
		credited = b.MaxBalance.Sub(b.Current)
		if credited.IsNegative() {
			credited = decimal.Zero
		}
		next.Current = *b.MaxBalance
	}
	next.LastAccrualDate = date
	next.YearAccrued = b.YearAccrued.Add(credited)

	tx, err := NewTransaction(Transaction{
		ID:          txID,
		BalanceID:   b.ID,
		Type:        TxAccrual,
		Amount:      credited,
		Description: "scheduled accrual",
		Date:        date,
	})
	if err != nil {
		// A fully-capped accrual credits zero, which the ledger's sign rule
		// rejects; record the period advance without a ledger line.
		if credited.IsZero() {
			return next, Transaction{}, nil
		}
		return Balance{}, Transaction{}, err
	}
	return next, tx, nil
}

// ApplyUsage deducts amount (passed positive) from the balance. Fails with
// InsufficientBalanceError iff amount exceeds the current balance; usage
// equal to the balance drains it to zero.
func (b Balance) ApplyUsage(txID string, amount decimal.Decimal, date time.Time, requestID string) (Balance, Transaction, error) {
	if !amount.IsPositive() {
		res := validation.NewResult()
		res.Add("amount", "sign", "usage amount must be positive")
		return Balance{}, Transaction{}, res.AsError()
	}
	if amount.GreaterThan(b.Current) {
		return Balance{}, Transaction{}, &InsufficientBalanceError{
			BalanceID: b.ID,
			Available: b.Current,
			Requested: amount,
		}
	}

	next := b
	next.Current = b.Current.Sub(amount)
	next.YearUsed = b.YearUsed.Add(amount)

	tx, err := NewTransaction(Transaction{
		ID:          txID,
		BalanceID:   b.ID,
		Type:        TxUsage,
		Amount:      amount.Neg(),
		Description: "leave taken",
		Date:        date,
		RequestID:   requestID,
	})
	if err != nil {
		return Balance{}, Transaction{}, err
	}
	return next, tx, nil
}

// ApplyAdjustment adds a signed correction, flooring the result at zero.
// Adjustments do not touch the year-to-date counters.
func (b Balance) ApplyAdjustment(txID string, amount decimal.Decimal, date time.Time, reason string) (Balance, Transaction, error) {
	next := b
	next.Current = b.Current.Add(amount)
	if next.Current.IsNegative() {
		next.Current = decimal.Zero
	}
	if b.MaxBalance != nil && next.Current.GreaterThan(*b.MaxBalance) {
		next.Current = *b.MaxBalance
	}

	tx, err := NewTransaction(Transaction{
		ID:          txID,
		BalanceID:   b.ID,
		Type:        TxAdjustment,
		Amount:      amount,
		Description: reason,
		Date:        date,
	})
	if err != nil {
		return Balance{}, Transaction{}, err
	}
	return next, tx, nil
}

// =============================================================================
// PROJECTION
// =============================================================================

// ProjectedBalance estimates the balance at a future date: current plus
// elapsed accrual periods times the rate, capped at MaxBalance.
func (b Balance) ProjectedBalance(futureDate time.Time) decimal.Decimal {
	periods := b.periodsElapsed(futureDate)
	projected := b.Current.Add(b.AccrualRate.Mul(periods))
	if b.MaxBalance != nil && projected.GreaterThan(*b.MaxBalance) {
		return *b.MaxBalance
	}
	return projected
}

func (b Balance) periodsElapsed(until time.Time) decimal.Decimal {
	if !until.After(b.LastAccrualDate) {
		return decimal.Zero
	}
	days := int64(until.Sub(b.LastAccrualDate).Hours() / 24)

	switch b.Period {
	case PeriodMonthly:
		return decimal.NewFromInt(int64(wholeMonths(b.LastAccrualDate, until)))
	case PeriodBiweekly:
		return decimal.NewFromInt(days / 14)
	case PeriodPerPayPeriod:
		// Two pay periods per biweekly span.
		return decimal.NewFromInt((days / 14) * 2)
	case PeriodAnnual:
		return decimal.NewFromInt(days).Div(decimal.NewFromFloat(365.25))
	default:
		return decimal.Zero
	}
}

func wholeMonths(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// NextAccrualDate advances the last accrual date by one period.
func (b Balance) NextAccrualDate() time.Time {
	switch b.Period {
	case PeriodMonthly:
		return b.LastAccrualDate.AddDate(0, 1, 0)
	case PeriodBiweekly:
		return b.LastAccrualDate.AddDate(0, 0, 14)
	case PeriodPerPayPeriod:
		// Twice per biweekly span, matching the projection cadence.
		return b.LastAccrualDate.AddDate(0, 0, 7)
	case PeriodAnnual:
		return b.LastAccrualDate.AddDate(1, 0, 0)
	default:
		return b.LastAccrualDate
	}
}

// IsAccrualDue reports whether the next scheduled accrual has arrived.
func (b Balance) IsAccrualDue(date time.Time) bool {
	return !date.Before(b.NextAccrualDate())
}

// =============================================================================
// YEAR-END CARRYOVER
// =============================================================================

// CarryoverAmount is what survives the year boundary:
// min(current, carryover limit), or everything when no limit is set.
func (b Balance) CarryoverAmount() decimal.Decimal {
	if b.CarryoverLimit != nil && b.Current.GreaterThan(*b.CarryoverLimit) {
		return *b.CarryoverLimit
	}
	return b.Current
}

// Forfeiture is what is lost at the year boundary. CarryoverAmount +
// Forfeiture always equals the current balance when a limit is set.
func (b Balance) Forfeiture() decimal.Decimal {
	if b.CarryoverLimit == nil {
		return decimal.Zero
	}
	f := b.Current.Sub(*b.CarryoverLimit)
	if f.IsNegative() {
		return decimal.Zero
	}
	return f
}

// ApplyYearEndCarryover closes the year by spawning a NEW balance snapshot
// seeded with the carryover amount. The prior year's snapshot and ledger
// are left intact; the returned CARRYOVER transaction belongs to the new
// balance.
func (b Balance) ApplyYearEndCarryover(newID, txID string, newYearDate time.Time) (Balance, Transaction, error) {
	carry := b.CarryoverAmount()

	next := b
	next.ID = newID
	next.Current = carry
	next.YearUsed = decimal.Zero
	next.YearAccrued = decimal.Zero
	next.LastAccrualDate = newYearDate
	next.EffectiveDate = newYearDate

	tx, err := NewTransaction(Transaction{
		ID:          txID,
		BalanceID:   newID,
		Type:        TxCarryover,
		Amount:      carry,
		Description: "year-end carryover",
		Date:        newYearDate,
	})
	if err != nil {
		return Balance{}, Transaction{}, err
	}
	return next, tx, nil
}
