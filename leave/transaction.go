/*
Package leave implements leave-balance accounting and the request workflow.

PURPOSE:
  Turns raw accrual-ledger lines into balances, projections, and year-end
  carryover, and validates leave requests (conflicts, blackouts, notice)
  through an explicit approval state machine.

KEY CONCEPTS IN THIS FILE (transaction.go):
  - Transaction: an immutable ledger line against one balance
  - TransactionType: ACCRUAL, USAGE, ADJUSTMENT, CARRYOVER

DESIGN PRINCIPLES:
  1. Append-only: transactions are never mutated or deleted once created;
     corrections are new lines
  2. Signed amounts: ACCRUAL lines are positive, USAGE lines negative -
     the sign convention is enforced at construction
  3. Precision: decimal.Decimal for all balance arithmetic

SEE ALSO:
  - balance.go: balance state derived from rate + ledger
  - request.go: request lifecycle and conflict detection
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/solomon-wilson/hrmis-sub001/validation"
)

// =============================================================================
// TRANSACTION - Immutable ledger line against a balance
// =============================================================================

type TransactionType string

const (
	TxAccrual    TransactionType = "ACCRUAL"
	TxUsage      TransactionType = "USAGE"
	TxAdjustment TransactionType = "ADJUSTMENT"
	TxCarryover  TransactionType = "CARRYOVER"
)

func (t TransactionType) Known() bool {
	switch t {
	case TxAccrual, TxUsage, TxAdjustment, TxCarryover:
		return true
	}
	return false
}

// Transaction is one signed ledger line. Values are immutable once created.
type Transaction struct {
	ID          string
	BalanceID   string
	Type        TransactionType
	Amount      decimal.Decimal
	Description string
	Date        time.Time
	RequestID   string // optional link to the leave request that caused it
	CreatedBy   string
	CreatedAt   time.Time
}

// NewTransaction validates and builds a ledger line.
//
// Sign convention: ACCRUAL amounts must be positive, USAGE amounts must be
// negative. ADJUSTMENT and CARRYOVER may carry either sign. The date may
// not be in the future.
func NewTransaction(tx Transaction) (Transaction, error) {
	res := validation.NewResult()

	if tx.ID == "" {
		res.Add("id", "required", "transaction id is required")
	}
	if tx.BalanceID == "" {
		res.Add("balance_id", "required", "owning balance id is required")
	}
	if !tx.Type.Known() {
		res.Addf("type", "enum", "unknown transaction type %q", tx.Type)
	}
	if tx.Date.IsZero() {
		res.Add("date", "required", "transaction date is required")
	} else if tx.Date.After(time.Now()) {
		res.Add("date", "future", "transaction date cannot be in the future")
	}

	switch tx.Type {
	case TxAccrual:
		if !tx.Amount.IsPositive() {
			res.Add("amount", "sign", "accrual amount must be positive")
		}
	case TxUsage:
		if !tx.Amount.IsNegative() {
			res.Add("amount", "sign", "usage amount must be negative")
		}
	}

	if err := res.AsError(); err != nil {
		return Transaction{}, err
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	return tx, nil
}

// Sum replays a ledger slice into a net amount.
func Sum(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Amount)
	}
	return total
}
