/*
Package store defines the persistence interfaces for time entries, leave
balances, the accrual ledger, leave requests, and policies.

PURPOSE:
  Domain packages stay persistence-free; everything they need from storage
  is expressed here as narrow interfaces. Two implementations ship:
  store/memory for tests and store/sqlite for real deployments.

APPEND-ONLY LEDGER:
  LedgerStore is the one interface with no update or delete operations.
  Balance corrections happen through new ADJUSTMENT lines; implementations
  must never rewrite an existing transaction.

SEE ALSO:
  - store/memory: mutex-guarded in-memory implementation
  - store/sqlite: SQLite implementation (WAL, auto-migrated schema)
*/
package store

import (
	"context"
	"errors"
	"time"

	"github.com/solomon-wilson/hrmis-sub001/leave"
	"github.com/solomon-wilson/hrmis-sub001/policy"
	"github.com/solomon-wilson/hrmis-sub001/timesheet"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateID means a record with the same id already exists where
	// the operation requires a fresh one.
	ErrDuplicateID = errors.New("duplicate id")
)

// =============================================================================
// FILTERS
// =============================================================================

// EntryFilter narrows ListEntries. Zero fields are ignored; From/To filter
// on clock-in time, inclusive.
type EntryFilter struct {
	EmployeeID string
	From       time.Time
	To         time.Time
	Status     timesheet.EntryStatus
}

// RequestFilter narrows ListRequests. Zero fields are ignored.
type RequestFilter struct {
	EmployeeID string
	Status     leave.RequestStatus
}

// =============================================================================
// INTERFACES
// =============================================================================

// EntryStore persists time entries. SaveEntry upserts by id.
type EntryStore interface {
	SaveEntry(ctx context.Context, e timesheet.Entry) error
	GetEntry(ctx context.Context, id string) (timesheet.Entry, error)
	ListEntries(ctx context.Context, f EntryFilter) ([]timesheet.Entry, error)

	// ActiveEntry returns the employee's open entry, if any. Used to stop
	// double clock-ins.
	ActiveEntry(ctx context.Context, employeeID string) (timesheet.Entry, bool, error)
}

// LedgerStore is the append-only transaction log. There is deliberately no
// update or delete.
type LedgerStore interface {
	AppendTransaction(ctx context.Context, tx leave.Transaction) error
	ListTransactions(ctx context.Context, balanceID string) ([]leave.Transaction, error)
}

// BalanceStore persists balance snapshots. SaveBalance upserts by id.
// ListBalances with an empty employeeID returns every balance.
type BalanceStore interface {
	SaveBalance(ctx context.Context, b leave.Balance) error
	GetBalance(ctx context.Context, id string) (leave.Balance, error)
	FindBalance(ctx context.Context, employeeID, leaveTypeID string) (leave.Balance, error)
	ListBalances(ctx context.Context, employeeID string) ([]leave.Balance, error)
}

// RequestStore persists leave requests. SaveRequest upserts by id.
type RequestStore interface {
	SaveRequest(ctx context.Context, r leave.Request) error
	GetRequest(ctx context.Context, id string) (leave.Request, error)
	ListRequests(ctx context.Context, f RequestFilter) ([]leave.Request, error)
}

// LeaveTypeStore persists leave type reference data.
type LeaveTypeStore interface {
	SaveLeaveType(ctx context.Context, lt leave.LeaveType) error
	GetLeaveType(ctx context.Context, id string) (leave.LeaveType, error)
	ListLeaveTypes(ctx context.Context) ([]leave.LeaveType, error)
}

// PolicyStore persists leave and overtime policies.
type PolicyStore interface {
	SavePolicy(ctx context.Context, p policy.Policy) error
	ListLeavePolicies(ctx context.Context) ([]policy.LeavePolicy, error)
	ListOvertimePolicies(ctx context.Context) ([]policy.OvertimePolicy, error)
}

// Store is the full persistence surface the API server needs.
type Store interface {
	EntryStore
	LedgerStore
	BalanceStore
	RequestStore
	LeaveTypeStore
	PolicyStore

	Close() error
}
