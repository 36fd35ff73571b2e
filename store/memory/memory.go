// Package memory provides a mutex-guarded in-memory Store for tests and
// local development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/solomon-wilson/hrmis-sub001/leave"
	"github.com/solomon-wilson/hrmis-sub001/policy"
	"github.com/solomon-wilson/hrmis-sub001/store"
	"github.com/solomon-wilson/hrmis-sub001/timesheet"
)

// Store keeps everything in maps. Safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	entries      map[string]timesheet.Entry
	transactions map[string][]leave.Transaction // keyed by balance id
	txIDs        map[string]bool
	balances     map[string]leave.Balance
	requests     map[string]leave.Request
	leaveTypes   map[string]leave.LeaveType
	policies     map[string]policy.Policy
}

func New() *Store {
	return &Store{
		entries:      make(map[string]timesheet.Entry),
		transactions: make(map[string][]leave.Transaction),
		txIDs:        make(map[string]bool),
		balances:     make(map[string]leave.Balance),
		requests:     make(map[string]leave.Request),
		leaveTypes:   make(map[string]leave.LeaveType),
		policies:     make(map[string]policy.Policy),
	}
}

func (s *Store) Close() error { return nil }

// =============================================================================
// ENTRIES
// =============================================================================

func (s *Store) SaveEntry(_ context.Context, e timesheet.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.ID] = e
	return nil
}

func (s *Store) GetEntry(_ context.Context, id string) (timesheet.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return timesheet.Entry{}, store.ErrNotFound
	}
	return e, nil
}

func (s *Store) ListEntries(_ context.Context, f store.EntryFilter) ([]timesheet.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []timesheet.Entry
	for _, e := range s.entries {
		if f.EmployeeID != "" && e.EmployeeID != f.EmployeeID {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && e.ClockIn.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.ClockIn.After(f.To) {
			continue
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ClockIn.Before(result[j].ClockIn)
	})
	return result, nil
}

func (s *Store) ActiveEntry(_ context.Context, employeeID string) (timesheet.Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.EmployeeID == employeeID && e.Status == timesheet.StatusActive {
			return e, true, nil
		}
	}
	return timesheet.Entry{}, false, nil
}

// =============================================================================
// LEDGER (append-only)
// =============================================================================

func (s *Store) AppendTransaction(_ context.Context, tx leave.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.txIDs[tx.ID] {
		return store.ErrDuplicateID
	}
	s.txIDs[tx.ID] = true

	txs := s.transactions[tx.BalanceID]
	i := sort.Search(len(txs), func(i int) bool {
		return txs[i].Date.After(tx.Date)
	})
	txs = append(txs, leave.Transaction{})
	copy(txs[i+1:], txs[i:])
	txs[i] = tx
	s.transactions[tx.BalanceID] = txs
	return nil
}

func (s *Store) ListTransactions(_ context.Context, balanceID string) ([]leave.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]leave.Transaction, len(s.transactions[balanceID]))
	copy(result, s.transactions[balanceID])
	return result, nil
}

// =============================================================================
// BALANCES
// =============================================================================

func (s *Store) SaveBalance(_ context.Context, b leave.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[b.ID] = b
	return nil
}

func (s *Store) GetBalance(_ context.Context, id string) (leave.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.balances[id]
	if !ok {
		return leave.Balance{}, store.ErrNotFound
	}
	return b, nil
}

// FindBalance returns the employee's balance for a leave type, preferring
// the most recent effective date when multiple years exist.
func (s *Store) FindBalance(_ context.Context, employeeID, leaveTypeID string) (leave.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best leave.Balance
	found := false
	for _, b := range s.balances {
		if b.EmployeeID != employeeID || b.LeaveTypeID != leaveTypeID {
			continue
		}
		if !found || b.EffectiveDate.After(best.EffectiveDate) {
			best = b
			found = true
		}
	}
	if !found {
		return leave.Balance{}, store.ErrNotFound
	}
	return best, nil
}

func (s *Store) ListBalances(_ context.Context, employeeID string) ([]leave.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []leave.Balance
	for _, b := range s.balances {
		if employeeID != "" && b.EmployeeID != employeeID {
			continue
		}
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LeaveTypeID < result[j].LeaveTypeID
	})
	return result, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

func (s *Store) SaveRequest(_ context.Context, r leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[r.ID] = r
	return nil
}

func (s *Store) GetRequest(_ context.Context, id string) (leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return leave.Request{}, store.ErrNotFound
	}
	return r, nil
}

func (s *Store) ListRequests(_ context.Context, f store.RequestFilter) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []leave.Request
	for _, r := range s.requests {
		if f.EmployeeID != "" && r.EmployeeID != f.EmployeeID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartDate.Before(result[j].StartDate)
	})
	return result, nil
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

func (s *Store) SaveLeaveType(_ context.Context, lt leave.LeaveType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaveTypes[lt.ID] = lt
	return nil
}

func (s *Store) GetLeaveType(_ context.Context, id string) (leave.LeaveType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lt, ok := s.leaveTypes[id]
	if !ok {
		return leave.LeaveType{}, store.ErrNotFound
	}
	return lt, nil
}

func (s *Store) ListLeaveTypes(_ context.Context) ([]leave.LeaveType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]leave.LeaveType, 0, len(s.leaveTypes))
	for _, lt := range s.leaveTypes {
		result = append(result, lt)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Code < result[j].Code
	})
	return result, nil
}

// =============================================================================
// POLICIES
// =============================================================================

func (s *Store) SavePolicy(_ context.Context, p policy.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch p.Kind {
	case policy.KindLeave:
		s.policies[p.Leave.ID] = p
	case policy.KindOvertime:
		s.policies[p.Overtime.ID] = p
	}
	return nil
}

func (s *Store) ListLeavePolicies(_ context.Context) ([]policy.LeavePolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []policy.LeavePolicy
	for _, p := range s.policies {
		if p.Kind == policy.KindLeave {
			result = append(result, *p.Leave)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (s *Store) ListOvertimePolicies(_ context.Context) ([]policy.OvertimePolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []policy.OvertimePolicy
	for _, p := range s.policies {
		if p.Kind == policy.KindOvertime {
			result = append(result, *p.Overtime)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}
