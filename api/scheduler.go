/*
scheduler.go - Automated accrual scheduler

PURPOSE:
  Periodically scans balances for due accruals and applies them at the
  configured rate, recording a ledger line per credit. Keeps balances
  current without an operator hitting the accrue endpoint.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - A balance is due when the current date has reached its next accrual
    date (last accrual + one period)
  - Catch-up: a balance several periods behind receives one accrual per
    pass; the next pass picks up the next period

CONFIGURATION:
  - CheckInterval: how often to scan (default: 1 hour)
  - Enabled: whether the scheduler is active (default: true)

USAGE:
  scheduler := NewAccrualScheduler(store)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Accrue endpoint (manual accrual)
  - leave/balance.go: IsAccrualDue and ApplyAccrual
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/solomon-wilson/hrmis-sub001/leave"
	"github.com/solomon-wilson/hrmis-sub001/store"
)

// balanceScanner is the slice of the store the scheduler needs.
type balanceScanner interface {
	store.BalanceStore
	store.LedgerStore
	ListLeaveTypes(ctx context.Context) ([]leave.LeaveType, error)
}

// AccrualScheduler applies due accruals in the background.
type AccrualScheduler struct {
	Store         balanceScanner
	CheckInterval time.Duration
	Enabled       bool

	ticker  *time.Ticker
	stop    chan bool
	stopped bool
	wg      sync.WaitGroup
	mu      sync.Mutex
}

// NewAccrualScheduler creates a new scheduler.
func NewAccrualScheduler(st balanceScanner) *AccrualScheduler {
	return &AccrualScheduler{
		Store:         st,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (as *AccrualScheduler) Start() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if !as.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	as.ticker = time.NewTicker(as.CheckInterval)
	as.wg.Add(1)

	go as.run()

	log.Printf("[Scheduler] Started with check interval: %v", as.CheckInterval)
}

// Stop stops the scheduler. Safe to call more than once.
func (as *AccrualScheduler) Stop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.ticker == nil || as.stopped {
		return
	}
	as.stopped = true

	as.ticker.Stop()
	close(as.stop)
	as.wg.Wait()
	log.Println("[Scheduler] Stopped")
}

func (as *AccrualScheduler) run() {
	defer as.wg.Done()

	// Run immediately on start
	as.checkAndAccrue()

	for {
		select {
		case <-as.ticker.C:
			as.checkAndAccrue()
		case <-as.stop:
			return
		}
	}
}

func (as *AccrualScheduler) checkAndAccrue() {
	ctx := context.Background()
	now := time.Now()

	accrualBased, err := as.accrualBasedTypes(ctx)
	if err != nil {
		log.Printf("[Scheduler] Failed to list leave types: %v", err)
		return
	}

	applied := 0
	for typeID := range accrualBased {
		balances, err := as.dueBalances(ctx, typeID, now)
		if err != nil {
			log.Printf("[Scheduler] Failed to scan balances for %s: %v", typeID, err)
			continue
		}
		for _, b := range balances {
			if err := as.applyOne(ctx, b); err != nil {
				log.Printf("[Scheduler] Accrual failed for balance %s: %v", b.ID, err)
				continue
			}
			applied++
		}
	}

	if applied > 0 {
		log.Printf("[Scheduler] Applied %d accruals", applied)
	}
}

func (as *AccrualScheduler) accrualBasedTypes(ctx context.Context) (map[string]bool, error) {
	types, err := as.Store.ListLeaveTypes(ctx)
	if err != nil {
		return nil, err
	}
	result := make(map[string]bool)
	for _, lt := range types {
		if lt.AccrualBased && lt.Active {
			result[lt.ID] = true
		}
	}
	return result, nil
}

// dueBalances finds balances of one leave type whose next accrual date
// has passed.
func (as *AccrualScheduler) dueBalances(ctx context.Context, leaveTypeID string, now time.Time) ([]leave.Balance, error) {
	balances, err := as.Store.ListBalances(ctx, "")
	if err != nil {
		return nil, err
	}
	var due []leave.Balance
	for _, b := range balances {
		if b.LeaveTypeID == leaveTypeID && b.IsAccrualDue(now) {
			due = append(due, b)
		}
	}
	return due, nil
}

// applyOne credits one period at the balance's own rate, dated to the
// scheduled accrual date rather than the scan time.
func (as *AccrualScheduler) applyOne(ctx context.Context, b leave.Balance) error {
	next, tx, err := b.ApplyAccrual(uuid.NewString(), b.AccrualRate, b.NextAccrualDate())
	if err != nil {
		return err
	}
	if err := as.Store.SaveBalance(ctx, next); err != nil {
		return err
	}
	if tx.ID == "" {
		return nil // fully capped, no ledger line
	}
	return as.Store.AppendTransaction(ctx, tx)
}
