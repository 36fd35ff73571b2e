/*
Package sqlite provides a SQLite-backed implementation of store.Store.

PURPOSE:
  Persists time entries, the leave ledger, balance snapshots, requests,
  leave types, and policies in a single SQLite file. In production the
  same patterns apply to PostgreSQL, only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  The leave_transactions table never sees UPDATE or DELETE statements.
  Corrections happen through new ADJUSTMENT lines.

KEY TABLES:
  time_entries / entry_breaks: clock spans and their breaks
  leave_transactions:          immutable accrual ledger
  leave_balances:              balance snapshots (upserted)
  leave_requests:              request workflow state
  leave_types:                 reference data
  policies:                    leave/overtime policies, config as JSON

WAL MODE:
  The database is opened with WAL journaling so readers do not block the
  single writer.

MIGRATION:
  Schema is auto-migrated on New(). For production use a proper migration
  tool with versioned migrations.

USAGE:
  st, err := sqlite.New("./data/hrmis.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/solomon-wilson/hrmis-sub001/leave"
	"github.com/solomon-wilson/hrmis-sub001/policy"
	"github.com/solomon-wilson/hrmis-sub001/store"
	"github.com/solomon-wilson/hrmis-sub001/timesheet"
)

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS time_entries (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		clock_in TEXT NOT NULL,
		clock_out TEXT,
		status TEXT NOT NULL,
		manual_entry BOOLEAN NOT NULL DEFAULT FALSE,
		note TEXT,
		approver_id TEXT,
		approved_at TEXT,
		total_hours TEXT NOT NULL DEFAULT '0',
		regular_hours TEXT NOT NULL DEFAULT '0',
		overtime_hours TEXT NOT NULL DEFAULT '0',
		double_hours TEXT NOT NULL DEFAULT '0'
	);

	CREATE INDEX IF NOT EXISTS idx_entries_employee_clock_in
		ON time_entries(employee_id, clock_in);
	CREATE INDEX IF NOT EXISTS idx_entries_status
		ON time_entries(status);

	CREATE TABLE IF NOT EXISTS entry_breaks (
		id TEXT PRIMARY KEY,
		entry_id TEXT NOT NULL,
		type TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT,
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		paid BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_breaks_entry
		ON entry_breaks(entry_id);

	-- Append-only ledger: no UPDATE or DELETE, ever.
	CREATE TABLE IF NOT EXISTS leave_transactions (
		id TEXT PRIMARY KEY,
		balance_id TEXT NOT NULL,
		type TEXT NOT NULL,
		amount TEXT NOT NULL,
		description TEXT,
		date TEXT NOT NULL,
		request_id TEXT,
		created_by TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_balance_date
		ON leave_transactions(balance_id, date);
	CREATE INDEX IF NOT EXISTS idx_transactions_request
		ON leave_transactions(request_id) WHERE request_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS leave_balances (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		leave_type_id TEXT NOT NULL,
		current TEXT NOT NULL,
		accrual_rate TEXT NOT NULL,
		period TEXT NOT NULL,
		max_balance TEXT,
		carryover_limit TEXT,
		last_accrual_date TEXT,
		year_used TEXT NOT NULL DEFAULT '0',
		year_accrued TEXT NOT NULL DEFAULT '0',
		effective_date TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_balances_employee_type
		ON leave_balances(employee_id, leave_type_id, effective_date DESC);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		leave_type_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		total_days TEXT NOT NULL,
		total_hours TEXT NOT NULL,
		reason TEXT,
		status TEXT NOT NULL,
		submitted_at TEXT NOT NULL,
		reviewer_id TEXT,
		reviewed_at TEXT,
		review_notes TEXT,
		attachments_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_requests_employee
		ON leave_requests(employee_id);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON leave_requests(status);

	CREATE TABLE IF NOT EXISTS leave_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		code TEXT NOT NULL,
		paid BOOLEAN NOT NULL DEFAULT TRUE,
		requires_approval BOOLEAN NOT NULL DEFAULT TRUE,
		max_consecutive_days INTEGER,
		advance_notice_days INTEGER,
		allows_partial_days BOOLEAN NOT NULL DEFAULT FALSE,
		accrual_based BOOLEAN NOT NULL DEFAULT TRUE,
		active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_leave_types_code
		ON leave_types(code);

	CREATE TABLE IF NOT EXISTS policies (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		config_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_policies_kind
		ON policies(kind);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ENTRIES
// =============================================================================

// SaveEntry upserts the entry and rewrites its breaks atomically. The
// breaks table mirrors the aggregate, so it is replaced wholesale.
func (s *Store) SaveEntry(ctx context.Context, e timesheet.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO time_entries
		(id, employee_id, clock_in, clock_out, status, manual_entry, note,
		 approver_id, approved_at, total_hours, regular_hours, overtime_hours, double_hours)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			clock_out = excluded.clock_out,
			status = excluded.status,
			note = excluded.note,
			approver_id = excluded.approver_id,
			approved_at = excluded.approved_at,
			total_hours = excluded.total_hours,
			regular_hours = excluded.regular_hours,
			overtime_hours = excluded.overtime_hours,
			double_hours = excluded.double_hours
	`,
		e.ID, e.EmployeeID,
		e.ClockIn.Format(time.RFC3339),
		nullTime(e.ClockOut),
		e.Status, e.ManualEntry, e.Note,
		nullString(strPtr(e.ApproverID)),
		nullTime(e.ApprovedAt),
		e.TotalHours.String(), e.RegularHours.String(),
		e.OvertimeHours.String(), e.DoubleHours.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save entry: %w", err)
	}

	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM entry_breaks WHERE entry_id = ?", e.ID); err != nil {
		return fmt.Errorf("failed to clear breaks: %w", err)
	}
	for _, b := range e.Breaks {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO entry_breaks (id, entry_id, type, start_time, end_time, duration_minutes, paid)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			b.ID, e.ID, b.Type,
			b.StartTime.Format(time.RFC3339),
			nullTime(b.EndTime),
			b.DurationMinutes, b.Paid,
		)
		if err != nil {
			return fmt.Errorf("failed to save break: %w", err)
		}
	}

	return sqlTx.Commit()
}

func (s *Store) GetEntry(ctx context.Context, id string) (timesheet.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, entrySelect+" WHERE id = ?", id)

	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return timesheet.Entry{}, store.ErrNotFound
	}
	if err != nil {
		return timesheet.Entry{}, err
	}

	e.Breaks, err = s.loadBreaks(ctx, e.ID)
	if err != nil {
		return timesheet.Entry{}, err
	}
	return e, nil
}

func (s *Store) ListEntries(ctx context.Context, f store.EntryFilter) ([]timesheet.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := entrySelect + " WHERE 1=1"
	var args []any
	if f.EmployeeID != "" {
		query += " AND employee_id = ?"
		args = append(args, f.EmployeeID)
	}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	if !f.From.IsZero() {
		query += " AND clock_in >= ?"
		args = append(args, f.From.Format(time.RFC3339))
	}
	if !f.To.IsZero() {
		query += " AND clock_in <= ?"
		args = append(args, f.To.Format(time.RFC3339))
	}
	query += " ORDER BY clock_in ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []timesheet.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range entries {
		entries[i].Breaks, err = s.loadBreaks(ctx, entries[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (s *Store) ActiveEntry(ctx context.Context, employeeID string) (timesheet.Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		entrySelect+" WHERE employee_id = ? AND status = ? LIMIT 1",
		employeeID, timesheet.StatusActive)

	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return timesheet.Entry{}, false, nil
	}
	if err != nil {
		return timesheet.Entry{}, false, err
	}

	e.Breaks, err = s.loadBreaks(ctx, e.ID)
	if err != nil {
		return timesheet.Entry{}, false, err
	}
	return e, true, nil
}

func (s *Store) loadBreaks(ctx context.Context, entryID string) ([]timesheet.Break, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entry_id, type, start_time, end_time, duration_minutes, paid
		FROM entry_breaks WHERE entry_id = ?
		ORDER BY start_time ASC
	`, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query breaks: %w", err)
	}
	defer rows.Close()

	var breaks []timesheet.Break
	for rows.Next() {
		var (
			b         timesheet.Break
			startTime string
			endTime   sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.EntryID, &b.Type, &startTime, &endTime, &b.DurationMinutes, &b.Paid); err != nil {
			return nil, fmt.Errorf("failed to scan break: %w", err)
		}
		b.StartTime, _ = time.Parse(time.RFC3339, startTime)
		if endTime.Valid {
			t, _ := time.Parse(time.RFC3339, endTime.String)
			b.EndTime = &t
		}
		breaks = append(breaks, b)
	}
	return breaks, rows.Err()
}

const entrySelect = `
	SELECT id, employee_id, clock_in, clock_out, status, manual_entry, note,
	       approver_id, approved_at, total_hours, regular_hours, overtime_hours, double_hours
	FROM time_entries`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (timesheet.Entry, error) {
	var (
		e          timesheet.Entry
		clockIn    string
		clockOut   sql.NullString
		note       sql.NullString
		approverID sql.NullString
		approvedAt sql.NullString
		total      string
		regular    string
		overtime   string
		double     string
	)

	err := row.Scan(
		&e.ID, &e.EmployeeID, &clockIn, &clockOut, &e.Status, &e.ManualEntry, &note,
		&approverID, &approvedAt, &total, &regular, &overtime, &double,
	)
	if err != nil {
		return e, err
	}

	e.ClockIn, _ = time.Parse(time.RFC3339, clockIn)
	if clockOut.Valid {
		t, _ := time.Parse(time.RFC3339, clockOut.String)
		e.ClockOut = &t
	}
	e.Note = note.String
	if approverID.Valid {
		v := approverID.String
		e.ApproverID = &v
	}
	if approvedAt.Valid {
		t, _ := time.Parse(time.RFC3339, approvedAt.String)
		e.ApprovedAt = &t
	}
	e.TotalHours = parseDecimal(total)
	e.RegularHours = parseDecimal(regular)
	e.OvertimeHours = parseDecimal(overtime)
	e.DoubleHours = parseDecimal(double)
	return e, nil
}

// =============================================================================
// LEDGER (append-only)
// =============================================================================

// AppendTransaction inserts a ledger line. Duplicate ids are rejected;
// there is no update path.
func (s *Store) AppendTransaction(ctx context.Context, tx leave.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_transactions
		(id, balance_id, type, amount, description, date, request_id, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		tx.ID, tx.BalanceID, tx.Type,
		tx.Amount.String(), tx.Description,
		tx.Date.Format(time.RFC3339),
		nullString(tx.RequestID),
		tx.CreatedBy,
		tx.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return store.ErrDuplicateID
		}
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, balanceID string) ([]leave.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, balance_id, type, amount, description, date, request_id, created_by, created_at
		FROM leave_transactions
		WHERE balance_id = ?
		ORDER BY date ASC, created_at ASC
	`, balanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []leave.Transaction
	for rows.Next() {
		var (
			tx          leave.Transaction
			amount      string
			date        string
			description sql.NullString
			requestID   sql.NullString
			createdBy   sql.NullString
			createdAt   string
		)
		if err := rows.Scan(&tx.ID, &tx.BalanceID, &tx.Type, &amount, &description, &date, &requestID, &createdBy, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Amount = parseDecimal(amount)
		tx.Description = description.String
		tx.RequestID = requestID.String
		tx.CreatedBy = createdBy.String
		tx.Date, _ = time.Parse(time.RFC3339, date)
		tx.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// =============================================================================
// BALANCES
// =============================================================================

func (s *Store) SaveBalance(ctx context.Context, b leave.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_balances
		(id, employee_id, leave_type_id, current, accrual_rate, period,
		 max_balance, carryover_limit, last_accrual_date, year_used, year_accrued, effective_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			current = excluded.current,
			accrual_rate = excluded.accrual_rate,
			period = excluded.period,
			max_balance = excluded.max_balance,
			carryover_limit = excluded.carryover_limit,
			last_accrual_date = excluded.last_accrual_date,
			year_used = excluded.year_used,
			year_accrued = excluded.year_accrued,
			effective_date = excluded.effective_date
	`,
		b.ID, b.EmployeeID, b.LeaveTypeID,
		b.Current.String(), b.AccrualRate.String(), b.Period,
		nullDecimal(b.MaxBalance), nullDecimal(b.CarryoverLimit),
		b.LastAccrualDate.Format(time.RFC3339),
		b.YearUsed.String(), b.YearAccrued.String(),
		b.EffectiveDate.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save balance: %w", err)
	}
	return nil
}

func (s *Store) GetBalance(ctx context.Context, id string) (leave.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, balanceSelect+" WHERE id = ?", id)
	b, err := scanBalance(row)
	if err == sql.ErrNoRows {
		return leave.Balance{}, store.ErrNotFound
	}
	return b, err
}

// FindBalance returns the most recent effective-dated balance for the
// employee and leave type.
func (s *Store) FindBalance(ctx context.Context, employeeID, leaveTypeID string) (leave.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		balanceSelect+` WHERE employee_id = ? AND leave_type_id = ?
		ORDER BY effective_date DESC LIMIT 1`,
		employeeID, leaveTypeID)

	b, err := scanBalance(row)
	if err == sql.ErrNoRows {
		return leave.Balance{}, store.ErrNotFound
	}
	return b, err
}

func (s *Store) ListBalances(ctx context.Context, employeeID string) ([]leave.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := balanceSelect + " WHERE 1=1"
	var args []any
	if employeeID != "" {
		query += " AND employee_id = ?"
		args = append(args, employeeID)
	}
	query += " ORDER BY leave_type_id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer rows.Close()

	var balances []leave.Balance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

const balanceSelect = `
	SELECT id, employee_id, leave_type_id, current, accrual_rate, period,
	       max_balance, carryover_limit, last_accrual_date, year_used, year_accrued, effective_date
	FROM leave_balances`

func scanBalance(row rowScanner) (leave.Balance, error) {
	var (
		b              leave.Balance
		current        string
		rate           string
		maxBalance     sql.NullString
		carryoverLimit sql.NullString
		lastAccrual    sql.NullString
		yearUsed       string
		yearAccrued    string
		effectiveDate  sql.NullString
	)

	err := row.Scan(
		&b.ID, &b.EmployeeID, &b.LeaveTypeID, &current, &rate, &b.Period,
		&maxBalance, &carryoverLimit, &lastAccrual, &yearUsed, &yearAccrued, &effectiveDate,
	)
	if err != nil {
		return b, err
	}

	b.Current = parseDecimal(current)
	b.AccrualRate = parseDecimal(rate)
	b.YearUsed = parseDecimal(yearUsed)
	b.YearAccrued = parseDecimal(yearAccrued)
	if maxBalance.Valid {
		d := parseDecimal(maxBalance.String)
		b.MaxBalance = &d
	}
	if carryoverLimit.Valid {
		d := parseDecimal(carryoverLimit.String)
		b.CarryoverLimit = &d
	}
	if lastAccrual.Valid {
		b.LastAccrualDate, _ = time.Parse(time.RFC3339, lastAccrual.String)
	}
	if effectiveDate.Valid {
		b.EffectiveDate, _ = time.Parse(time.RFC3339, effectiveDate.String)
	}
	return b, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

func (s *Store) SaveRequest(ctx context.Context, r leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	attachmentsJSON, _ := json.Marshal(r.Attachments)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_requests
		(id, employee_id, leave_type_id, start_date, end_date, total_days, total_hours,
		 reason, status, submitted_at, reviewer_id, reviewed_at, review_notes, attachments_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			reviewer_id = excluded.reviewer_id,
			reviewed_at = excluded.reviewed_at,
			review_notes = excluded.review_notes
	`,
		r.ID, r.EmployeeID, r.LeaveTypeID,
		r.StartDate.Format(time.RFC3339), r.EndDate.Format(time.RFC3339),
		r.TotalDays.String(), r.TotalHours.String(),
		r.Reason, r.Status,
		r.SubmittedAt.Format(time.RFC3339),
		nullString(strPtr(r.ReviewerID)),
		nullTime(r.ReviewedAt),
		r.ReviewNotes,
		string(attachmentsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save request: %w", err)
	}
	return nil
}

func (s *Store) GetRequest(ctx context.Context, id string) (leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, requestSelect+" WHERE id = ?", id)
	r, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return leave.Request{}, store.ErrNotFound
	}
	return r, err
}

func (s *Store) ListRequests(ctx context.Context, f store.RequestFilter) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := requestSelect + " WHERE 1=1"
	var args []any
	if f.EmployeeID != "" {
		query += " AND employee_id = ?"
		args = append(args, f.EmployeeID)
	}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	query += " ORDER BY start_date ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

const requestSelect = `
	SELECT id, employee_id, leave_type_id, start_date, end_date, total_days, total_hours,
	       reason, status, submitted_at, reviewer_id, reviewed_at, review_notes, attachments_json
	FROM leave_requests`

func scanRequest(row rowScanner) (leave.Request, error) {
	var (
		r               leave.Request
		startDate       string
		endDate         string
		totalDays       string
		totalHours      string
		reason          sql.NullString
		submittedAt     string
		reviewerID      sql.NullString
		reviewedAt      sql.NullString
		reviewNotes     sql.NullString
		attachmentsJSON sql.NullString
	)

	err := row.Scan(
		&r.ID, &r.EmployeeID, &r.LeaveTypeID, &startDate, &endDate, &totalDays, &totalHours,
		&reason, &r.Status, &submittedAt, &reviewerID, &reviewedAt, &reviewNotes, &attachmentsJSON,
	)
	if err != nil {
		return r, err
	}

	r.StartDate, _ = time.Parse(time.RFC3339, startDate)
	r.EndDate, _ = time.Parse(time.RFC3339, endDate)
	r.TotalDays = parseDecimal(totalDays)
	r.TotalHours = parseDecimal(totalHours)
	r.Reason = reason.String
	r.SubmittedAt, _ = time.Parse(time.RFC3339, submittedAt)
	if reviewerID.Valid {
		v := reviewerID.String
		r.ReviewerID = &v
	}
	if reviewedAt.Valid {
		t, _ := time.Parse(time.RFC3339, reviewedAt.String)
		r.ReviewedAt = &t
	}
	r.ReviewNotes = reviewNotes.String
	if attachmentsJSON.Valid && attachmentsJSON.String != "" {
		json.Unmarshal([]byte(attachmentsJSON.String), &r.Attachments)
	}
	return r, nil
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

func (s *Store) SaveLeaveType(ctx context.Context, lt leave.LeaveType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_types
		(id, name, code, paid, requires_approval, max_consecutive_days,
		 advance_notice_days, allows_partial_days, accrual_based, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			code = excluded.code,
			paid = excluded.paid,
			requires_approval = excluded.requires_approval,
			max_consecutive_days = excluded.max_consecutive_days,
			advance_notice_days = excluded.advance_notice_days,
			allows_partial_days = excluded.allows_partial_days,
			accrual_based = excluded.accrual_based,
			active = excluded.active
	`,
		lt.ID, lt.Name, lt.Code, lt.Paid, lt.RequiresApproval,
		nullInt(lt.MaxConsecutiveDays), nullInt(lt.AdvanceNoticeDays),
		lt.AllowsPartialDays, lt.AccrualBased, lt.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to save leave type: %w", err)
	}
	return nil
}

func (s *Store) GetLeaveType(ctx context.Context, id string) (leave.LeaveType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, leaveTypeSelect+" WHERE id = ?", id)
	lt, err := scanLeaveType(row)
	if err == sql.ErrNoRows {
		return leave.LeaveType{}, store.ErrNotFound
	}
	return lt, err
}

func (s *Store) ListLeaveTypes(ctx context.Context) ([]leave.LeaveType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, leaveTypeSelect+" ORDER BY code ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query leave types: %w", err)
	}
	defer rows.Close()

	var types []leave.LeaveType
	for rows.Next() {
		lt, err := scanLeaveType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, lt)
	}
	return types, rows.Err()
}

const leaveTypeSelect = `
	SELECT id, name, code, paid, requires_approval, max_consecutive_days,
	       advance_notice_days, allows_partial_days, accrual_based, active
	FROM leave_types`

func scanLeaveType(row rowScanner) (leave.LeaveType, error) {
	var (
		lt             leave.LeaveType
		maxConsecutive sql.NullInt64
		advanceNotice  sql.NullInt64
	)

	err := row.Scan(
		&lt.ID, &lt.Name, &lt.Code, &lt.Paid, &lt.RequiresApproval,
		&maxConsecutive, &advanceNotice, &lt.AllowsPartialDays, &lt.AccrualBased, &lt.Active,
	)
	if err != nil {
		return lt, err
	}

	if maxConsecutive.Valid {
		v := int(maxConsecutive.Int64)
		lt.MaxConsecutiveDays = &v
	}
	if advanceNotice.Valid {
		v := int(advanceNotice.Int64)
		lt.AdvanceNoticeDays = &v
	}
	return lt, nil
}

// =============================================================================
// POLICIES
// =============================================================================

// SavePolicy upserts a policy with its configuration serialized as JSON.
func (s *Store) SavePolicy(ctx context.Context, p policy.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id string
	var config any
	switch p.Kind {
	case policy.KindLeave:
		id, config = p.Leave.ID, p.Leave
	case policy.KindOvertime:
		id, config = p.Overtime.ID, p.Overtime
	default:
		return fmt.Errorf("unknown policy kind %q", p.Kind)
	}

	configJSON, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode policy: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO policies (id, kind, config_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			config_json = excluded.config_json,
			updated_at = excluded.updated_at
	`, id, p.Kind, string(configJSON), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}
	return nil
}

func (s *Store) ListLeavePolicies(ctx context.Context) ([]policy.LeavePolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT config_json FROM policies WHERE kind = ? ORDER BY id ASC", policy.KindLeave)
	if err != nil {
		return nil, fmt.Errorf("failed to query policies: %w", err)
	}
	defer rows.Close()

	var policies []policy.LeavePolicy
	for rows.Next() {
		var configJSON string
		if err := rows.Scan(&configJSON); err != nil {
			return nil, err
		}
		var p policy.LeavePolicy
		if err := json.Unmarshal([]byte(configJSON), &p); err != nil {
			return nil, fmt.Errorf("failed to decode policy: %w", err)
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

func (s *Store) ListOvertimePolicies(ctx context.Context) ([]policy.OvertimePolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT config_json FROM policies WHERE kind = ? ORDER BY id ASC", policy.KindOvertime)
	if err != nil {
		return nil, fmt.Errorf("failed to query policies: %w", err)
	}
	defer rows.Close()

	var policies []policy.OvertimePolicy
	for rows.Next() {
		var configJSON string
		if err := rows.Scan(&configJSON); err != nil {
			return nil, err
		}
		var p policy.OvertimePolicy
		if err := json.Unmarshal([]byte(configJSON), &p); err != nil {
			return nil, fmt.Errorf("failed to decode policy: %w", err)
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func strPtr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseDecimal(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
