/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements every persistence interface the engine needs using SQLite. The
  gormstore package carries the same contract for PostgreSQL.

INTERFACES IMPLEMENTED:
  generic.Store:         Transaction persistence (append-only)
  generic.TxStore:       Atomic multi-write transactions
  generic.BalanceStore:  Materialized monthly balances + generation counters
  overtime.RecordStore:  Employees, time entries, absences, corrections, holidays

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the transactions or corrections tables
  - No DELETE statements on the transactions or corrections tables
  - Ledger changes happen via reversal transactions only

KEY TABLES:
  transactions:        Immutable ledger of all balance changes
  employees:           HR records (schedule stored as JSON)
  time_entries:        Worked hours per day
  absences:            Absence requests with status
  corrections:         Signed manual adjustments
  holidays:            Public holidays per year
  holiday_years:       Which years were loaded at all
  monthly_balances:    Cached per-month summaries
  balance_generations: Per-month invalidation counters

STALE WRITES:
  UpsertMonthlyBalance is conditional on the generation column, so a slow
  writer that computed from older inputs cannot overwrite a newer row.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety and a single connection, so ":memory:"
  databases stay one database. PostgreSQL relies on database-level control.

MIGRATION:
  Versioned goose migrations embedded from migrations/*.sql, applied on New().

USAGE:
  store, err := sqlite.New("./data/overtime.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := generic.NewLedger(store)

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
  - store/gormstore: PostgreSQL implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// =============================================================================
// TRANSACTION STORE (generic.Store interface)
// =============================================================================

const transactionColumns = `id, employee_id, effective_at, hours, tx_type, event_key,
	reference_id, description, idempotency_key, metadata_json, created_by, created_at`

// Append adds a transaction to the ledger.
func (s *Store) Append(ctx context.Context, tx generic.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return appendTx(ctx, s.db, tx)
}

func appendTx(ctx context.Context, db querier, tx generic.Transaction) error {
	metadataJSON, _ := json.Marshal(tx.Metadata)

	createdAt := tx.CreatedAt
	if createdAt.IsZero() {
		createdAt = generic.DateOf(time.Now().UTC())
	}

	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		string(tx.ID),
		tx.EmployeeID,
		tx.EffectiveAt.String(),
		tx.Hours.String(),
		string(tx.Type),
		tx.EventKey,
		nullString(tx.ReferenceID),
		nullString(tx.Description),
		nullString(tx.IdempotencyKey),
		string(metadataJSON),
		tx.CreatedBy,
		createdAt.String(),
	)

	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append transaction: %w", err)
	}

	return nil
}

// AppendBatch adds multiple transactions atomically.
func (s *Store) AppendBatch(ctx context.Context, txs []generic.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check for duplicate idempotency keys within the batch first
	idempotencyKeys := make(map[string]bool)
	for _, tx := range txs {
		if tx.IdempotencyKey != "" {
			if idempotencyKeys[tx.IdempotencyKey] {
				return generic.ErrDuplicateIdempotencyKey
			}
			idempotencyKeys[tx.IdempotencyKey] = true
		}
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, tx := range txs {
		if err := appendTx(ctx, sqlTx, tx); err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

// Load returns all transactions for an employee in ledger order.
func (s *Store) Load(ctx context.Context, employeeID string) ([]generic.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return loadTransactions(ctx, s.db, employeeID)
}

func loadTransactions(ctx context.Context, db querier, employeeID string) ([]generic.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE employee_id = ?
		ORDER BY effective_at ASC, rowid ASC
	`

	return queryTransactions(ctx, db, query, employeeID)
}

// LoadRange returns transactions with effective dates in [from, to].
func (s *Store) LoadRange(ctx context.Context, employeeID string, from, to generic.Date) ([]generic.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return loadTransactionRange(ctx, s.db, employeeID, from, to)
}

func loadTransactionRange(ctx context.Context, db querier, employeeID string, from, to generic.Date) ([]generic.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE employee_id = ?
		  AND effective_at >= ? AND effective_at <= ?
		ORDER BY effective_at ASC, rowid ASC
	`

	return queryTransactions(ctx, db, query, employeeID, from.String(), to.String())
}

// Exists checks if an idempotency key exists.
func (s *Store) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return keyExists(ctx, s.db, idempotencyKey)
}

func keyExists(ctx context.Context, db querier, idempotencyKey string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE idempotency_key = ?",
		idempotencyKey,
	).Scan(&count)

	return count > 0, err
}

func queryTransactions(ctx context.Context, db querier, query string, args ...any) ([]generic.Transaction, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []generic.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}

	return transactions, rows.Err()
}

func scanTransaction(rows *sql.Rows) (generic.Transaction, error) {
	var (
		tx             generic.Transaction
		id             string
		effectiveAt    string
		hours          string
		txType         string
		referenceID    sql.NullString
		description    sql.NullString
		idempotencyKey sql.NullString
		metadataJSON   sql.NullString
		createdAt      string
	)

	err := rows.Scan(
		&id, &tx.EmployeeID, &effectiveAt, &hours, &txType, &tx.EventKey,
		&referenceID, &description, &idempotencyKey, &metadataJSON,
		&tx.CreatedBy, &createdAt,
	)
	if err != nil {
		return tx, fmt.Errorf("failed to scan transaction: %w", err)
	}

	var dec generic.ColumnDecoder
	tx.ID = generic.TransactionID(id)
	tx.Type = generic.TransactionType(txType)
	tx.EffectiveAt = dec.Date("effective_at", effectiveAt)
	tx.CreatedAt = dec.Date("created_at", createdAt)
	tx.Hours = dec.Hours("hours", hours)
	if err := dec.Err(); err != nil {
		return tx, fmt.Errorf("transaction %s: %w", id, err)
	}
	tx.ReferenceID = referenceID.String
	tx.Description = description.String
	tx.IdempotencyKey = idempotencyKey.String

	if metadataJSON.Valid && metadataJSON.String != "" && metadataJSON.String != "null" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &tx.Metadata); err != nil {
			return tx, fmt.Errorf("transaction %s: corrupt metadata: %w", id, err)
		}
	}

	return tx, nil
}

// =============================================================================
// TRANSACTIONAL STORE (generic.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store generic.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore reads and writes through the open transaction; the parent lock is
// already held.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) Append(ctx context.Context, tx generic.Transaction) error {
	return appendTx(ctx, ts.tx, tx)
}

func (ts *txStore) AppendBatch(ctx context.Context, txs []generic.Transaction) error {
	for _, tx := range txs {
		if err := appendTx(ctx, ts.tx, tx); err != nil {
			return err
		}
	}
	return nil
}

func (ts *txStore) Load(ctx context.Context, employeeID string) ([]generic.Transaction, error) {
	return loadTransactions(ctx, ts.tx, employeeID)
}

func (ts *txStore) LoadRange(ctx context.Context, employeeID string, from, to generic.Date) ([]generic.Transaction, error) {
	return loadTransactionRange(ctx, ts.tx, employeeID, from, to)
}

func (ts *txStore) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	return keyExists(ctx, ts.tx, idempotencyKey)
}

// =============================================================================
// MONTHLY BALANCES (generic.BalanceStore interface)
// =============================================================================

// GetMonthlyBalance returns nil, nil when the month was never materialized.
func (s *Store) GetMonthlyBalance(ctx context.Context, employeeID string, month generic.MonthKey) (*generic.MonthlyBalance, error) {
	rows, err := s.queryBalances(ctx, `
		SELECT employee_id, month, target_hours, actual_hours, overtime,
		       carryover_from_previous_year, computed_through, generation
		FROM monthly_balances
		WHERE employee_id = ? AND month = ?
	`, employeeID, string(month))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ListMonthlyBalances returns stored rows in [from, to], ascending.
func (s *Store) ListMonthlyBalances(ctx context.Context, employeeID string, from, to generic.MonthKey) ([]generic.MonthlyBalance, error) {
	return s.queryBalances(ctx, `
		SELECT employee_id, month, target_hours, actual_hours, overtime,
		       carryover_from_previous_year, computed_through, generation
		FROM monthly_balances
		WHERE employee_id = ? AND month >= ? AND month <= ?
		ORDER BY month ASC
	`, employeeID, string(from), string(to))
}

func (s *Store) queryBalances(ctx context.Context, query string, args ...any) ([]generic.MonthlyBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly balances: %w", err)
	}
	defer rows.Close()

	var balances []generic.MonthlyBalance
	for rows.Next() {
		var (
			b                         generic.MonthlyBalance
			month, target, actual, ot string
			carryover                 sql.NullString
			computedThrough           string
		)
		if err := rows.Scan(&b.EmployeeID, &month, &target, &actual, &ot,
			&carryover, &computedThrough, &b.Generation); err != nil {
			return nil, fmt.Errorf("failed to scan monthly balance: %w", err)
		}
		var dec generic.ColumnDecoder
		b.Month = generic.MonthKey(month)
		b.TargetHours = dec.Hours("target_hours", target)
		b.ActualHours = dec.Hours("actual_hours", actual)
		b.Overtime = dec.Hours("overtime", ot)
		if carryover.Valid {
			c := dec.Hours("carryover_from_previous_year", carryover.String)
			b.CarryoverFromPreviousYear = &c
		}
		b.ComputedThrough = dec.Date("computed_through", computedThrough)
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("monthly balance %s/%s: %w", b.EmployeeID, month, err)
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// UpsertMonthlyBalance writes the row unless a newer generation is stored.
func (s *Store) UpsertMonthlyBalance(ctx context.Context, row generic.MonthlyBalance) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var carryover sql.NullString
	if row.CarryoverFromPreviousYear != nil {
		carryover = sql.NullString{String: row.CarryoverFromPreviousYear.String(), Valid: true}
	}

	query := `
		INSERT INTO monthly_balances
		(employee_id, month, target_hours, actual_hours, overtime,
		 carryover_from_previous_year, computed_through, generation, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, month) DO UPDATE SET
			target_hours = excluded.target_hours,
			actual_hours = excluded.actual_hours,
			overtime = excluded.overtime,
			carryover_from_previous_year = excluded.carryover_from_previous_year,
			computed_through = excluded.computed_through,
			generation = excluded.generation,
			updated_at = excluded.updated_at
		WHERE excluded.generation >= monthly_balances.generation
	`

	res, err := s.db.ExecContext(ctx, query,
		row.EmployeeID, string(row.Month),
		row.TargetHours.String(), row.ActualHours.String(), row.Overtime.String(),
		carryover, row.ComputedThrough.String(), row.Generation,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert monthly balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MonthGeneration returns the month's invalidation counter.
func (s *Store) MonthGeneration(ctx context.Context, employeeID string, month generic.MonthKey) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var generation int64
	err := s.db.QueryRowContext(ctx,
		"SELECT generation FROM balance_generations WHERE employee_id = ? AND month = ?",
		employeeID, string(month),
	).Scan(&generation)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return generation, err
}

// BumpGenerations marks months dirty in one transaction.
func (s *Store) BumpGenerations(ctx context.Context, employeeID string, months []generic.MonthKey) error {
	if len(months) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, month := range months {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO balance_generations (employee_id, month, generation)
			VALUES (?, ?, 1)
			ON CONFLICT(employee_id, month) DO UPDATE SET
				generation = balance_generations.generation + 1
		`, employeeID, string(month))
		if err != nil {
			return fmt.Errorf("failed to bump generation %s: %w", month, err)
		}
	}

	return sqlTx.Commit()
}

// =============================================================================
// EMPLOYEES
// =============================================================================

const employeeColumns = "id, name, hire_date, termination_date, weekly_hours, schedule_json"

// SaveEmployee creates or replaces an employee.
func (s *Store) SaveEmployee(ctx context.Context, emp overtime.Employee) error {
	if err := emp.Validate(); err != nil {
		return err
	}

	var schedule sql.NullString
	if emp.Schedule != nil {
		b, err := json.Marshal(emp.Schedule)
		if err != nil {
			return fmt.Errorf("failed to encode schedule: %w", err)
		}
		schedule = sql.NullString{String: string(b), Valid: true}
	}
	var termination sql.NullString
	if emp.TerminationDate != nil {
		termination = nullString(emp.TerminationDate.String())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, name, hire_date, termination_date, weekly_hours, schedule_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			hire_date = excluded.hire_date,
			termination_date = excluded.termination_date,
			weekly_hours = excluded.weekly_hours,
			schedule_json = excluded.schedule_json,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		emp.ID, emp.Name, emp.HireDate.String(), termination,
		emp.WeeklyHours.String(), schedule, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id string) (*overtime.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query employee: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, &generic.NotFoundError{Kind: "employee", ID: id}
	}
	emp, err := scanEmployee(rows)
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

// ListEmployees returns all employees ordered by ID.
func (s *Store) ListEmployees(ctx context.Context) ([]overtime.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+employeeColumns+" FROM employees ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []overtime.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func scanEmployee(rows *sql.Rows) (overtime.Employee, error) {
	var (
		emp                   overtime.Employee
		hireDate, weeklyHours string
		termination, schedule sql.NullString
	)
	if err := rows.Scan(&emp.ID, &emp.Name, &hireDate, &termination, &weeklyHours, &schedule); err != nil {
		return emp, fmt.Errorf("failed to scan employee: %w", err)
	}

	var dec generic.ColumnDecoder
	emp.HireDate = dec.Date("hire_date", hireDate)
	emp.WeeklyHours = dec.Hours("weekly_hours", weeklyHours)
	if termination.Valid {
		d := dec.Date("termination_date", termination.String)
		emp.TerminationDate = &d
	}
	if err := dec.Err(); err != nil {
		return emp, fmt.Errorf("employee %s: %w", emp.ID, err)
	}
	if schedule.Valid && schedule.String != "" {
		var ws overtime.WorkSchedule
		if err := json.Unmarshal([]byte(schedule.String), &ws); err != nil {
			return emp, fmt.Errorf("failed to decode schedule of %s: %w", emp.ID, err)
		}
		emp.Schedule = &ws
	}
	return emp, nil
}

// =============================================================================
// TIME ENTRIES
// =============================================================================

// SaveTimeEntry creates or replaces a time entry.
func (s *Store) SaveTimeEntry(ctx context.Context, t overtime.TimeEntry) error {
	if err := t.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO time_entries (id, employee_id, date, hours, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_id = excluded.employee_id,
			date = excluded.date,
			hours = excluded.hours
	`

	_, err := s.db.ExecContext(ctx, query,
		t.ID, t.EmployeeID, t.Date.String(), t.Hours.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save time entry: %w", err)
	}
	return nil
}

// DeleteTimeEntry removes an entry and returns what was removed.
func (s *Store) DeleteTimeEntry(ctx context.Context, id string) (*overtime.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	entries, err := queryTimeEntries(ctx, sqlTx,
		"SELECT id, employee_id, date, hours FROM time_entries WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, &generic.NotFoundError{Kind: "time entry", ID: id}
	}

	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM time_entries WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("failed to delete time entry: %w", err)
	}
	if err := sqlTx.Commit(); err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// TimeEntries returns entries dated in [from, to].
func (s *Store) TimeEntries(ctx context.Context, employeeID string, from, to generic.Date) ([]overtime.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return queryTimeEntries(ctx, s.db, `
		SELECT id, employee_id, date, hours
		FROM time_entries
		WHERE employee_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC, id ASC
	`, employeeID, from.String(), to.String())
}

func queryTimeEntries(ctx context.Context, db querier, query string, args ...any) ([]overtime.TimeEntry, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query time entries: %w", err)
	}
	defer rows.Close()

	var entries []overtime.TimeEntry
	for rows.Next() {
		var t overtime.TimeEntry
		var date, hours string
		if err := rows.Scan(&t.ID, &t.EmployeeID, &date, &hours); err != nil {
			return nil, fmt.Errorf("failed to scan time entry: %w", err)
		}
		var dec generic.ColumnDecoder
		t.Date = dec.Date("date", date)
		t.Hours = dec.Hours("hours", hours)
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("time entry %s: %w", t.ID, err)
		}
		entries = append(entries, t)
	}
	return entries, rows.Err()
}

// =============================================================================
// ABSENCES
// =============================================================================

// SaveAbsence creates or replaces an absence request.
func (s *Store) SaveAbsence(ctx context.Context, a overtime.AbsenceRequest) error {
	if err := a.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO absences (id, employee_id, absence_type, start_date, end_date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_id = excluded.employee_id,
			absence_type = excluded.absence_type,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			status = excluded.status,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.EmployeeID, a.Type.String(), a.Start.String(), a.End.String(),
		string(a.Status), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save absence: %w", err)
	}
	return nil
}

// GetAbsence retrieves an absence request by ID.
func (s *Store) GetAbsence(ctx context.Context, id string) (*overtime.AbsenceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	absences, err := s.queryAbsences(ctx, `
		SELECT id, employee_id, absence_type, start_date, end_date, status
		FROM absences WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	if len(absences) == 0 {
		return nil, &generic.NotFoundError{Kind: "absence", ID: id}
	}
	return &absences[0], nil
}

// Absences returns requests of any status overlapping [from, to].
func (s *Store) Absences(ctx context.Context, employeeID string, from, to generic.Date) ([]overtime.AbsenceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAbsences(ctx, `
		SELECT id, employee_id, absence_type, start_date, end_date, status
		FROM absences
		WHERE employee_id = ? AND start_date <= ? AND end_date >= ?
		ORDER BY start_date ASC, id ASC
	`, employeeID, to.String(), from.String())
}

func (s *Store) queryAbsences(ctx context.Context, query string, args ...any) ([]overtime.AbsenceRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query absences: %w", err)
	}
	defer rows.Close()

	var absences []overtime.AbsenceRequest
	for rows.Next() {
		var a overtime.AbsenceRequest
		var typ, start, end, status string
		if err := rows.Scan(&a.ID, &a.EmployeeID, &typ, &start, &end, &status); err != nil {
			return nil, fmt.Errorf("failed to scan absence: %w", err)
		}
		if a.Type, err = overtime.ParseAbsenceType(typ); err != nil {
			return nil, fmt.Errorf("absence %s: %w", a.ID, err)
		}
		var dec generic.ColumnDecoder
		a.Start = dec.Date("start_date", start)
		a.End = dec.Date("end_date", end)
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("absence %s: %w", a.ID, err)
		}
		a.Status = overtime.AbsenceStatus(status)
		absences = append(absences, a)
	}
	return absences, rows.Err()
}

// =============================================================================
// CORRECTIONS (insert-only)
// =============================================================================

// AddCorrection records a correction. An existing ID is rejected.
func (s *Store) AddCorrection(ctx context.Context, c overtime.Correction) error {
	if err := c.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO corrections (id, employee_id, date, hours, reason, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.EmployeeID, c.Date.String(), c.Hours.String(), c.Reason, c.CreatedBy,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("correction %s: %w", c.ID, generic.ErrDuplicateIdempotencyKey)
		}
		return fmt.Errorf("failed to add correction: %w", err)
	}
	return nil
}

// Corrections returns corrections dated in [from, to].
func (s *Store) Corrections(ctx context.Context, employeeID string, from, to generic.Date) ([]overtime.Correction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, date, hours, reason, created_by
		FROM corrections
		WHERE employee_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC, rowid ASC
	`, employeeID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query corrections: %w", err)
	}
	defer rows.Close()

	var corrections []overtime.Correction
	for rows.Next() {
		var c overtime.Correction
		var date, hours string
		if err := rows.Scan(&c.ID, &c.EmployeeID, &date, &hours, &c.Reason, &c.CreatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan correction: %w", err)
		}
		var dec generic.ColumnDecoder
		c.Date = dec.Date("date", date)
		c.Hours = dec.Hours("hours", hours)
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("correction %s: %w", c.ID, err)
		}
		corrections = append(corrections, c)
	}
	return corrections, rows.Err()
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// SaveHolidays replaces the holidays of year and marks the year loaded.
func (s *Store) SaveHolidays(ctx context.Context, year int, holidays []generic.Holiday) error {
	for _, h := range holidays {
		if h.Date.Year() != year {
			return &generic.ValidationError{Field: "holidays", Message: fmt.Sprintf("%s is outside %d", h.Date, year)}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM holidays WHERE year = ?", year); err != nil {
		return fmt.Errorf("failed to clear holidays: %w", err)
	}
	for _, h := range holidays {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT OR IGNORE INTO holidays (year, date, name, jurisdiction)
			VALUES (?, ?, ?, ?)
		`, year, h.Date.String(), h.Name, h.Jurisdiction)
		if err != nil {
			return fmt.Errorf("failed to save holiday %s: %w", h.Date, err)
		}
	}
	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO holiday_years (year, loaded_at) VALUES (?, ?)
		ON CONFLICT(year) DO UPDATE SET loaded_at = excluded.loaded_at
	`, year, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to mark year %d loaded: %w", year, err)
	}

	return sqlTx.Commit()
}

// Holidays returns the holidays of year and whether the year was loaded.
func (s *Store) Holidays(ctx context.Context, year int) ([]generic.Holiday, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM holiday_years WHERE year = ?", year,
	).Scan(&count); err != nil {
		return nil, false, err
	}
	if count == 0 {
		return nil, false, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, name, jurisdiction FROM holidays
		WHERE year = ?
		ORDER BY date ASC, name ASC
	`, year)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	holidays := []generic.Holiday{}
	for rows.Next() {
		var h generic.Holiday
		var date string
		if err := rows.Scan(&date, &h.Name, &h.Jurisdiction); err != nil {
			return nil, false, fmt.Errorf("failed to scan holiday: %w", err)
		}
		var dec generic.ColumnDecoder
		h.Date = dec.Date("date", date)
		if err := dec.Err(); err != nil {
			return nil, false, fmt.Errorf("holiday %s: %w", h.Name, err)
		}
		holidays = append(holidays, h)
	}
	return holidays, true, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for demo scenarios).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"transactions", "monthly_balances", "balance_generations",
		"time_entries", "absences", "corrections", "employees",
		"holidays", "holiday_years",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
