/*
materializer.go - Monthly balance cache over the live calculation

PURPOSE:
  Keeps MonthlyBalance rows so reads do not replay the whole history since
  hire. The live calculation stays the only source of truth: a row is a memo
  of Calculate for exactly one calendar month and is recomputed whenever it
  may be out of date.

STALENESS:
  Every (employee, month) has a generation counter. Writes to time entries,
  absences, corrections, holidays or the employee record call Invalidate,
  which bumps the counter of every affected month and of every later
  January (its carryover depends on the whole prior year). A row is stale
  when it is absent, was computed from an older generation, or was computed
  through a different day than the month's effective end under today's
  clock (the current month grows by one day every day).

SERIALIZATION:
  Recomputation of one (employee, month) is serialized with a keyed mutex.
  The upsert is conditional on generation, so a row computed from older
  inputs never overwrites a newer one. Nothing is locked across employees.

  Locks are only ever taken in descending month order (a January row reads
  the months of the prior year), so nested locking cannot deadlock.

FAILURE:
  Any error while recomputing fails the read. A cached value is never
  returned in place of a recomputation that failed.

SEE ALSO:
  - calculator.go: Calculate, the source of truth
  - ledger.go: ledger rows synced on every recompute
  - rollover.go: carryover and year boundary markers
*/
package overtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/generic"
)

// =============================================================================
// MATERIALIZER
// =============================================================================

type Materializer struct {
	Calc   *LiveCalculator
	Store  generic.BalanceStore
	Ledger generic.Ledger
	Sync   *LedgerSync
	Logger *slog.Logger

	// VerifyOnRead recomputes live on every read and fails on divergence.
	VerifyOnRead bool

	locks keyedMutex
}

func NewMaterializer(calc *LiveCalculator, balances generic.BalanceStore, ledger generic.Ledger, logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{
		Calc:   calc,
		Store:  balances,
		Ledger: ledger,
		Sync:   &LedgerSync{Ledger: ledger, Clock: calc.Clock},
		Logger: logger,
	}
}

// YearlyBalance aggregates the materialized months of one year. Months after
// today, before hire and after termination are never included.
type YearlyBalance struct {
	EmployeeID string
	Year       int
	Months     []generic.MonthlyBalance

	TargetHours decimal.Decimal
	ActualHours decimal.Decimal
	Overtime    decimal.Decimal

	CarryoverFromPreviousYear decimal.Decimal
	// Balance is the closing balance so far: carryover + overtime.
	Balance decimal.Decimal
}

// MonthDetail is a month's row together with the live breakdown it was
// checked against.
type MonthDetail struct {
	Balance generic.MonthlyBalance
	Days    []DayRow
	Weeks   []Bucket
}

// CacheEntry is a stored row and whether the next read would recompute it.
type CacheEntry struct {
	generic.MonthlyBalance
	CurrentGeneration int64
	Stale             bool
}

// RebuildReport summarizes a Rebuild run.
type RebuildReport struct {
	EmployeeID string
	From       generic.MonthKey
	To         generic.MonthKey
	Months     int
}

// =============================================================================
// READS
// =============================================================================

func (m *Materializer) employee(ctx context.Context, id string) (Employee, error) {
	emp, err := m.Calc.Repo.GetEmployee(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	return *emp, nil
}

// Month returns an up to date row for one month.
func (m *Materializer) Month(ctx context.Context, employeeID string, month generic.MonthKey) (*generic.MonthlyBalance, error) {
	emp, err := m.employee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	row, err := m.ensure(ctx, emp, month)
	if err != nil {
		return nil, err
	}
	if m.VerifyOnRead {
		if _, err := m.verifyRow(ctx, emp, row); err != nil {
			return nil, err
		}
	}
	return row, nil
}

// MonthWithDays returns the row and the live daily breakdown. The two are
// always cross-checked.
func (m *Materializer) MonthWithDays(ctx context.Context, employeeID string, month generic.MonthKey) (*MonthDetail, error) {
	emp, err := m.employee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	row, err := m.ensure(ctx, emp, month)
	if err != nil {
		return nil, err
	}
	res, err := m.verifyRow(ctx, emp, row)
	if err != nil {
		return nil, err
	}
	return &MonthDetail{Balance: *row, Days: res.Days, Weeks: res.Weeks}, nil
}

// Year aggregates months from max(January, hire month) through
// min(December, current month, termination month).
func (m *Materializer) Year(ctx context.Context, employeeID string, year int) (*YearlyBalance, error) {
	emp, err := m.employee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	yb, err := m.year(ctx, emp, year)
	if err != nil {
		return nil, err
	}
	if m.VerifyOnRead {
		for i := range yb.Months {
			if _, err := m.verifyRow(ctx, emp, &yb.Months[i]); err != nil {
				return nil, err
			}
		}
	}
	return yb, nil
}

// CurrentBalance is the yearly balance of the current year, or of the
// termination year for employees who have left.
func (m *Materializer) CurrentBalance(ctx context.Context, employeeID string) (*YearlyBalance, error) {
	emp, err := m.employee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	year := m.Calc.Clock.Today().Year()
	if emp.TerminationDate != nil && emp.TerminationDate.Year() < year {
		year = emp.TerminationDate.Year()
	}
	return m.Year(ctx, employeeID, year)
}

func (m *Materializer) year(ctx context.Context, emp Employee, year int) (*YearlyBalance, error) {
	yb := &YearlyBalance{
		EmployeeID:  emp.ID,
		Year:        year,
		TargetHours: decimal.Zero,
		ActualHours: decimal.Zero,
		Overtime:    decimal.Zero,
	}
	for _, month := range m.yearMonths(emp, year) {
		row, err := m.ensure(ctx, emp, month)
		if err != nil {
			return nil, err
		}
		yb.Months = append(yb.Months, *row)
		yb.TargetHours = yb.TargetHours.Add(row.TargetHours)
		yb.ActualHours = yb.ActualHours.Add(row.ActualHours)
		yb.Overtime = yb.Overtime.Add(row.Overtime)
	}

	if len(yb.Months) > 0 && yb.Months[0].CarryoverFromPreviousYear != nil {
		yb.CarryoverFromPreviousYear = *yb.Months[0].CarryoverFromPreviousYear
	} else {
		carry, err := m.carryIn(ctx, emp, year)
		if err != nil {
			return nil, err
		}
		yb.CarryoverFromPreviousYear = carry
	}
	yb.Balance = yb.CarryoverFromPreviousYear.Add(yb.Overtime)
	return yb, nil
}

func (m *Materializer) yearMonths(emp Employee, year int) []generic.MonthKey {
	whole := generic.Period{Start: generic.StartOfYear(year), End: generic.EndOfYear(year)}
	return emp.EffectivePeriod(whole, m.Calc.Clock.Today()).Months()
}

// CacheStatus lists the stored rows of a year with their staleness.
func (m *Materializer) CacheStatus(ctx context.Context, employeeID string, year int) ([]CacheEntry, error) {
	emp, err := m.employee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	rows, err := m.Store.ListMonthlyBalances(ctx, emp.ID, generic.NewMonthKey(year, time.January), generic.NewMonthKey(year, time.December))
	if err != nil {
		return nil, err
	}
	today := m.Calc.Clock.Today()
	entries := make([]CacheEntry, 0, len(rows))
	for _, row := range rows {
		gen, err := m.Store.MonthGeneration(ctx, emp.ID, row.Month)
		if err != nil {
			return nil, err
		}
		eff := emp.EffectivePeriod(row.Month.Period(), today)
		entries = append(entries, CacheEntry{
			MonthlyBalance:    row,
			CurrentGeneration: gen,
			Stale:             isStale(&row, gen, eff),
		})
	}
	return entries, nil
}

// =============================================================================
// RECOMPUTATION
// =============================================================================

func isStale(row *generic.MonthlyBalance, generation int64, eff generic.Period) bool {
	return row == nil || row.Generation < generation || !row.ComputedThrough.Equal(eff.End)
}

// ensure returns a row that reflects current inputs, recomputing if needed.
func (m *Materializer) ensure(ctx context.Context, emp Employee, month generic.MonthKey) (*generic.MonthlyBalance, error) {
	unlock := m.locks.Lock(emp.ID + "/" + string(month))
	defer unlock()

	eff := emp.EffectivePeriod(month.Period(), m.Calc.Clock.Today())
	if eff.IsEmpty() {
		// Nothing to memoize. Rows left from an earlier hire or termination
		// date are still reversed.
		if _, err := m.Sync.SyncMonth(ctx, emp.ID, month, nil); err != nil {
			return nil, err
		}
		return emptyMonth(emp.ID, month), nil
	}

	gen, err := m.Store.MonthGeneration(ctx, emp.ID, month)
	if err != nil {
		return nil, fmt.Errorf("read generation %s/%s: %w", emp.ID, month, err)
	}
	row, err := m.Store.GetMonthlyBalance(ctx, emp.ID, month)
	if err != nil {
		return nil, fmt.Errorf("read monthly balance %s/%s: %w", emp.ID, month, err)
	}
	if !isStale(row, gen, eff) {
		return row, nil
	}

	fresh, err := m.compute(ctx, emp, month, gen)
	if err != nil {
		return nil, err
	}
	written, err := m.Store.UpsertMonthlyBalance(ctx, *fresh)
	if err != nil {
		return nil, fmt.Errorf("upsert monthly balance %s/%s: %w", emp.ID, month, err)
	}
	if !written {
		// A row from newer inputs landed first; it wins.
		stored, err := m.Store.GetMonthlyBalance(ctx, emp.ID, month)
		if err != nil {
			return nil, err
		}
		return stored, nil
	}

	if month.Month() == time.January && month.Year() > emp.HireDate.Year() {
		if err := m.appendCarryoverMarker(ctx, emp.ID, month.Year(), *fresh.CarryoverFromPreviousYear); err != nil {
			return nil, err
		}
	}

	m.Logger.Debug("monthly balance materialized",
		slog.String("employee_id", emp.ID),
		slog.String("month", string(month)),
		slog.String("overtime", fresh.Overtime.String()),
		slog.Int64("generation", fresh.Generation),
	)
	return fresh, nil
}

// compute runs the live calculation for the month, syncs the ledger and
// builds the row. Nothing is upserted here.
func (m *Materializer) compute(ctx context.Context, emp Employee, month generic.MonthKey, generation int64) (*generic.MonthlyBalance, error) {
	res, err := m.Calc.CalculateFor(ctx, emp, month.Period())
	if err != nil {
		return nil, err
	}
	if _, err := m.Sync.SyncMonth(ctx, emp.ID, month, DeriveTransactions(res)); err != nil {
		return nil, err
	}

	row := &generic.MonthlyBalance{
		EmployeeID:      emp.ID,
		Month:           month,
		TargetHours:     res.Total.Target,
		ActualHours:     res.Total.Actual,
		Overtime:        res.Total.Overtime,
		ComputedThrough: res.Period.End,
		Generation:      generation,
	}
	if month.Month() == time.January {
		carry, err := m.carryIn(ctx, emp, month.Year())
		if err != nil {
			return nil, err
		}
		row.CarryoverFromPreviousYear = &carry
	}
	return row, nil
}

func emptyMonth(employeeID string, month generic.MonthKey) *generic.MonthlyBalance {
	return &generic.MonthlyBalance{
		EmployeeID:  employeeID,
		Month:       month,
		TargetHours: decimal.Zero,
		ActualHours: decimal.Zero,
		Overtime:    decimal.Zero,
	}
}

// =============================================================================
// INVALIDATION, VERIFICATION, REBUILD
// =============================================================================

// Invalidate marks every month of [from, to] and every later January up to
// the current year as dirty.
func (m *Materializer) Invalidate(ctx context.Context, employeeID string, from, to generic.Date) error {
	p, err := generic.NewPeriod(from, to)
	if err != nil {
		return err
	}
	months := p.Months()
	seen := make(map[generic.MonthKey]bool, len(months))
	for _, month := range months {
		seen[month] = true
	}
	for y := from.Year() + 1; y <= m.Calc.Clock.Today().Year(); y++ {
		jan := generic.NewMonthKey(y, time.January)
		if !seen[jan] {
			seen[jan] = true
			months = append(months, jan)
		}
	}
	if err := m.Store.BumpGenerations(ctx, employeeID, months); err != nil {
		return fmt.Errorf("invalidate %s %s: %w", employeeID, p, err)
	}
	m.Logger.Debug("monthly balances invalidated",
		slog.String("employee_id", employeeID),
		slog.String("range", p.String()),
		slog.Int("months", len(months)),
	)
	return nil
}

// InvalidateEmployee marks everything from the earlier of hire date and from
// onward as dirty. Used after hire date or schedule changes.
func (m *Materializer) InvalidateEmployee(ctx context.Context, employeeID string, from generic.Date) error {
	today := m.Calc.Clock.Today()
	return m.Invalidate(ctx, employeeID, from, generic.MaxDate(from, today))
}

// ReconcileEmployment reverses the ledger rows of months that the change
// from before to after moved entirely outside the employment window. Months
// still partly inside it were invalidated and resync on their next read.
func (m *Materializer) ReconcileEmployment(ctx context.Context, before, after Employee) error {
	today := m.Calc.Clock.Today()
	for _, month := range before.EmploymentPeriod(today).Months() {
		if err := m.release(ctx, after, month); err != nil {
			return err
		}
	}
	return nil
}

// release syncs a month outside the employment window to nothing. Months
// inside the window are left alone.
func (m *Materializer) release(ctx context.Context, emp Employee, month generic.MonthKey) error {
	if !emp.EffectivePeriod(month.Period(), m.Calc.Clock.Today()).IsEmpty() {
		return nil
	}
	if _, err := m.ensure(ctx, emp, month); err != nil {
		return fmt.Errorf("release %s/%s: %w", emp.ID, month, err)
	}
	return nil
}

// Verify recomputes a month live and compares it with the materialized row.
func (m *Materializer) Verify(ctx context.Context, employeeID string, month generic.MonthKey) error {
	emp, err := m.employee(ctx, employeeID)
	if err != nil {
		return err
	}
	row, err := m.ensure(ctx, emp, month)
	if err != nil {
		return err
	}
	_, err = m.verifyRow(ctx, emp, row)
	return err
}

func (m *Materializer) verifyRow(ctx context.Context, emp Employee, row *generic.MonthlyBalance) (*Result, error) {
	res, err := m.Calc.CalculateFor(ctx, emp, row.Month.Period())
	if err != nil {
		return nil, err
	}
	if row.TargetHours.Equal(res.Total.Target) &&
		row.ActualHours.Equal(res.Total.Actual) &&
		row.Overtime.Equal(res.Total.Overtime) {
		return res, nil
	}

	cerr := &generic.ConsistencyError{
		EmployeeID: emp.ID,
		Month:      row.Month,
		Cached:     row.Overtime,
		Live:       res.Total.Overtime,
	}
	m.Logger.Error("materialized balance diverges from live calculation",
		slog.String("employee_id", emp.ID),
		slog.String("month", string(row.Month)),
		slog.String("cached_target", row.TargetHours.String()),
		slog.String("live_target", res.Total.Target.String()),
		slog.String("cached_overtime", row.Overtime.String()),
		slog.String("live_overtime", res.Total.Overtime.String()),
		slog.Int64("generation", row.Generation),
	)
	return nil, cerr
}

// Rebuild recomputes every month from the earlier of the hire month and the
// first ledger row through the current month. Each month commits on its own:
// a cancelled rebuild leaves finished months final and can simply be rerun.
func (m *Materializer) Rebuild(ctx context.Context, employeeID string) (*RebuildReport, error) {
	emp, err := m.employee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	first := emp.HireDate.MonthKey()
	txs, err := m.Ledger.Transactions(ctx, emp.ID)
	if err != nil {
		return nil, err
	}
	if len(txs) > 0 && txs[0].EffectiveAt.MonthKey().Before(first) {
		first = txs[0].EffectiveAt.MonthKey()
	}
	last := m.Calc.Clock.Today().MonthKey()

	report := &RebuildReport{EmployeeID: emp.ID, From: first, To: last}
	for month := first; !month.After(last); month = month.Next() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := m.Store.BumpGenerations(ctx, emp.ID, []generic.MonthKey{month}); err != nil {
			return report, err
		}
		if _, err := m.ensure(ctx, emp, month); err != nil {
			return report, fmt.Errorf("rebuild %s: %w", month, err)
		}
		report.Months++
	}

	m.Logger.Info("balances rebuilt",
		slog.String("employee_id", emp.ID),
		slog.String("from", string(first)),
		slog.String("to", string(last)),
		slog.Int("months", report.Months),
	)
	return report, nil
}
