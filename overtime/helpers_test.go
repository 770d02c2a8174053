package overtime_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/generic/store"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type fixture struct {
	ctx    context.Context
	repo   *overtime.MemoryRepository
	store  *store.Memory
	ledger generic.Ledger
	clock  *generic.FixedClock
	calc   *overtime.LiveCalculator
	mat    *overtime.Materializer
	svc    *overtime.Service
}

func newFixture(t *testing.T, today string) *fixture {
	t.Helper()
	return newFixtureWithLogger(t, today, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newFixtureWithLogger(t *testing.T, today string, logger *slog.Logger) *fixture {
	t.Helper()
	f := &fixture{
		ctx:   context.Background(),
		repo:  overtime.NewMemoryRepository(),
		store: store.NewMemory(),
		clock: generic.NewFixedClock(d(today)),
	}
	f.ledger = generic.NewLedger(f.store)
	f.calc = overtime.NewLiveCalculator(f.repo, f.clock)
	f.mat = overtime.NewMaterializer(f.calc, f.store, f.ledger, logger)
	f.svc = overtime.NewService(f.repo, f.mat)
	return f
}

func d(s string) generic.Date { return generic.MustParseDate(s) }

func dp(s string) *generic.Date {
	date := d(s)
	return &date
}

func h(v float64) decimal.Decimal { return generic.Hours(v) }

func assertHours(t *testing.T, want float64, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Truef(t, h(want).Equal(got), "want %vh, got %sh %v", want, got.String(), msgAndArgs)
}

func (f *fixture) hire(t *testing.T, id, hireDate string, weekly float64, schedule *overtime.WorkSchedule) overtime.Employee {
	t.Helper()
	e := overtime.Employee{
		ID:          id,
		Name:        id,
		HireDate:    d(hireDate),
		WeeklyHours: h(weekly),
		Schedule:    schedule,
	}
	require.NoError(t, f.repo.SaveEmployee(f.ctx, e))
	return e
}

// holidays marks years as loaded; dates may be given for any of them.
func (f *fixture) holidays(t *testing.T, years []int, dates ...string) {
	t.Helper()
	byYear := make(map[int][]generic.Holiday)
	for _, s := range dates {
		date := d(s)
		byYear[date.Year()] = append(byYear[date.Year()], generic.Holiday{Date: date, Name: "Holiday " + s, Jurisdiction: "DE"})
	}
	for _, y := range years {
		require.NoError(t, f.repo.SaveHolidays(f.ctx, y, byYear[y]))
	}
}

func (f *fixture) work(t *testing.T, emp overtime.Employee, date string, hours float64) {
	t.Helper()
	require.NoError(t, f.repo.SaveTimeEntry(f.ctx, overtime.TimeEntry{
		ID:         emp.ID + "-" + date,
		EmployeeID: emp.ID,
		Date:       d(date),
		Hours:      h(hours),
	}))
}

// workScheduled logs hours on every working day of [from, to], skipping except.
func (f *fixture) workScheduled(t *testing.T, emp overtime.Employee, from, to string, hours float64, except ...string) {
	t.Helper()
	p := generic.Period{Start: d(from), End: d(to)}
	cal, err := overtime.LoadHolidayCalendar(f.ctx, f.repo, p)
	require.NoError(t, err)
	days, err := overtime.WorkingDays(emp, cal, p, d(to))
	require.NoError(t, err)

	skip := make(map[string]bool, len(except))
	for _, s := range except {
		skip[s] = true
	}
	for _, day := range days {
		if !skip[day.String()] {
			f.work(t, emp, day.String(), hours)
		}
	}
}

// workTarget logs exactly each working day's target on [from, to].
func (f *fixture) workTarget(t *testing.T, emp overtime.Employee, from, to string) {
	t.Helper()
	p := generic.Period{Start: d(from), End: d(to)}
	cal, err := overtime.LoadHolidayCalendar(f.ctx, f.repo, p)
	require.NoError(t, err)
	days, err := overtime.WorkingDays(emp, cal, p, d(to))
	require.NoError(t, err)
	for _, day := range days {
		require.NoError(t, f.repo.SaveTimeEntry(f.ctx, overtime.TimeEntry{
			ID:         emp.ID + "-" + day.String(),
			EmployeeID: emp.ID,
			Date:       day,
			Hours:      emp.TargetHours(day),
		}))
	}
}

func (f *fixture) absence(t *testing.T, emp overtime.Employee, id string, typ overtime.AbsenceType, start, end string, status overtime.AbsenceStatus) overtime.AbsenceRequest {
	t.Helper()
	a := overtime.AbsenceRequest{
		ID:         id,
		EmployeeID: emp.ID,
		Type:       typ,
		Start:      d(start),
		End:        d(end),
		Status:     status,
	}
	require.NoError(t, f.repo.SaveAbsence(f.ctx, a))
	return a
}

func (f *fixture) correction(t *testing.T, emp overtime.Employee, id, date string, hours float64) {
	t.Helper()
	require.NoError(t, f.repo.AddCorrection(f.ctx, overtime.Correction{
		ID:         id,
		EmployeeID: emp.ID,
		Date:       d(date),
		Hours:      h(hours),
		Reason:     "manual adjustment",
		CreatedBy:  "hr-1",
	}))
}

func countType(txs []generic.Transaction, typ generic.TransactionType) int {
	n := 0
	for _, tx := range txs {
		if tx.Type == typ {
			n++
		}
	}
	return n
}
