/*
calculator.go - Live overtime calculation

PURPOSE:
  The single source of truth for target, actual and overtime hours. Every
  cached number (MonthlyBalance) and every ledger row is derived from the
  output of Calculate.

ALGORITHM:
  1. Effective range = requested range clamped to [hire, min(today, termination)]
  2. Per day: target = schedule hours, 0 on holidays
  3. Approved absences on working days: unpaid zeroes the target, every
     other type credits exactly the target
  4. actual = Σ worked hours + absence credit + Σ corrections
  5. overtime = actual − target
  6. Days that are not working days appear only when work or a correction
     was booked on them; all such work is overtime
  7. Rows are aggregated into ISO weeks, months and a total

PURITY:
  Calculate has no side effects and reads no clock: today is an input.
  LiveCalculator loads the inputs from storage and calls it.
*/
package overtime

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/warp/overtime-engine/generic"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// DayRow is one day of the ledger.
type DayRow struct {
	Date generic.Date

	Target        decimal.Decimal
	Worked        decimal.Decimal
	AbsenceCredit decimal.Decimal
	Correction    decimal.Decimal
	Actual        decimal.Decimal
	Overtime      decimal.Decimal

	// Running sum of Overtime within the calculated range.
	Balance decimal.Decimal

	WorkingDay  bool
	Holiday     *generic.Holiday
	Absence     *AbsenceCredit
	Entries     []TimeEntry
	Corrections []Correction
}

// Result is the live calculation for one employee and range.
type Result struct {
	EmployeeID string
	// Period is the effective (clamped) range. It may be empty.
	Period generic.Period
	Days   []DayRow
	Weeks  []Bucket
	Months []Bucket
	Total  Bucket
}

// CalcInput is everything Calculate needs. Records outside the effective
// range are ignored.
type CalcInput struct {
	Employee    Employee
	Requested   generic.Period
	Today       generic.Date
	Calendar    *HolidayCalendar
	Entries     []TimeEntry
	Absences    []AbsenceRequest
	Corrections []Correction
}

// =============================================================================
// PURE CALCULATION
// =============================================================================

// Calculate builds the day-by-day ledger. It is deterministic: the same
// input always produces the same result.
func Calculate(in CalcInput) (*Result, error) {
	if in.Requested.IsEmpty() {
		return nil, &generic.InvalidRangeError{Start: in.Requested.Start, End: in.Requested.End, Reason: "end before start"}
	}

	emp := in.Employee
	eff := emp.EffectivePeriod(in.Requested, in.Today)
	res := &Result{EmployeeID: emp.ID, Period: eff}
	if eff.IsEmpty() {
		res.Total = newBucket("total", eff)
		return res, nil
	}
	if err := in.Calendar.Covers(eff); err != nil {
		return nil, err
	}

	entries := make(map[string][]TimeEntry)
	for _, t := range in.Entries {
		if t.EmployeeID == emp.ID && eff.Contains(t.Date) {
			entries[t.Date.String()] = append(entries[t.Date.String()], t)
		}
	}
	corrections := make(map[string][]Correction)
	for _, c := range in.Corrections {
		if c.EmployeeID == emp.ID && eff.Contains(c.Date) {
			corrections[c.Date.String()] = append(corrections[c.Date.String()], c)
		}
	}
	credits, err := ResolveAbsenceCredits(emp, in.Calendar, in.Absences, eff, in.Today)
	if err != nil {
		return nil, err
	}
	creditByDay := make(map[string]AbsenceCredit, len(credits))
	for _, c := range credits {
		creditByDay[c.Date.String()] = c
	}

	running := decimal.Zero
	for _, d := range eff.Days() {
		key := d.String()
		target, holiday, err := DayTarget(emp, in.Calendar, d)
		if err != nil {
			return nil, err
		}

		row := DayRow{
			Date:        d,
			Target:      target,
			Worked:      decimal.Zero,
			Correction:  decimal.Zero,
			WorkingDay:  target.IsPositive(),
			Holiday:     holiday,
			Entries:     entries[key],
			Corrections: corrections[key],
		}
		if c, ok := creditByDay[key]; ok {
			row.Absence = &c
			row.Target = c.Target
		}
		if !row.WorkingDay && len(row.Entries) == 0 && len(row.Corrections) == 0 {
			continue
		}

		for _, t := range row.Entries {
			row.Worked = row.Worked.Add(t.Hours)
		}
		for _, c := range row.Corrections {
			row.Correction = row.Correction.Add(c.Hours)
		}
		row.AbsenceCredit = decimal.Zero
		if row.Absence != nil {
			row.AbsenceCredit = row.Absence.Credit
		}
		row.Actual = row.Worked.Add(row.AbsenceCredit).Add(row.Correction)
		row.Overtime = row.Actual.Sub(row.Target)
		running = running.Add(row.Overtime)
		row.Balance = running

		res.Days = append(res.Days, row)
	}

	res.Weeks = aggregate(res.Days, eff, weekKey)
	res.Months = aggregate(res.Days, eff, monthKey)
	res.Total = newBucket("total", eff)
	for _, row := range res.Days {
		res.Total.add(row)
	}
	return res, nil
}

// =============================================================================
// LIVE CALCULATOR - Loads inputs, then calls Calculate
// =============================================================================

// LiveCalculator reads inputs from a Repository and calculates on demand.
type LiveCalculator struct {
	Repo  Repository
	Clock generic.Clock
}

func NewLiveCalculator(repo Repository, clock generic.Clock) *LiveCalculator {
	return &LiveCalculator{Repo: repo, Clock: clock}
}

// Calculate runs the calculation for an employee. from defaults to the hire
// date, to defaults to today; to is always clamped to today.
func (lc *LiveCalculator) Calculate(ctx context.Context, employeeID string, from, to *generic.Date) (*Result, error) {
	emp, err := lc.Repo.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	today := lc.Clock.Today()
	requested := generic.Period{Start: emp.HireDate, End: today}
	if from != nil {
		requested.Start = *from
	}
	if to != nil {
		requested.End = *to
	} else if requested.End.Before(requested.Start) {
		// Open-ended range starting in the future: empty, not inverted.
		requested.End = requested.Start
	}
	if requested.IsEmpty() {
		return nil, &generic.InvalidRangeError{Start: requested.Start, End: requested.End, Reason: "end before start"}
	}
	return lc.CalculateFor(ctx, *emp, requested)
}

// CalculateFor runs the calculation for an already loaded employee.
func (lc *LiveCalculator) CalculateFor(ctx context.Context, emp Employee, requested generic.Period) (*Result, error) {
	today := lc.Clock.Today()
	in := CalcInput{Employee: emp, Requested: requested, Today: today}

	eff := emp.EffectivePeriod(requested, today)
	if eff.IsEmpty() {
		return Calculate(in)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cal, err := LoadHolidayCalendar(gctx, lc.Repo, eff)
		in.Calendar = cal
		return err
	})
	g.Go(func() error {
		entries, err := lc.Repo.TimeEntries(gctx, emp.ID, eff.Start, eff.End)
		in.Entries = entries
		return err
	})
	g.Go(func() error {
		absences, err := lc.Repo.Absences(gctx, emp.ID, eff.Start, eff.End)
		in.Absences = absences
		return err
	})
	g.Go(func() error {
		corrections, err := lc.Repo.Corrections(gctx, emp.ID, eff.Start, eff.End)
		in.Corrections = corrections
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Calculate(in)
}
