/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built scenarios that populate the database with realistic
  data. Each scenario creates holidays, employees, time entries, absences
  and corrections through overtime.Service, so caches are invalidated
  exactly as they would be for real writes.

AVAILABLE SCENARIOS:
  vacation-day:      40h week, one vacation Monday in January 2025: 0h overtime
  custom-schedule:   Mon 8 / Tue 0 / Wed 6 / Thu 8 / Fri 8 with a
                     Mon-Wed vacation: 14h credited, Tuesday not a working day
  year-carryover:    Overtime built up in late 2024, carried into 2025 and
                     partly taken as compensation time

HOW SCENARIOS WORK:
  1. Reset database (clear all data)
  2. Load German holidays for the years involved
  3. Create employees via factory JSON
  4. Record time entries for working days up to today
  5. Add absences and corrections

NOTE:
  Scenarios reset the database. Only use in development/demo environments.
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/factory"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "vacation-day",
		Name:        "Vacation Day",
		Description: "40h week, 8h every working day of January 2025 except one approved vacation Monday",
	},
	{
		ID:          "custom-schedule",
		Name:        "Custom Schedule",
		Description: "Mon 8h, Tue off, Wed 6h, Thu 8h, Fri 8h with vacation Monday to Wednesday",
	},
	{
		ID:          "year-carryover",
		Name:        "Year Carryover",
		Description: "9h days in December 2024 carried into 2025, one compensation day taken",
	},
}

var scenarioLoaders = map[string]func(h *Handler, ctx context.Context) error{
	"vacation-day":    (*Handler).loadVacationDayScenario,
	"custom-schedule": (*Handler).loadCustomScheduleScenario,
	"year-carryover":  (*Handler).loadYearCarryoverScenario,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads a scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}
	load, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("scenario %q", req.ScenarioID))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	if err := load(h, ctx); err != nil {
		h.writeServiceError(w, r, fmt.Errorf("load scenario %s: %w", req.ScenarioID, err))
		return
	}
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"loaded": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadVacationDayScenario(ctx context.Context) error {
	if err := h.loadGermanHolidays(ctx, 2025); err != nil {
		return err
	}
	emp, err := h.createEmployee(ctx, `{
		"id": "emp-vacation",
		"name": "Jonas Weber",
		"hire_date": "2025-01-01",
		"weekly_hours": 40
	}`)
	if err != nil {
		return err
	}

	vacation := generic.NewDate(2025, time.January, 13)
	if err := h.workDays(ctx, *emp, "2025-01-01", "2025-01-31", weekdays(8), vacation); err != nil {
		return err
	}
	_, err = h.Service.RequestAbsence(ctx, overtime.AbsenceRequest{
		ID:         "abs-vacation-1",
		EmployeeID: emp.ID,
		Type:       overtime.AbsenceVacation,
		Start:      vacation,
		End:        vacation,
		Status:     overtime.StatusApproved,
	})
	return err
}

func (h *Handler) loadCustomScheduleScenario(ctx context.Context) error {
	if err := h.loadGermanHolidays(ctx, 2025); err != nil {
		return err
	}
	emp, err := h.createEmployee(ctx, `{
		"id": "emp-custom",
		"name": "Mira Schulz",
		"hire_date": "2025-01-01",
		"weekly_hours": 30,
		"schedule": {"monday": 8, "tuesday": 0, "wednesday": 6, "thursday": 8, "friday": 8}
	}`)
	if err != nil {
		return err
	}

	// Work the schedule exactly on every day outside the vacation.
	vacation := []generic.Date{
		generic.NewDate(2025, time.January, 13),
		generic.NewDate(2025, time.January, 14),
		generic.NewDate(2025, time.January, 15),
	}
	if err := h.workDays(ctx, *emp, "2025-01-01", "2025-01-31", emp.TargetHours, vacation...); err != nil {
		return err
	}

	_, err = h.Service.RequestAbsence(ctx, overtime.AbsenceRequest{
		ID:         "abs-custom-1",
		EmployeeID: emp.ID,
		Type:       overtime.AbsenceVacation,
		Start:      generic.NewDate(2025, time.January, 13),
		End:        generic.NewDate(2025, time.January, 15),
		Status:     overtime.StatusApproved,
	})
	return err
}

func (h *Handler) loadYearCarryoverScenario(ctx context.Context) error {
	for _, year := range []int{2024, 2025} {
		if err := h.loadGermanHolidays(ctx, year); err != nil {
			return err
		}
	}
	emp, err := h.createEmployee(ctx, `{
		"id": "emp-carryover",
		"name": "Lena Hoffmann",
		"hire_date": "2024-12-02",
		"weekly_hours": 40
	}`)
	if err != nil {
		return err
	}

	// 20 working days at 9h in December 2024: 20h overtime, 18.5h after the
	// correction. The 24th and 31st are regular working days.
	if err := h.workDays(ctx, *emp, "2024-12-02", "2024-12-31", weekdays(9)); err != nil {
		return err
	}
	if _, err := h.Service.AddCorrection(ctx, overtime.Correction{
		ID:         "corr-carryover-1",
		EmployeeID: emp.ID,
		Date:       generic.NewDate(2024, time.December, 20),
		Hours:      generic.Hours(-1.5),
		Reason:     "Unrecorded long lunch",
		CreatedBy:  "hr-admin",
	}); err != nil {
		return err
	}

	comp := generic.NewDate(2025, time.January, 10)
	if err := h.workDays(ctx, *emp, "2025-01-02", "2025-01-31", weekdays(8), comp); err != nil {
		return err
	}
	_, err = h.Service.RequestAbsence(ctx, overtime.AbsenceRequest{
		ID:         "abs-comp-1",
		EmployeeID: emp.ID,
		Type:       overtime.AbsenceOvertimeComp,
		Start:      comp,
		End:        comp,
		Status:     overtime.StatusApproved,
	})
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) today() generic.Date {
	return h.Balances.Calc.Clock.Today()
}

func (h *Handler) loadGermanHolidays(ctx context.Context, year int) error {
	return h.Service.LoadHolidays(ctx, year, factory.GermanHolidays(year))
}

func (h *Handler) createEmployee(ctx context.Context, jsonStr string) (*overtime.Employee, error) {
	emp, err := h.Employees.ParseEmployee(jsonStr)
	if err != nil {
		return nil, err
	}
	return h.Service.SaveEmployee(ctx, *emp)
}

// weekdays books the same hours Monday to Friday.
func weekdays(hours float64) func(generic.Date) decimal.Decimal {
	return func(d generic.Date) decimal.Decimal {
		if d.IsWeekend() {
			return decimal.Zero
		}
		return generic.Hours(hours)
	}
}

// workDays records hoursFor(day) on every day in [from, to] up to today,
// except German holidays, the skipped dates and days booked at 0h.
func (h *Handler) workDays(ctx context.Context, emp overtime.Employee, from, to string, hoursFor func(generic.Date) decimal.Decimal, skip ...generic.Date) error {
	p := generic.Period{Start: generic.MustParseDate(from), End: generic.MustParseDate(to)}
	excluded := make(map[string]bool)
	for _, year := range p.Years() {
		for _, hol := range factory.GermanHolidays(year) {
			excluded[hol.Date.String()] = true
		}
	}
	for _, d := range skip {
		excluded[d.String()] = true
	}

	for _, day := range p.Days() {
		if day.After(h.today()) {
			break
		}
		hours := hoursFor(day)
		if excluded[day.String()] || !hours.IsPositive() {
			continue
		}
		if _, err := h.Service.RecordTimeEntry(ctx, overtime.TimeEntry{
			ID:         fmt.Sprintf("te-%s-%s", emp.ID, day),
			EmployeeID: emp.ID,
			Date:       day,
			Hours:      hours,
		}); err != nil {
			return err
		}
	}
	return nil
}
