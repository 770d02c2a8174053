/*
handlers.go - HTTP API handlers for the overtime balance engine

PURPOSE:
  Exposes the overtime engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to overtime.Service (writes) and
  overtime.Materializer (reads).

ENDPOINTS:
  Employees:
    GET    /api/employees                              List employees
    POST   /api/employees                              Create or replace employee
    GET    /api/employees/{id}                         Get employee
    PUT    /api/employees/{id}                         Replace employee

  Records:
    POST   /api/employees/{id}/time-entries            Record worked time
    PUT    /api/time-entries/{entryID}                 Replace a time entry
    DELETE /api/time-entries/{entryID}                 Delete a time entry
    GET    /api/employees/{id}/absences?from=&to=      List absences
    POST   /api/employees/{id}/absences                Request an absence
    POST   /api/absences/{absenceID}/approve           Approve
    POST   /api/absences/{absenceID}/reject            Reject
    POST   /api/employees/{id}/corrections             Add a manual correction

  Balances:
    GET    /api/employees/{id}/balance                 Current year balance
    GET    /api/employees/{id}/balance/{year}          Yearly balance
    GET    /api/employees/{id}/balance/{year}/{month}  Monthly balance with days
    GET    /api/employees/{id}/calculate?from=&to=     Live calculation
    GET    /api/employees/{id}/history?year=&month=    Transaction history
    POST   /api/employees/{id}/sufficiency             Compensation check
    POST   /api/employees/{id}/rollover/{year}         Settle a year boundary

  Holidays:
    GET    /api/holidays/{year}                        List a year's holidays
    PUT    /api/holidays/{year}                        Replace a year's holidays
    POST   /api/holidays/{year}/defaults               Load German holidays

  Admin:
    POST   /api/admin/employees/{id}/rebuild           Rebuild all months
    GET    /api/admin/employees/{id}/verify/{month}    Cached vs live check
    GET    /api/admin/employees/{id}/cache/{year}      Cache status
    POST   /api/admin/rollover                         Rollover sweep

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid ranges, malformed input
  - 404: Employee or record not found
  - 409: Duplicate (a correction ID that already exists)
  - 503: Reference data unavailable (holidays not loaded for a year)
  - 500: Consistency failures and internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/factory"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is everything the HTTP layer needs from persistence. Both
// store/sqlite and store/gormstore satisfy it.
type Store interface {
	overtime.RecordStore
	generic.Store
	generic.BalanceStore

	// Reset deletes all data. Used by demo scenarios.
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     Store
	Service   *overtime.Service
	Balances  *overtime.Materializer
	Employees *factory.EmployeeFactory
	Rebuilds  *RebuildScheduler
	Logger    *slog.Logger

	// MinBalance is the default floor for sufficiency checks.
	MinBalance decimal.Decimal

	validate *validator.Validate

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a handler over a service and its store.
func NewHandler(store Store, svc *overtime.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:     store,
		Service:   svc,
		Balances:  svc.Balances,
		Employees: factory.NewEmployeeFactory(),
		Logger:    logger,
		validate:  validator.New(),
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dtos := make([]factory.EmployeeJSON, len(employees))
	for i, e := range employees {
		dtos[i] = h.Employees.ToJSON(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Employees.ToJSON(*emp))
}

// CreateEmployee creates or replaces an employee from its JSON definition.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	h.saveEmployee(w, r, "", http.StatusCreated)
}

// UpdateEmployee replaces an employee. A changed hire date or schedule
// queues a background rebuild of the employee's months.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	h.saveEmployee(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (h *Handler) saveEmployee(w http.ResponseWriter, r *http.Request, id string, status int) {
	var req factory.EmployeeJSON
	if !h.decode(w, r, &req) {
		return
	}
	if id != "" {
		req.ID = id
	}

	emp, err := h.Employees.FromJSON(req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	old, err := h.Store.GetEmployee(r.Context(), emp.ID)
	if err != nil && !generic.IsNotFound(err) {
		h.writeServiceError(w, r, err)
		return
	}

	saved, err := h.Service.SaveEmployee(r.Context(), *emp)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if old != nil && h.Rebuilds != nil && needsRebuild(*old, *saved) {
		h.Rebuilds.Enqueue(saved.ID)
	}
	writeJSON(w, status, h.Employees.ToJSON(*saved))
}

// needsRebuild reports whether a change moves targets across many months.
func needsRebuild(old, updated overtime.Employee) bool {
	if !old.HireDate.Equal(updated.HireDate) || !old.WeeklyHours.Equal(updated.WeeklyHours) {
		return true
	}
	if !sameDate(old.TerminationDate, updated.TerminationDate) {
		return true
	}
	if (old.Schedule == nil) != (updated.Schedule == nil) {
		return true
	}
	if old.Schedule != nil {
		for wd := range old.Schedule {
			if !old.Schedule[wd].Equal(updated.Schedule[wd]) {
				return true
			}
		}
	}
	return false
}

func sameDate(a, b *generic.Date) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// =============================================================================
// TIME ENTRY HANDLERS
// =============================================================================

// CreateTimeEntry records worked hours for one day.
// POST /api/employees/{id}/time-entries
func (h *Handler) CreateTimeEntry(w http.ResponseWriter, r *http.Request) {
	var req TimeEntryRequest
	if !h.decode(w, r, &req) {
		return
	}
	entry, err := timeEntryFromRequest(req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	entry.EmployeeID = chi.URLParam(r, "id")

	saved, err := h.Service.RecordTimeEntry(r.Context(), entry)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTimeEntryDTO(*saved))
}

// ReplaceTimeEntry swaps a time entry for a corrected one.
// PUT /api/time-entries/{entryID}
func (h *Handler) ReplaceTimeEntry(w http.ResponseWriter, r *http.Request) {
	var req TimeEntryRequest
	if !h.decode(w, r, &req) {
		return
	}
	entry, err := timeEntryFromRequest(req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	saved, err := h.Service.ReplaceTimeEntry(r.Context(), chi.URLParam(r, "entryID"), entry)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimeEntryDTO(*saved))
}

// DeleteTimeEntry removes a time entry.
// DELETE /api/time-entries/{entryID}
func (h *Handler) DeleteTimeEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteTimeEntry(r.Context(), chi.URLParam(r, "entryID")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func timeEntryFromRequest(req TimeEntryRequest) (overtime.TimeEntry, error) {
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		return overtime.TimeEntry{}, &generic.ValidationError{Field: "date", Message: err.Error()}
	}

	var hours decimal.Decimal
	switch {
	case req.StartTime != "":
		if hours, err = overtime.HoursFromShift(req.StartTime, req.EndTime, req.BreakMinutes); err != nil {
			return overtime.TimeEntry{}, err
		}
	case req.Hours != nil:
		hours = *req.Hours
	default:
		return overtime.TimeEntry{}, &generic.ValidationError{Field: "hours", Message: "hours or start_time/end_time required"}
	}
	return overtime.TimeEntry{ID: req.ID, Date: date, Hours: hours}, nil
}

// =============================================================================
// ABSENCE HANDLERS
// =============================================================================

// ListAbsences returns absences overlapping [from, to] (default: this year).
// GET /api/employees/{id}/absences
func (h *Handler) ListAbsences(w http.ResponseWriter, r *http.Request) {
	year := h.Balances.Calc.Clock.Today().Year()
	p := generic.Period{Start: generic.StartOfYear(year), End: generic.EndOfYear(year)}
	if err := parseRangeQuery(r, &p); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := h.Store.GetEmployee(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	absences, err := h.Store.Absences(r.Context(), id, p.Start, p.End)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dtos := make([]AbsenceDTO, len(absences))
	for i, a := range absences {
		dtos[i] = toAbsenceDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAbsence stores an absence request. Overtime compensation requests
// that would take the balance below the floor are rejected with 400 unless
// they are stored as pending.
// POST /api/employees/{id}/absences
func (h *Handler) CreateAbsence(w http.ResponseWriter, r *http.Request) {
	var req AbsenceRequestDTO
	if !h.decode(w, r, &req) {
		return
	}
	a, err := absenceFromRequest(req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	a.EmployeeID = chi.URLParam(r, "id")

	if a.Status == overtime.StatusApproved {
		if ok := h.checkCompensation(w, r, a); !ok {
			return
		}
	}

	saved, err := h.Service.RequestAbsence(r.Context(), a)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.absenceDTO(r.Context(), *saved))
}

// ApproveAbsence approves a pending absence.
// POST /api/absences/{absenceID}/approve
func (h *Handler) ApproveAbsence(w http.ResponseWriter, r *http.Request) {
	a, err := h.Store.GetAbsence(r.Context(), chi.URLParam(r, "absenceID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if a.Status != overtime.StatusApproved {
		if ok := h.checkCompensation(w, r, *a); !ok {
			return
		}
	}
	h.setAbsenceStatus(w, r, overtime.StatusApproved)
}

// RejectAbsence rejects an absence. Rejecting an approved absence removes
// its credits.
// POST /api/absences/{absenceID}/reject
func (h *Handler) RejectAbsence(w http.ResponseWriter, r *http.Request) {
	h.setAbsenceStatus(w, r, overtime.StatusRejected)
}

func (h *Handler) setAbsenceStatus(w http.ResponseWriter, r *http.Request, status overtime.AbsenceStatus) {
	a, err := h.Service.SetAbsenceStatus(r.Context(), chi.URLParam(r, "absenceID"), status)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.absenceDTO(r.Context(), *a))
}

// checkCompensation refuses an overtime compensation absence the balance
// cannot cover. Writes the response and returns false when refused.
func (h *Handler) checkCompensation(w http.ResponseWriter, r *http.Request, a overtime.AbsenceRequest) bool {
	if a.Type != overtime.AbsenceOvertimeComp {
		return true
	}
	res, err := h.Balances.CheckAbsence(r.Context(), a, h.MinBalance)
	if err != nil {
		h.writeServiceError(w, r, err)
		return false
	}
	if !res.Allowed {
		writeError(w, http.StatusBadRequest, "Insufficient overtime balance",
			fmt.Errorf("balance %s, requested %s, minimum %s", res.Balance, res.Requested, res.MinBalance))
		return false
	}
	return true
}

func (h *Handler) absenceDTO(ctx context.Context, a overtime.AbsenceRequest) AbsenceDTO {
	dto := toAbsenceDTO(a)
	if a.Type == overtime.AbsenceOvertimeComp {
		if hours, err := h.Balances.CompensationHours(ctx, a); err == nil {
			dto.CompensationHours = &hours
		}
	}
	return dto
}

func absenceFromRequest(req AbsenceRequestDTO) (overtime.AbsenceRequest, error) {
	typ, err := overtime.ParseAbsenceType(req.Type)
	if err != nil {
		return overtime.AbsenceRequest{}, err
	}
	start, err := generic.ParseDate(req.StartDate)
	if err != nil {
		return overtime.AbsenceRequest{}, &generic.ValidationError{Field: "start_date", Message: err.Error()}
	}
	end, err := generic.ParseDate(req.EndDate)
	if err != nil {
		return overtime.AbsenceRequest{}, &generic.ValidationError{Field: "end_date", Message: err.Error()}
	}
	return overtime.AbsenceRequest{
		ID:     req.ID,
		Type:   typ,
		Start:  start,
		End:    end,
		Status: overtime.AbsenceStatus(req.Status),
	}, nil
}

// =============================================================================
// CORRECTION HANDLERS
// =============================================================================

// CreateCorrection appends a manual adjustment. Corrections are immutable:
// reposting an existing ID is a conflict.
// POST /api/employees/{id}/corrections
func (h *Handler) CreateCorrection(w http.ResponseWriter, r *http.Request) {
	var req CorrectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		h.writeServiceError(w, r, &generic.ValidationError{Field: "date", Message: err.Error()})
		return
	}

	c, err := h.Service.AddCorrection(r.Context(), overtime.Correction{
		ID:         req.ID,
		EmployeeID: chi.URLParam(r, "id"),
		Date:       date,
		Hours:      req.Hours,
		Reason:     req.Reason,
		CreatedBy:  req.CreatedBy,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCorrectionDTO(*c))
}

// =============================================================================
// BALANCE HANDLERS
// =============================================================================

// GetBalance returns the current year's balance.
// GET /api/employees/{id}/balance
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	yb, err := h.Balances.CurrentBalance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toYearlyDTO(yb))
}

// GetYearlyBalance returns one year's balance.
// GET /api/employees/{id}/balance/{year}
func (h *Handler) GetYearlyBalance(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	yb, err := h.Balances.Year(r.Context(), chi.URLParam(r, "id"), year)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toYearlyDTO(yb))
}

// GetMonthlyBalance returns a month's balance with its daily and weekly
// breakdown.
// GET /api/employees/{id}/balance/{year}/{month}
func (h *Handler) GetMonthlyBalance(w http.ResponseWriter, r *http.Request) {
	month, err := generic.ParseMonthKey(chi.URLParam(r, "year") + "-" + chi.URLParam(r, "month"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	detail, err := h.Balances.MonthWithDays(r.Context(), chi.URLParam(r, "id"), month)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dto := toMonthlyDTO(detail.Balance)
	dto.Days = toDayDTOs(detail.Days)
	dto.Weeks = toBucketDTOs(detail.Weeks)
	writeJSON(w, http.StatusOK, dto)
}

// Calculate runs the live calculation over an arbitrary range. It reads
// no cached rows.
// GET /api/employees/{id}/calculate?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var from, to *generic.Date
	for key, dst := range map[string]**generic.Date{"from": &from, "to": &to} {
		if s := r.URL.Query().Get(key); s != "" {
			d, err := generic.ParseDate(s)
			if err != nil {
				h.writeServiceError(w, r, &generic.ValidationError{Field: key, Message: err.Error()})
				return
			}
			*dst = &d
		}
	}

	res, err := h.Balances.Calc.Calculate(r.Context(), chi.URLParam(r, "id"), from, to)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CalculationDTO{
		EmployeeID: res.EmployeeID,
		From:       res.Period.Start.String(),
		To:         res.Period.End.String(),
		Total:      toBucketDTO(res.Total),
		Months:     toBucketDTOs(res.Months),
		Weeks:      toBucketDTOs(res.Weeks),
		Days:       toDayDTOs(res.Days),
	})
}

// GetHistory returns the ledger with running balances.
// GET /api/employees/{id}/history?year=2025 or ?month=2025-03
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	var filter overtime.HistoryFilter
	if s := r.URL.Query().Get("year"); s != "" {
		year, err := strconv.Atoi(s)
		if err != nil {
			h.writeServiceError(w, r, &generic.ValidationError{Field: "year", Message: "must be a number"})
			return
		}
		filter.Year = year
	}
	if s := r.URL.Query().Get("month"); s != "" {
		month, err := generic.ParseMonthKey(s)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		filter.Month = month
	}

	entries, err := h.Balances.History(r.Context(), chi.URLParam(r, "id"), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(entries))
}

// CheckSufficiency answers whether a compensation fits under the floor.
// POST /api/employees/{id}/sufficiency
func (h *Handler) CheckSufficiency(w http.ResponseWriter, r *http.Request) {
	var req SufficiencyRequest
	if !h.decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	minBalance := h.MinBalance
	if req.MinBalance != nil {
		minBalance = *req.MinBalance
	}

	var (
		res *overtime.SufficiencyResult
		err error
	)
	switch {
	case req.StartDate != "":
		a, perr := absenceFromRequest(AbsenceRequestDTO{
			Type:      overtime.AbsenceOvertimeComp.String(),
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			Status:    string(overtime.StatusPending),
		})
		if perr != nil {
			h.writeServiceError(w, r, perr)
			return
		}
		a.EmployeeID = id
		res, err = h.Balances.CheckAbsence(r.Context(), a, minBalance)
	case req.Hours != nil:
		res, err = h.Balances.CheckCompensation(r.Context(), id, *req.Hours, minBalance)
	default:
		err = &generic.ValidationError{Field: "hours", Message: "hours or start_date/end_date required"}
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSufficiencyDTO(res))
}

// Rollover settles the boundary into a year. Idempotent.
// POST /api/employees/{id}/rollover/{year}
func (h *Handler) Rollover(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	carry, err := h.Balances.Rollover(r.Context(), id, year)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RolloverDTO{EmployeeID: id, Year: year, Carryover: carry})
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns a year's holidays and whether the year is loaded.
// GET /api/holidays/{year}
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	holidays, loaded, err := h.Store.Holidays(r.Context(), year)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HolidayYearDTO{Year: year, Loaded: loaded, Holidays: toHolidayDTOs(holidays)})
}

// LoadHolidays replaces a year's holidays.
// PUT /api/holidays/{year}
func (h *Handler) LoadHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	var req LoadHolidaysRequest
	if !h.decode(w, r, &req) {
		return
	}

	holidays := make([]generic.Holiday, 0, len(req.Holidays))
	for _, dto := range req.Holidays {
		d, err := generic.ParseDate(dto.Date)
		if err != nil {
			h.writeServiceError(w, r, &generic.ValidationError{Field: "date", Message: err.Error()})
			return
		}
		if d.Year() != year {
			h.writeServiceError(w, r, &generic.ValidationError{Field: "date", Message: fmt.Sprintf("%s is not in %d", dto.Date, year)})
			return
		}
		holidays = append(holidays, generic.Holiday{Date: d, Name: dto.Name, Jurisdiction: dto.Jurisdiction})
	}
	h.saveHolidays(w, r, year, holidays)
}

// AddDefaultHolidays loads the German nationwide holidays for a year.
// POST /api/holidays/{year}/defaults
func (h *Handler) AddDefaultHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.saveHolidays(w, r, year, factory.GermanHolidays(year))
}

func (h *Handler) saveHolidays(w http.ResponseWriter, r *http.Request, year int, holidays []generic.Holiday) {
	if err := h.Service.LoadHolidays(r.Context(), year, holidays); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HolidayYearDTO{Year: year, Loaded: true, Holidays: toHolidayDTOs(holidays)})
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// RebuildEmployee recomputes every month of an employee synchronously.
// POST /api/admin/employees/{id}/rebuild
func (h *Handler) RebuildEmployee(w http.ResponseWriter, r *http.Request) {
	report, err := h.Balances.Rebuild(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RebuildDTO{
		EmployeeID: report.EmployeeID,
		From:       report.From.String(),
		To:         report.To.String(),
		Months:     report.Months,
	})
}

// VerifyMonth compares the cached row of a month with a live calculation.
// GET /api/admin/employees/{id}/verify/{month}
func (h *Handler) VerifyMonth(w http.ResponseWriter, r *http.Request) {
	month, err := generic.ParseMonthKey(chi.URLParam(r, "month"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if err := h.Balances.Verify(r.Context(), chi.URLParam(r, "id"), month); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"month": month, "consistent": true})
}

// GetCacheStatus lists the cached rows of a year with their staleness.
// GET /api/admin/employees/{id}/cache/{year}
func (h *Handler) GetCacheStatus(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	entries, err := h.Balances.CacheStatus(r.Context(), chi.URLParam(r, "id"), year)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dtos := make([]CacheEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = CacheEntryDTO{
			MonthlyBalanceDTO: toMonthlyDTO(e.MonthlyBalance),
			Generation:        e.Generation,
			CurrentGeneration: e.CurrentGeneration,
			Stale:             e.Stale,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// TriggerRollover runs the rollover sweep for every employee now.
// POST /api/admin/rollover
func (h *Handler) TriggerRollover(w http.ResponseWriter, r *http.Request) {
	if h.Rebuilds == nil {
		writeError(w, http.StatusServiceUnavailable, "Rebuild scheduler not running", nil)
		return
	}
	writeJSON(w, http.StatusOK, h.Rebuilds.RunNow(r.Context()))
}

// =============================================================================
// HELPERS
// =============================================================================

// decode reads and validates a JSON body. Writes a 400 and returns false on
// failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation error", err)
		return false
	}
	return true
}

// writeServiceError maps engine errors to HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := http.StatusInternalServerError, "Internal error"
	switch {
	case errors.Is(err, generic.ErrValidation), errors.Is(err, generic.ErrInvalidRange):
		status, message = http.StatusBadRequest, "Invalid request"
	case errors.Is(err, generic.ErrNotFound):
		status, message = http.StatusNotFound, "Not found"
	case errors.Is(err, generic.ErrDuplicateIdempotencyKey):
		status, message = http.StatusConflict, "Already exists"
	case errors.Is(err, generic.ErrDataUnavailable):
		status, message = http.StatusServiceUnavailable, "Reference data unavailable"
	case errors.Is(err, generic.ErrConsistency):
		message = "Balance consistency check failed"
	}
	if status >= http.StatusInternalServerError {
		h.Logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("error", err),
		)
	}
	writeError(w, status, message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func yearParam(r *http.Request) (int, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1900 || year > 9999 {
		return 0, &generic.ValidationError{Field: "year", Message: fmt.Sprintf("invalid year %q", chi.URLParam(r, "year"))}
	}
	return year, nil
}

// parseRangeQuery overrides p with the from/to query parameters.
func parseRangeQuery(r *http.Request, p *generic.Period) error {
	q := r.URL.Query()
	if s := q.Get("from"); s != "" {
		d, err := generic.ParseDate(s)
		if err != nil {
			return &generic.ValidationError{Field: "from", Message: err.Error()}
		}
		p.Start = d
	}
	if s := q.Get("to"); s != "" {
		d, err := generic.ParseDate(s)
		if err != nil {
			return &generic.ValidationError{Field: "to", Message: err.Error()}
		}
		p.End = d
	}
	if p.IsEmpty() {
		return &generic.InvalidRangeError{Start: p.Start, End: p.End, Reason: "end before start"}
	}
	return nil
}
