/*
handlers_test.go - HTTP tests for the API handlers

Tests run the full router over an in-memory SQLite store with a fixed clock:
- Employee JSON parsing and validation
- Record writes invalidating balances
- Error status mapping (400/404/409/503)
- Absence approval and sufficiency checks
- Admin endpoints
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
	"github.com/warp/overtime-engine/store/sqlite"
)

type testServer struct {
	handler *Handler
	router  *chi.Mux
	clock   *generic.FixedClock
}

func setupTestServer(t *testing.T, today string) *testServer {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := generic.NewFixedClock(generic.MustParseDate(today))
	mat := overtime.NewMaterializer(overtime.NewLiveCalculator(store, clock), store, generic.NewLedger(store), logger)
	h := NewHandler(store, overtime.NewService(store, mat), logger)
	h.Rebuilds = NewRebuildScheduler(store, mat, logger)

	return &testServer{handler: h, router: NewRouter(h), clock: clock}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(b)
		}
		reader = bytes.NewBufferString(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// mustDo fails the test unless the response has the expected status, then
// decodes the body into out (if non-nil).
func (s *testServer) mustDo(t *testing.T, method, path string, body any, status int, out any) {
	t.Helper()
	rec := s.do(t, method, path, body)
	require.Equal(t, status, rec.Code, "body: %s", rec.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
}

func hours(v float64) decimal.Decimal { return generic.Hours(v) }

func assertHours(t *testing.T, want float64, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, hours(want).Equal(got), append([]any{"want %v, got %s", want, got}, msgAndArgs...)...)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployees_CreateGetList(t *testing.T) {
	s := setupTestServer(t, "2025-01-31")

	var created map[string]any
	s.mustDo(t, "POST", "/api/employees", `{
		"id": "emp-1", "name": "Alex", "hire_date": "2025-01-01",
		"weekly_hours": 32, "schedule": {"mon": 8, "tue": 8, "thu": 8, "fri": 8}
	}`, http.StatusCreated, &created)
	assert.Equal(t, "emp-1", created["id"])

	var got map[string]any
	s.mustDo(t, "GET", "/api/employees/emp-1", nil, http.StatusOK, &got)
	assert.Equal(t, "2025-01-01", got["hire_date"])
	schedule, ok := got["schedule"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, schedule, 4)
	assert.NotContains(t, schedule, "wednesday")

	var list []map[string]any
	s.mustDo(t, "GET", "/api/employees", nil, http.StatusOK, &list)
	assert.Len(t, list, 1)
}

func TestEmployees_Errors(t *testing.T) {
	s := setupTestServer(t, "2025-01-31")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"invalid json", "POST", "/api/employees", `{not json`, http.StatusBadRequest},
		{"unknown weekday", "POST", "/api/employees", `{"id": "e", "hire_date": "2025-01-01", "schedule": {"funday": 8}}`, http.StatusBadRequest},
		{"bad hire date", "POST", "/api/employees", `{"id": "e", "hire_date": "2025-13-01", "weekly_hours": 40}`, http.StatusBadRequest},
		{"missing employee", "GET", "/api/employees/ghost", nil, http.StatusNotFound},
		{"balance of missing employee", "GET", "/api/employees/ghost/balance", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, "body: %s", rec.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

// =============================================================================
// RECORDS AND BALANCES
// =============================================================================

func TestTimeEntry_ShiftUpdatesMonthlyBalance(t *testing.T) {
	// GIVEN: Employee hired Monday 2025-01-27, holidays loaded, today is the hire date
	// WHEN: A 08:00-17:30 shift with a 30 minute break is recorded
	// THEN: 9h worked against an 8h target: +1h overtime

	s := setupTestServer(t, "2025-01-27")
	s.mustDo(t, "POST", "/api/holidays/2025/defaults", nil, http.StatusOK, nil)
	s.mustDo(t, "POST", "/api/employees", `{"id": "emp-1", "hire_date": "2025-01-27", "weekly_hours": 40}`, http.StatusCreated, nil)

	var entry TimeEntryDTO
	s.mustDo(t, "POST", "/api/employees/emp-1/time-entries", TimeEntryRequest{
		ID: "te-1", Date: "2025-01-27", StartTime: "08:00", EndTime: "17:30", BreakMinutes: 30,
	}, http.StatusCreated, &entry)
	assertHours(t, 9, entry.Hours)

	var month MonthlyBalanceDTO
	s.mustDo(t, "GET", "/api/employees/emp-1/balance/2025/01", nil, http.StatusOK, &month)
	assertHours(t, 8, month.TargetHours)
	assertHours(t, 9, month.ActualHours)
	assertHours(t, 1, month.Overtime)
	assert.Equal(t, "2025-01-27", month.ComputedThrough)
	require.Len(t, month.Days, 1)
	assert.True(t, month.Days[0].WorkingDay)

	// WHEN: The entry is replaced with 7.5h
	s.mustDo(t, "PUT", "/api/time-entries/te-1", map[string]any{"date": "2025-01-27", "hours": "7.5"}, http.StatusOK, nil)

	// THEN: The cached month is recomputed
	s.mustDo(t, "GET", "/api/employees/emp-1/balance/2025/01", nil, http.StatusOK, &month)
	assertHours(t, -0.5, month.Overtime)

	// WHEN: The entry is deleted
	rec := s.do(t, "DELETE", "/api/time-entries/te-1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	s.mustDo(t, "GET", "/api/employees/emp-1/balance/2025/01", nil, http.StatusOK, &month)
	assertHours(t, -8, month.Overtime)
}

func TestTimeEntry_Validation(t *testing.T) {
	s := setupTestServer(t, "2025-01-31")
	s.mustDo(t, "POST", "/api/employees", `{"id": "emp-1", "hire_date": "2025-01-01", "weekly_hours": 40}`, http.StatusCreated, nil)

	tests := []struct {
		name string
		body string
	}{
		{"missing date", `{"hours": "8"}`},
		{"neither hours nor shift", `{"date": "2025-01-02"}`},
		{"start without end", `{"date": "2025-01-02", "start_time": "08:00"}`},
		{"malformed clock", `{"date": "2025-01-02", "start_time": "8am", "end_time": "17:00"}`},
		{"negative hours", `{"date": "2025-01-02", "hours": "-1"}`},
		{"break longer than shift", `{"date": "2025-01-02", "start_time": "08:00", "end_time": "09:00", "break_minutes": 90}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, "POST", "/api/employees/emp-1/time-entries", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", rec.Body.String())
		})
	}

	rec := s.do(t, "POST", "/api/employees/ghost/time-entries", `{"date": "2025-01-02", "hours": "8"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBalance_HolidaysNotLoaded(t *testing.T) {
	// GIVEN: No holiday calendar for 2025
	// WHEN: Reading a 2025 balance
	// THEN: 503, never a balance computed as if there were no holidays

	s := setupTestServer(t, "2025-01-31")
	s.mustDo(t, "POST", "/api/employees", `{"id": "emp-1", "hire_date": "2025-01-01", "weekly_hours": 40}`, http.StatusCreated, nil)

	rec := s.do(t, "GET", "/api/employees/emp-1/balance/2025/01", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "body: %s", rec.Body.String())

	var holidays HolidayYearDTO
	s.mustDo(t, "GET", "/api/holidays/2025", nil, http.StatusOK, &holidays)
	assert.False(t, holidays.Loaded)

	// An explicitly empty calendar is a loaded year.
	s.mustDo(t, "PUT", "/api/holidays/2025", LoadHolidaysRequest{Holidays: []HolidayDTO{}}, http.StatusOK, nil)
	s.mustDo(t, "GET", "/api/employees/emp-1/balance/2025/01", nil, http.StatusOK, nil)
}

func TestHolidays_LoadAndList(t *testing.T) {
	s := setupTestServer(t, "2025-01-31")

	s.mustDo(t, "PUT", "/api/holidays/2025", LoadHolidaysRequest{Holidays: []HolidayDTO{
		{Date: "2025-01-01", Name: "Neujahr", Jurisdiction: "DE"},
		{Date: "2025-01-06", Name: "Heilige Drei Könige", Jurisdiction: "DE-BY"},
	}}, http.StatusOK, nil)

	var year HolidayYearDTO
	s.mustDo(t, "GET", "/api/holidays/2025", nil, http.StatusOK, &year)
	assert.True(t, year.Loaded)
	assert.Len(t, year.Holidays, 2)

	rec := s.do(t, "PUT", "/api/holidays/2025", LoadHolidaysRequest{Holidays: []HolidayDTO{{Date: "2024-12-25", Name: "Weihnachten"}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "holiday outside the year")

	rec = s.do(t, "PUT", "/api/holidays/2025", `{"holidays": [{"date": "2025-05-01"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "holiday without a name")

	rec = s.do(t, "GET", "/api/holidays/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCorrections_ImmutableAndValidated(t *testing.T) {
	s := setupTestServer(t, "2025-01-31")
	s.mustDo(t, "POST", "/api/holidays/2025/defaults", nil, http.StatusOK, nil)
	s.mustDo(t, "POST", "/api/employees", `{"id": "emp-1", "hire_date": "2025-01-27", "weekly_hours": 40}`, http.StatusCreated, nil)

	body := map[string]any{"id": "c-1", "date": "2025-01-28", "hours": "2.25", "reason": "Missed punch", "created_by": "hr-1"}
	var c CorrectionDTO
	s.mustDo(t, "POST", "/api/employees/emp-1/corrections", body, http.StatusCreated, &c)
	assertHours(t, 2.25, c.Hours)

	rec := s.do(t, "POST", "/api/employees/emp-1/corrections", body)
	assert.Equal(t, http.StatusConflict, rec.Code, "corrections are never overwritten")

	rec = s.do(t, "POST", "/api/employees/emp-1/corrections", map[string]any{"date": "2025-01-28", "hours": "1", "created_by": "hr-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "reason is required")

	// 5 working days without entries, plus the correction.
	var month MonthlyBalanceDTO
	s.mustDo(t, "GET", "/api/employees/emp-1/balance/2025/01", nil, http.StatusOK, &month)
	assertHours(t, -37.75, month.Overtime)
}

// =============================================================================
// ABSENCES AND SUFFICIENCY
// =============================================================================

func TestAbsence_ApproveAndReject(t *testing.T) {
	// GIVEN: Mon/Tue worked 8h, sick Wed-Fri requested (pending)
	// WHEN: The absence is approved, then rejected
	// THEN: Approval credits 24h, rejection removes the credit again

	s := setupTestServer(t, "2025-01-31")
	s.mustDo(t, "POST", "/api/holidays/2025/defaults", nil, http.StatusOK, nil)
	s.mustDo(t, "POST", "/api/employees", `{"id": "emp-1", "hire_date": "2025-01-27", "weekly_hours": 40}`, http.StatusCreated, nil)
	for _, day := range []string{"2025-01-27", "2025-01-28"} {
		s.mustDo(t, "POST", "/api/employees/emp-1/time-entries", map[string]any{"date": day, "hours": "8"}, http.StatusCreated, nil)
	}

	var abs AbsenceDTO
	s.mustDo(t, "POST", "/api/employees/emp-1/absences", AbsenceRequestDTO{
		ID: "abs-1", Type: "sick", StartDate: "2025-01-29", EndDate: "2025-01-31",
	}, http.StatusCreated, &abs)
	assert.Equal(t, "pending", abs.Status)

	var month MonthlyBalanceDTO
	s.mustDo(t, "GET", "/api/employees/emp-1/balance/2025/01", nil, http.StatusOK, &month)
	assertHours(t, -24, month.Overtime, "pending absences credit nothing")

	s.mustDo(t, "POST", "/api/absences/abs-1/approve", nil, http.StatusOK, &abs)
	assert.Equal(t, "approved", abs.Status)
	s.mustDo(t, "GET", "/api/employees/emp-1/balance/2025/01", nil, http.StatusOK, &month)
	assertHours(t, 0, month.Overtime)
	assertHours(t, 40, month.ActualHours)

	var history []TransactionDTO
	s.mustDo(t, "GET", "/api/employees/emp-1/history?month=2025-01", nil, http.StatusOK, &history)
	labels := make(map[string]int)
	for _, tx := range history {
		labels[tx.Label]++
	}
	assert.Equal(t, 3, labels["Sick leave credit"])
	require.NotEmpty(t, history)
	assertHours(t, 0, history[len(history)-1].BalanceAfter)

	s.mustDo(t, "POST", "/api/absences/abs-1/reject", nil, http.StatusOK, &abs)
	assert.Equal(t, "rejected", abs.Status)
	s.mustDo(t, "GET", "/api/employees/emp-1/balance/2025/01", nil, http.StatusOK, &month)
	assertHours(t, -24, month.Overtime)

	// Rejection reverses the credits in the ledger, it never deletes them.
	s.mustDo(t, "GET", "/api/employees/emp-1/history?year=2025", nil, http.StatusOK, &history)
	reversals := 0
	for _, tx := range history {
		if tx.Type == string(generic.TxReversal) {
			reversals++
		}
	}
	assert.Positive(t, reversals)
	assertHours(t, -24, history[len(history)-1].BalanceAfter)

	var list []AbsenceDTO
	s.mustDo(t, "GET", "/api/employees/emp-1/absences?from=2025-01-01&to=2025-01-31", nil, http.StatusOK, &list)
	assert.Len(t, list, 1)

	rec := s.do(t, "GET", "/api/employees/emp-1/absences?from=2025-02-01&to=2025-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, "POST", "/api/absences/ghost/approve", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAbsence_RequestValidation(t *testing.T) {
	s := setupTestServer(t, "2025-01-31")
	s.mustDo(t, "POST", "/api/employees", `{"id": "emp-1", "hire_date": "2025-01-01", "weekly_hours": 40}`, http.StatusCreated, nil)

	tests := []struct {
		name string
		body AbsenceRequestDTO
	}{
		{"unknown type", AbsenceRequestDTO{Type: "sabbatical", StartDate: "2025-01-06", EndDate: "2025-01-06"}},
		{"end before start", AbsenceRequestDTO{Type: "vacation", StartDate: "2025-01-07", EndDate: "2025-01-06"}},
		{"unknown status", AbsenceRequestDTO{Type: "vacation", StartDate: "2025-01-06", EndDate: "2025-01-06", Status: "maybe"}},
		{"missing dates", AbsenceRequestDTO{Type: "vacation"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, "POST", "/api/employees/emp-1/absences", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", rec.Body.String())
		})
	}
}

func TestSufficiency(t *testing.T) {
	// GIVEN: +4h of corrections in January, no other overtime
	// WHEN: Checking compensation requests against a floor of 0
	// THEN: 4h fits, 5h does not; a one-day range is priced at its 8h target

	s := setupTestServer(t, "2025-01-31")
	s.mustDo(t, "POST", "/api/holidays/2025/defaults", nil, http.StatusOK, nil)
	s.mustDo(t, "POST", "/api/employees", `{"id": "emp-1", "hire_date": "2025-01-27", "weekly_hours": 40}`, http.StatusCreated, nil)
	for _, day := range []string{"2025-01-27", "2025-01-28", "2025-01-29", "2025-01-30", "2025-01-31"} {
		s.mustDo(t, "POST", "/api/employees/emp-1/time-entries", map[string]any{"date": day, "hours": "8"}, http.StatusCreated, nil)
	}
	s.mustDo(t, "POST", "/api/employees/emp-1/corrections", map[string]any{
		"date": "2025-01-31", "hours": "4", "reason": "Weekend on-call", "created_by": "hr-1",
	}, http.StatusCreated, nil)

	var res SufficiencyDTO
	s.mustDo(t, "POST", "/api/employees/emp-1/sufficiency", map[string]any{"hours": "4"}, http.StatusOK, &res)
	assert.True(t, res.Allowed)
	assertHours(t, 4, res.Balance)
	assertHours(t, 0, res.After)

	s.mustDo(t, "POST", "/api/employees/emp-1/sufficiency", map[string]any{"hours": "5"}, http.StatusOK, &res)
	assert.False(t, res.Allowed)

	s.mustDo(t, "POST", "/api/employees/emp-1/sufficiency", map[string]any{"hours": "5", "min_balance": "-2"}, http.StatusOK, &res)
	assert.True(t, res.Allowed)

	s.mustDo(t, "POST", "/api/employees/emp-1/sufficiency", map[string]any{"start_date": "2025-01-30", "end_date": "2025-01-30"}, http.StatusOK, &res)
	assertHours(t, 8, res.Requested)
	assert.False(t, res.Allowed)

	rec := s.do(t, "POST", "/api/employees/emp-1/sufficiency", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, "POST", "/api/employees/emp-1/sufficiency", map[string]any{"hours": "-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// An approved compensation request the balance cannot cover is refused.
	rec = s.do(t, "POST", "/api/employees/emp-1/absences", AbsenceRequestDTO{
		ID: "comp-1", Type: "overtime_comp", StartDate: "2025-01-30", EndDate: "2025-01-31", Status: "approved",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", rec.Body.String())

	// As pending it is stored, but approval is refused.
	var abs AbsenceDTO
	s.mustDo(t, "POST", "/api/employees/emp-1/absences", AbsenceRequestDTO{
		ID: "comp-1", Type: "overtime_comp", StartDate: "2025-01-30", EndDate: "2025-01-31",
	}, http.StatusCreated, &abs)
	require.NotNil(t, abs.CompensationHours)
	assertHours(t, 16, *abs.CompensationHours)
	rec = s.do(t, "POST", "/api/absences/comp-1/approve", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// CALCULATION AND ADMIN
// =============================================================================

func TestCalculate_LiveRange(t *testing.T) {
	s := setupTestServer(t, "2025-01-31")
	s.mustDo(t, "POST", "/api/holidays/2025/defaults", nil, http.StatusOK, nil)
	s.mustDo(t, "POST", "/api/employees", `{"id": "emp-1", "hire_date": "2025-01-27", "weekly_hours": 40}`, http.StatusCreated, nil)
	s.mustDo(t, "POST", "/api/employees/emp-1/time-entries", map[string]any{"date": "2025-01-27", "hours": "10"}, http.StatusCreated, nil)

	var calc CalculationDTO
	s.mustDo(t, "GET", "/api/employees/emp-1/calculate?from=2025-01-01&to=2025-12-31", nil, http.StatusOK, &calc)
	assert.Equal(t, "2025-01-27", calc.From, "clamped to hire date")
	assert.Equal(t, "2025-01-31", calc.To, "clamped to today")
	assertHours(t, 40, calc.Total.Target)
	assertHours(t, 10, calc.Total.Actual)
	assertHours(t, -30, calc.Total.Overtime)
	assert.Len(t, calc.Days, 5)
	assert.Len(t, calc.Months, 1)

	rec := s.do(t, "GET", "/api/employees/emp-1/calculate?from=2025-01-31&to=2025-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, "GET", "/api/employees/emp-1/calculate?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdmin_RebuildVerifyCache(t *testing.T) {
	s := setupTestServer(t, "2025-02-10")
	s.mustDo(t, "POST", "/api/holidays/2025/defaults", nil, http.StatusOK, nil)
	s.mustDo(t, "POST", "/api/employees", `{"id": "emp-1", "hire_date": "2025-01-27", "weekly_hours": 40}`, http.StatusCreated, nil)

	var report RebuildDTO
	s.mustDo(t, "POST", "/api/admin/employees/emp-1/rebuild", nil, http.StatusOK, &report)
	assert.Equal(t, "2025-01", report.From)
	assert.Equal(t, "2025-02", report.To)
	assert.Equal(t, 2, report.Months)

	s.mustDo(t, "GET", "/api/admin/employees/emp-1/verify/2025-01", nil, http.StatusOK, nil)

	var cache []CacheEntryDTO
	s.mustDo(t, "GET", "/api/admin/employees/emp-1/cache/2025", nil, http.StatusOK, &cache)
	require.Len(t, cache, 2)
	for _, e := range cache {
		assert.False(t, e.Stale, e.Month)
	}

	// A write dirties the month without touching the row.
	s.mustDo(t, "POST", "/api/employees/emp-1/time-entries", map[string]any{"date": "2025-01-28", "hours": "8"}, http.StatusCreated, nil)
	s.mustDo(t, "GET", "/api/admin/employees/emp-1/cache/2025", nil, http.StatusOK, &cache)
	require.Len(t, cache, 2)
	assert.True(t, cache[0].Stale)

	// Tomorrow the current month's row is stale too.
	s.clock.Set(generic.MustParseDate("2025-02-11"))
	s.mustDo(t, "GET", "/api/admin/employees/emp-1/cache/2025", nil, http.StatusOK, &cache)
	assert.True(t, cache[1].Stale)

	rec := s.do(t, "GET", "/api/admin/employees/emp-1/verify/2025-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNeedsRebuild(t *testing.T) {
	base := overtime.Employee{ID: "e", HireDate: generic.MustParseDate("2025-01-01"), WeeklyHours: hours(40)}

	renamed := base
	renamed.Name = "New Name"
	assert.False(t, needsRebuild(base, renamed))

	moved := base
	moved.HireDate = generic.MustParseDate("2024-11-01")
	assert.True(t, needsRebuild(base, moved))

	scheduled := base
	scheduled.Schedule = overtime.NewWorkSchedule(8, 8, 8, 8, 8, 0, 0)
	assert.True(t, needsRebuild(base, scheduled))

	reshaped := scheduled
	reshaped.Schedule = overtime.NewWorkSchedule(8, 0, 8, 8, 8, 0, 0)
	assert.True(t, needsRebuild(scheduled, reshaped))
	assert.False(t, needsRebuild(scheduled, scheduled))

	terminated := base
	end := generic.MustParseDate("2025-03-31")
	terminated.TerminationDate = &end
	assert.True(t, needsRebuild(base, terminated))
	assert.True(t, needsRebuild(terminated, base))

	sameEnd := base
	endCopy := end
	sameEnd.TerminationDate = &endCopy
	assert.False(t, needsRebuild(terminated, sameEnd))

	earlier := base
	earlierEnd := generic.MustParseDate("2025-02-28")
	earlier.TerminationDate = &earlierEnd
	assert.True(t, needsRebuild(terminated, earlier))
}

func TestUpdateEmployee_TerminationReleasesLaterMonths(t *testing.T) {
	// GIVEN: An employee with overtime logged in January and February
	// WHEN: A termination date of 2025-01-31 is set over the API
	// THEN: February is gone from the history and the ledger total matches January

	s := setupTestServer(t, "2025-02-28")
	s.mustDo(t, "POST", "/api/holidays/2025/defaults", nil, http.StatusOK, nil)
	s.mustDo(t, "POST", "/api/employees", `{"id": "emp-1", "hire_date": "2025-01-02", "weekly_hours": 40}`, http.StatusCreated, nil)
	s.mustDo(t, "POST", "/api/employees/emp-1/time-entries", `{"date": "2025-01-06", "hours": 10}`, http.StatusCreated, nil)
	s.mustDo(t, "POST", "/api/employees/emp-1/time-entries", `{"date": "2025-02-03", "hours": 11}`, http.StatusCreated, nil)

	var history []TransactionDTO
	s.mustDo(t, "GET", "/api/employees/emp-1/history", nil, http.StatusOK, &history)

	s.mustDo(t, "PUT", "/api/employees/emp-1", `{"hire_date": "2025-01-02", "termination_date": "2025-01-31", "weekly_hours": 40}`, http.StatusOK, nil)
	assert.Len(t, s.handler.Rebuilds.queue, 1)

	var jan MonthlyBalanceDTO
	s.mustDo(t, "GET", "/api/employees/emp-1/balance/2025/01", nil, http.StatusOK, &jan)

	s.mustDo(t, "GET", "/api/employees/emp-1/history", nil, http.StatusOK, &history)
	require.NotEmpty(t, history)
	last := history[len(history)-1].BalanceAfter
	assert.True(t, jan.Overtime.Equal(last), "history %s, january %s", last, jan.Overtime)

	var feb int
	for _, tx := range history {
		if tx.EffectiveAt >= "2025-02-01" && generic.TransactionType(tx.Type) != generic.TxReversal {
			feb++
		}
	}
	assert.Positive(t, feb, "February rows stay in the audit trail")
	total, err := generic.NewLedger(s.handler.Store).BalanceAt(context.Background(), "emp-1", generic.MustParseDate("2025-02-28"))
	require.NoError(t, err)
	assert.True(t, jan.Overtime.Equal(total), "ledger %s, january %s", total, jan.Overtime)
}
