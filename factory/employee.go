/*
Package factory provides JSON to Go conversion for employees and holidays.

PURPOSE:
  Converts JSON employee definitions into overtime.Employee values, with
  the weekly schedule written as a weekday-name map, and generates default
  public holiday calendars.

JSON SCHEMA:
  {
    "id": "emp-1",
    "name": "Alex Example",
    "hire_date": "2025-01-01",
    "termination_date": "2025-12-31",
    "weekly_hours": 40,
    "schedule": {
      "monday": 8, "tuesday": 8, "wednesday": 8,
      "thursday": 8, "friday": 8
    }
  }

  Without "schedule", Monday to Friday get weekly_hours / 5. A schedule, when
  present, takes precedence over weekly_hours; missing weekdays are 0h.

USAGE:
  f := factory.NewEmployeeFactory()
  emp, err := f.ParseEmployee(jsonString)

  holidays := factory.GermanHolidays(2025)

SEE ALSO:
  - overtime/types.go: Employee and WorkSchedule
  - overtime/schedule.go: how WeeklyHours and Schedule resolve to a day's target
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// EmployeeJSON is the JSON representation of an employee.
type EmployeeJSON struct {
	ID              string                     `json:"id"`
	Name            string                     `json:"name"`
	HireDate        string                     `json:"hire_date"`
	TerminationDate string                     `json:"termination_date,omitempty"`
	WeeklyHours     decimal.Decimal            `json:"weekly_hours"`
	Schedule        map[string]decimal.Decimal `json:"schedule,omitempty"` // weekday name -> hours
}

// =============================================================================
// EMPLOYEE FACTORY
// =============================================================================

// EmployeeFactory converts JSON employees to Go structs.
type EmployeeFactory struct{}

func NewEmployeeFactory() *EmployeeFactory {
	return &EmployeeFactory{}
}

// ParseEmployee parses a JSON string into a validated Employee.
func (f *EmployeeFactory) ParseEmployee(jsonStr string) (*overtime.Employee, error) {
	var ej EmployeeJSON
	if err := json.Unmarshal([]byte(jsonStr), &ej); err != nil {
		return nil, fmt.Errorf("failed to parse employee JSON: %w", err)
	}
	return f.FromJSON(ej)
}

// FromJSON converts EmployeeJSON to an Employee and validates it.
func (f *EmployeeFactory) FromJSON(ej EmployeeJSON) (*overtime.Employee, error) {
	hire, err := generic.ParseDate(ej.HireDate)
	if err != nil {
		return nil, &generic.ValidationError{Field: "hire_date", Message: err.Error()}
	}

	emp := &overtime.Employee{
		ID:          strings.TrimSpace(ej.ID),
		Name:        ej.Name,
		HireDate:    hire,
		WeeklyHours: ej.WeeklyHours,
	}

	if ej.TerminationDate != "" {
		term, err := generic.ParseDate(ej.TerminationDate)
		if err != nil {
			return nil, &generic.ValidationError{Field: "termination_date", Message: err.Error()}
		}
		emp.TerminationDate = &term
	}

	if len(ej.Schedule) > 0 {
		schedule, err := ParseSchedule(ej.Schedule)
		if err != nil {
			return nil, err
		}
		emp.Schedule = schedule
	}

	if err := emp.Validate(); err != nil {
		return nil, err
	}
	return emp, nil
}

// ToJSON converts an Employee to EmployeeJSON. Zero-hour weekdays are omitted
// from the schedule map.
func (f *EmployeeFactory) ToJSON(emp overtime.Employee) EmployeeJSON {
	ej := EmployeeJSON{
		ID:          emp.ID,
		Name:        emp.Name,
		HireDate:    emp.HireDate.String(),
		WeeklyHours: emp.WeeklyHours,
	}
	if emp.TerminationDate != nil {
		ej.TerminationDate = emp.TerminationDate.String()
	}
	if emp.Schedule != nil {
		ej.Schedule = make(map[string]decimal.Decimal)
		for wd, h := range emp.Schedule {
			if h.IsPositive() {
				ej.Schedule[weekdayName(time.Weekday(wd))] = h
			}
		}
	}
	return ej
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

// ParseSchedule builds a WorkSchedule from weekday names ("monday" or "mon",
// any case).
func ParseSchedule(days map[string]decimal.Decimal) (*overtime.WorkSchedule, error) {
	var ws overtime.WorkSchedule
	for name, hours := range days {
		wd, err := parseWeekday(name)
		if err != nil {
			return nil, err
		}
		ws[wd] = hours
	}
	if err := ws.Validate(); err != nil {
		return nil, err
	}
	return &ws, nil
}

func parseWeekday(s string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := weekdayName(wd)
		if key == name || key == name[:3] {
			return wd, nil
		}
	}
	return 0, &generic.ValidationError{Field: "schedule", Message: fmt.Sprintf("unknown weekday %q", s)}
}

func weekdayName(wd time.Weekday) string {
	return strings.ToLower(wd.String())
}
