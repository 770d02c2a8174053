// Package overtime implements the overtime balance engine: target hours from
// work schedules and holidays, credited hours from time entries, absences and
// corrections, the live day-by-day calculation, the materialized monthly
// cache, the derived transaction ledger and the year rollover.
package overtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// =============================================================================
// EMPLOYEE
// =============================================================================

// Employee is the HR record the engine reads. It is never written here.
type Employee struct {
	ID              string
	Name            string
	HireDate        generic.Date
	TerminationDate *generic.Date
	WeeklyHours     decimal.Decimal

	// Schedule, when present, takes precedence over WeeklyHours.
	Schedule *WorkSchedule
}

// Validate checks the invariants the calculation relies on.
func (e Employee) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return &generic.ValidationError{Field: "id", Message: "required"}
	}
	if e.HireDate.IsZero() {
		return &generic.ValidationError{Field: "hire_date", Message: "required"}
	}
	if e.WeeklyHours.IsNegative() {
		return &generic.ValidationError{Field: "weekly_hours", Message: "must not be negative"}
	}
	if e.TerminationDate != nil && e.TerminationDate.Before(e.HireDate) {
		return &generic.ValidationError{Field: "termination_date", Message: "before hire date"}
	}
	if e.Schedule != nil {
		return e.Schedule.Validate()
	}
	return nil
}

// =============================================================================
// WORK SCHEDULE
// =============================================================================

// WorkSchedule holds target hours per weekday, indexed by time.Weekday.
// A weekday with 0 hours is not a working day.
type WorkSchedule [7]decimal.Decimal

// NewWorkSchedule builds a schedule from Monday-first hours.
func NewWorkSchedule(mon, tue, wed, thu, fri, sat, sun float64) *WorkSchedule {
	var s WorkSchedule
	s[time.Monday] = generic.Hours(mon)
	s[time.Tuesday] = generic.Hours(tue)
	s[time.Wednesday] = generic.Hours(wed)
	s[time.Thursday] = generic.Hours(thu)
	s[time.Friday] = generic.Hours(fri)
	s[time.Saturday] = generic.Hours(sat)
	s[time.Sunday] = generic.Hours(sun)
	return &s
}

func (s WorkSchedule) Hours(wd time.Weekday) decimal.Decimal {
	return s[wd]
}

// WeeklyTotal sums all seven days.
func (s WorkSchedule) WeeklyTotal() decimal.Decimal {
	return generic.SumHours(s[:]...)
}

func (s WorkSchedule) Validate() error {
	for wd, h := range s {
		if h.IsNegative() {
			return &generic.ValidationError{
				Field:   "schedule." + strings.ToLower(time.Weekday(wd).String()),
				Message: "must not be negative",
			}
		}
	}
	return nil
}

// =============================================================================
// TIME ENTRY
// =============================================================================

// TimeEntry is worked time for one day, already net of breaks.
type TimeEntry struct {
	ID         string
	EmployeeID string
	Date       generic.Date
	Hours      decimal.Decimal
}

func (t TimeEntry) Validate() error {
	if t.Date.IsZero() {
		return &generic.ValidationError{Field: "date", Message: "required"}
	}
	if t.Hours.IsNegative() {
		return &generic.ValidationError{Field: "hours", Message: "must not be negative"}
	}
	return nil
}

// HoursFromShift converts "HH:MM" start/end clock times and a break into net
// hours. An end before the start crosses midnight.
func HoursFromShift(start, end string, breakMinutes int) (decimal.Decimal, error) {
	s, err := parseClock(start)
	if err != nil {
		return decimal.Zero, &generic.ValidationError{Field: "start_time", Message: err.Error()}
	}
	e, err := parseClock(end)
	if err != nil {
		return decimal.Zero, &generic.ValidationError{Field: "end_time", Message: err.Error()}
	}
	if breakMinutes < 0 {
		return decimal.Zero, &generic.ValidationError{Field: "break_minutes", Message: "must not be negative"}
	}
	if e < s {
		e += 24 * time.Hour
	}
	net := e - s - time.Duration(breakMinutes)*time.Minute
	if net < 0 {
		return decimal.Zero, &generic.ValidationError{Field: "break_minutes", Message: "longer than the shift"}
	}
	return decimal.NewFromInt(int64(net / time.Minute)).Div(decimal.NewFromInt(60)).Round(2), nil
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// =============================================================================
// ABSENCE
// =============================================================================

// AbsenceType is a closed enumeration. Every switch over it must list all
// members; CreditPolicy and TransactionType panic on anything else.
type AbsenceType int

const (
	AbsenceVacation AbsenceType = iota + 1
	AbsenceSick
	AbsenceUnpaid
	AbsenceOvertimeComp
	AbsenceSpecial
)

var AbsenceTypes = []AbsenceType{AbsenceVacation, AbsenceSick, AbsenceUnpaid, AbsenceOvertimeComp, AbsenceSpecial}

func (t AbsenceType) String() string {
	switch t {
	case AbsenceVacation:
		return "vacation"
	case AbsenceSick:
		return "sick"
	case AbsenceUnpaid:
		return "unpaid"
	case AbsenceOvertimeComp:
		return "overtime_comp"
	case AbsenceSpecial:
		return "special"
	}
	return fmt.Sprintf("AbsenceType(%d)", int(t))
}

func ParseAbsenceType(s string) (AbsenceType, error) {
	for _, t := range AbsenceTypes {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, &generic.ValidationError{Field: "type", Message: fmt.Sprintf("unknown absence type %q", s)}
}

// CreditPolicy decides how a covered working day is booked.
type CreditPolicy int

const (
	// CreditTarget credits exactly the day's target hours.
	CreditTarget CreditPolicy = iota + 1
	// ZeroTarget forces the day's target to 0 and credits nothing.
	ZeroTarget
)

func (t AbsenceType) CreditPolicy() CreditPolicy {
	switch t {
	case AbsenceVacation, AbsenceSick, AbsenceOvertimeComp, AbsenceSpecial:
		return CreditTarget
	case AbsenceUnpaid:
		return ZeroTarget
	}
	panic(fmt.Sprintf("overtime: no credit policy for %s", t))
}

// TransactionType is the ledger tag for credit rows of this absence type.
// Unpaid absences never produce credit rows.
func (t AbsenceType) TransactionType() generic.TransactionType {
	switch t {
	case AbsenceVacation:
		return generic.TxVacation
	case AbsenceSick:
		return generic.TxSick
	case AbsenceOvertimeComp:
		return generic.TxCompensation
	case AbsenceSpecial:
		return generic.TxSpecial
	case AbsenceUnpaid:
		return ""
	}
	panic(fmt.Sprintf("overtime: no transaction type for %s", t))
}

type AbsenceStatus string

const (
	StatusPending  AbsenceStatus = "pending"
	StatusApproved AbsenceStatus = "approved"
	StatusRejected AbsenceStatus = "rejected"
)

func ParseAbsenceStatus(s string) (AbsenceStatus, error) {
	switch st := AbsenceStatus(s); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, nil
	}
	return "", &generic.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", s)}
}

// AbsenceRequest covers [Start, End] inclusive.
type AbsenceRequest struct {
	ID         string
	EmployeeID string
	Type       AbsenceType
	Start      generic.Date
	End        generic.Date
	Status     AbsenceStatus
}

func (a AbsenceRequest) Period() generic.Period {
	return generic.Period{Start: a.Start, End: a.End}
}

func (a AbsenceRequest) Validate() error {
	if a.Start.IsZero() || a.End.IsZero() {
		return &generic.ValidationError{Field: "start_date", Message: "start and end are required"}
	}
	if a.End.Before(a.Start) {
		return &generic.ValidationError{Field: "end_date", Message: "before start date"}
	}
	if _, err := ParseAbsenceType(a.Type.String()); err != nil {
		return err
	}
	if _, err := ParseAbsenceStatus(string(a.Status)); err != nil {
		return err
	}
	return nil
}

// =============================================================================
// CORRECTION
// =============================================================================

// Correction is a signed manual adjustment. Immutable once written.
type Correction struct {
	ID         string
	EmployeeID string
	Date       generic.Date
	Hours      decimal.Decimal
	Reason     string
	CreatedBy  string
}

func (c Correction) Validate() error {
	if c.Date.IsZero() {
		return &generic.ValidationError{Field: "date", Message: "required"}
	}
	if strings.TrimSpace(c.Reason) == "" {
		return &generic.ValidationError{Field: "reason", Message: "required"}
	}
	if strings.TrimSpace(c.CreatedBy) == "" {
		return &generic.ValidationError{Field: "created_by", Message: "required"}
	}
	return nil
}

// =============================================================================
// SOURCES - What the engine reads from collaborators
// =============================================================================

// EmployeeSource returns a *generic.NotFoundError for unknown IDs.
type EmployeeSource interface {
	GetEmployee(ctx context.Context, id string) (*Employee, error)
}

// RecordSource returns records dated (or overlapping) [from, to].
type RecordSource interface {
	TimeEntries(ctx context.Context, employeeID string, from, to generic.Date) ([]TimeEntry, error)
	Absences(ctx context.Context, employeeID string, from, to generic.Date) ([]AbsenceRequest, error)
	Corrections(ctx context.Context, employeeID string, from, to generic.Date) ([]Correction, error)
}

// HolidaySource reports loaded=false for a year that was never loaded.
type HolidaySource interface {
	Holidays(ctx context.Context, year int) (holidays []generic.Holiday, loaded bool, err error)
}

// Repository is everything the calculation reads.
type Repository interface {
	EmployeeSource
	RecordSource
	HolidaySource
}

// RecordWriter persists the records the engine reads. Corrections have no
// update or delete: a mistaken correction is offset by another one.
type RecordWriter interface {
	SaveEmployee(ctx context.Context, e Employee) error
	ListEmployees(ctx context.Context) ([]Employee, error)

	SaveTimeEntry(ctx context.Context, t TimeEntry) error
	// DeleteTimeEntry returns the removed entry.
	DeleteTimeEntry(ctx context.Context, id string) (*TimeEntry, error)

	SaveAbsence(ctx context.Context, a AbsenceRequest) error
	GetAbsence(ctx context.Context, id string) (*AbsenceRequest, error)

	AddCorrection(ctx context.Context, c Correction) error

	// SaveHolidays replaces the holidays of year and marks it loaded.
	SaveHolidays(ctx context.Context, year int, holidays []generic.Holiday) error
}

// RecordStore reads and writes records.
type RecordStore interface {
	Repository
	RecordWriter
}
