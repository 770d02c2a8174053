/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Employee:      factory.EmployeeJSON (request and response)
  Records:       TimeEntryRequest/DTO, AbsenceRequest/DTO, CorrectionRequest/DTO
  Holidays:      HolidayDTO, LoadHolidaysRequest
  Balance:       MonthlyBalanceDTO, YearlyBalanceDTO, DayDTO, BucketDTO
  History:       TransactionDTO
  Sufficiency:   SufficiencyRequest, SufficiencyDTO
  Admin:         RebuildDTO, CacheEntryDTO
  Scenarios:     ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Request shapes are checked with go-playground/validator struct tags.
  Domain rules (non-negative hours, end after start) stay in the domain
  types' Validate methods.

HOURS:
  All hour values are decimals and serialize as JSON strings ("8.5").
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// RECORD REQUESTS
// =============================================================================

// TimeEntryRequest records worked time. Either hours or a start/end shift
// must be given; a shift wins when both are.
type TimeEntryRequest struct {
	ID           string           `json:"id"`
	Date         string           `json:"date" validate:"required,datetime=2006-01-02"`
	Hours        *decimal.Decimal `json:"hours"`
	StartTime    string           `json:"start_time" validate:"required_with=EndTime,omitempty,datetime=15:04"`
	EndTime      string           `json:"end_time" validate:"required_with=StartTime,omitempty,datetime=15:04"`
	BreakMinutes int              `json:"break_minutes" validate:"min=0,max=1440"`
}

type TimeEntryDTO struct {
	ID         string          `json:"id"`
	EmployeeID string          `json:"employee_id"`
	Date       string          `json:"date"`
	Hours      decimal.Decimal `json:"hours"`
}

// AbsenceRequestDTO is the body of an absence request.
type AbsenceRequestDTO struct {
	ID        string `json:"id"`
	Type      string `json:"type" validate:"required,oneof=vacation sick unpaid overtime_comp special"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Status    string `json:"status" validate:"omitempty,oneof=pending approved rejected"`
}

type AbsenceDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	Type       string `json:"type"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Status     string `json:"status"`

	// Set on overtime compensation requests: the hours they take.
	CompensationHours *decimal.Decimal `json:"compensation_hours,omitempty"`
}

type CorrectionRequest struct {
	ID        string          `json:"id"`
	Date      string          `json:"date" validate:"required,datetime=2006-01-02"`
	Hours     decimal.Decimal `json:"hours"`
	Reason    string          `json:"reason" validate:"required,max=500"`
	CreatedBy string          `json:"created_by" validate:"required,max=200"`
}

type CorrectionDTO struct {
	ID         string          `json:"id"`
	EmployeeID string          `json:"employee_id"`
	Date       string          `json:"date"`
	Hours      decimal.Decimal `json:"hours"`
	Reason     string          `json:"reason"`
	CreatedBy  string          `json:"created_by"`
}

// =============================================================================
// HOLIDAYS
// =============================================================================

type HolidayDTO struct {
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	Name         string `json:"name" validate:"required,max=200"`
	Jurisdiction string `json:"jurisdiction" validate:"max=20"`
}

// LoadHolidaysRequest replaces a year's holidays. An empty list is a valid
// calendar: the year is loaded and has no holidays.
type LoadHolidaysRequest struct {
	Holidays []HolidayDTO `json:"holidays" validate:"dive"`
}

type HolidayYearDTO struct {
	Year     int          `json:"year"`
	Loaded   bool         `json:"loaded"`
	Holidays []HolidayDTO `json:"holidays"`
}

// =============================================================================
// BALANCES
// =============================================================================

type MonthlyBalanceDTO struct {
	EmployeeID      string           `json:"employee_id"`
	Month           string           `json:"month"`
	TargetHours     decimal.Decimal  `json:"target_hours"`
	ActualHours     decimal.Decimal  `json:"actual_hours"`
	Overtime        decimal.Decimal  `json:"overtime"`
	Carryover       *decimal.Decimal `json:"carryover_from_previous_year,omitempty"`
	ComputedThrough string           `json:"computed_through"`

	Days  []DayDTO    `json:"days,omitempty"`
	Weeks []BucketDTO `json:"weeks,omitempty"`
}

type YearlyBalanceDTO struct {
	EmployeeID  string              `json:"employee_id"`
	Year        int                 `json:"year"`
	TargetHours decimal.Decimal     `json:"target_hours"`
	ActualHours decimal.Decimal     `json:"actual_hours"`
	Overtime    decimal.Decimal     `json:"overtime"`
	Carryover   decimal.Decimal     `json:"carryover_from_previous_year"`
	Balance     decimal.Decimal     `json:"balance"`
	Months      []MonthlyBalanceDTO `json:"months"`
}

// DayDTO is one row of the daily breakdown.
type DayDTO struct {
	Date          string          `json:"date"`
	Target        decimal.Decimal `json:"target"`
	Worked        decimal.Decimal `json:"worked"`
	AbsenceCredit decimal.Decimal `json:"absence_credit"`
	Correction    decimal.Decimal `json:"correction"`
	Actual        decimal.Decimal `json:"actual"`
	Overtime      decimal.Decimal `json:"overtime"`
	Balance       decimal.Decimal `json:"balance"`
	WorkingDay    bool            `json:"working_day"`
	Holiday       string          `json:"holiday,omitempty"`
	Absence       string          `json:"absence,omitempty"`
}

type BucketDTO struct {
	Key      string          `json:"key"`
	Start    string          `json:"start"`
	End      string          `json:"end"`
	Target   decimal.Decimal `json:"target"`
	Actual   decimal.Decimal `json:"actual"`
	Overtime decimal.Decimal `json:"overtime"`
	Days     int             `json:"days"`
}

// CalculationDTO is a live calculation over an arbitrary range.
type CalculationDTO struct {
	EmployeeID string      `json:"employee_id"`
	From       string      `json:"from"`
	To         string      `json:"to"`
	Total      BucketDTO   `json:"total"`
	Months     []BucketDTO `json:"months"`
	Weeks      []BucketDTO `json:"weeks"`
	Days       []DayDTO    `json:"days"`
}

// =============================================================================
// HISTORY
// =============================================================================

type TransactionDTO struct {
	ID           string            `json:"id"`
	EffectiveAt  string            `json:"effective_at"`
	Type         string            `json:"type"`
	Label        string            `json:"label"`
	Hours        decimal.Decimal   `json:"hours"`
	Description  string            `json:"description,omitempty"`
	ReferenceID  string            `json:"reference_id,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	BalanceAfter decimal.Decimal   `json:"balance_after"`
}

// =============================================================================
// SUFFICIENCY
// =============================================================================

// SufficiencyRequest asks whether a compensation fits. Give hours directly,
// or a date range whose scheduled hours are used.
type SufficiencyRequest struct {
	Hours      *decimal.Decimal `json:"hours"`
	StartDate  string           `json:"start_date" validate:"required_with=EndDate,omitempty,datetime=2006-01-02"`
	EndDate    string           `json:"end_date" validate:"required_with=StartDate,omitempty,datetime=2006-01-02"`
	MinBalance *decimal.Decimal `json:"min_balance"`
}

type SufficiencyDTO struct {
	EmployeeID string          `json:"employee_id"`
	Balance    decimal.Decimal `json:"balance"`
	Requested  decimal.Decimal `json:"requested"`
	After      decimal.Decimal `json:"after"`
	MinBalance decimal.Decimal `json:"min_balance"`
	Allowed    bool            `json:"allowed"`
}

// =============================================================================
// ADMIN
// =============================================================================

type RebuildDTO struct {
	EmployeeID string `json:"employee_id"`
	From       string `json:"from"`
	To         string `json:"to"`
	Months     int    `json:"months"`
}

type CacheEntryDTO struct {
	MonthlyBalanceDTO
	Generation        int64 `json:"generation"`
	CurrentGeneration int64 `json:"current_generation"`
	Stale             bool  `json:"stale"`
}

type RolloverDTO struct {
	EmployeeID string          `json:"employee_id"`
	Year       int             `json:"year"`
	Carryover  decimal.Decimal `json:"carryover"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toTimeEntryDTO(t overtime.TimeEntry) TimeEntryDTO {
	return TimeEntryDTO{ID: t.ID, EmployeeID: t.EmployeeID, Date: t.Date.String(), Hours: t.Hours}
}

func toAbsenceDTO(a overtime.AbsenceRequest) AbsenceDTO {
	return AbsenceDTO{
		ID:         a.ID,
		EmployeeID: a.EmployeeID,
		Type:       a.Type.String(),
		StartDate:  a.Start.String(),
		EndDate:    a.End.String(),
		Status:     string(a.Status),
	}
}

func toCorrectionDTO(c overtime.Correction) CorrectionDTO {
	return CorrectionDTO{
		ID:         c.ID,
		EmployeeID: c.EmployeeID,
		Date:       c.Date.String(),
		Hours:      c.Hours,
		Reason:     c.Reason,
		CreatedBy:  c.CreatedBy,
	}
}

func toMonthlyDTO(b generic.MonthlyBalance) MonthlyBalanceDTO {
	return MonthlyBalanceDTO{
		EmployeeID:      b.EmployeeID,
		Month:           b.Month.String(),
		TargetHours:     b.TargetHours,
		ActualHours:     b.ActualHours,
		Overtime:        b.Overtime,
		Carryover:       b.CarryoverFromPreviousYear,
		ComputedThrough: b.ComputedThrough.String(),
	}
}

func toYearlyDTO(y *overtime.YearlyBalance) YearlyBalanceDTO {
	months := make([]MonthlyBalanceDTO, len(y.Months))
	for i, m := range y.Months {
		months[i] = toMonthlyDTO(m)
	}
	return YearlyBalanceDTO{
		EmployeeID:  y.EmployeeID,
		Year:        y.Year,
		TargetHours: y.TargetHours,
		ActualHours: y.ActualHours,
		Overtime:    y.Overtime,
		Carryover:   y.CarryoverFromPreviousYear,
		Balance:     y.Balance,
		Months:      months,
	}
}

func toDayDTOs(rows []overtime.DayRow) []DayDTO {
	dtos := make([]DayDTO, len(rows))
	for i, r := range rows {
		dto := DayDTO{
			Date:          r.Date.String(),
			Target:        r.Target,
			Worked:        r.Worked,
			AbsenceCredit: r.AbsenceCredit,
			Correction:    r.Correction,
			Actual:        r.Actual,
			Overtime:      r.Overtime,
			Balance:       r.Balance,
			WorkingDay:    r.WorkingDay,
		}
		if r.Holiday != nil {
			dto.Holiday = r.Holiday.Name
		}
		if r.Absence != nil {
			dto.Absence = r.Absence.Type.String()
		}
		dtos[i] = dto
	}
	return dtos
}

func toBucketDTO(b overtime.Bucket) BucketDTO {
	return BucketDTO{
		Key:      b.Key,
		Start:    b.Start.String(),
		End:      b.End.String(),
		Target:   b.Target,
		Actual:   b.Actual,
		Overtime: b.Overtime,
		Days:     b.Days,
	}
}

func toBucketDTOs(buckets []overtime.Bucket) []BucketDTO {
	dtos := make([]BucketDTO, len(buckets))
	for i, b := range buckets {
		dtos[i] = toBucketDTO(b)
	}
	return dtos
}

func toTransactionDTOs(entries []overtime.HistoryEntry) []TransactionDTO {
	dtos := make([]TransactionDTO, len(entries))
	for i, e := range entries {
		dtos[i] = TransactionDTO{
			ID:           string(e.ID),
			EffectiveAt:  e.EffectiveAt.String(),
			Type:         string(e.Type),
			Label:        e.Label,
			Hours:        e.Hours,
			Description:  e.Description,
			ReferenceID:  e.ReferenceID,
			Metadata:     e.Metadata,
			BalanceAfter: e.Balance,
		}
	}
	return dtos
}

func toSufficiencyDTO(r *overtime.SufficiencyResult) SufficiencyDTO {
	return SufficiencyDTO{
		EmployeeID: r.EmployeeID,
		Balance:    r.Balance,
		Requested:  r.Requested,
		After:      r.After,
		MinBalance: r.MinBalance,
		Allowed:    r.Allowed,
	}
}

func toHolidayDTOs(holidays []generic.Holiday) []HolidayDTO {
	dtos := make([]HolidayDTO, len(holidays))
	for i, h := range holidays {
		dtos[i] = HolidayDTO{Date: h.Date.String(), Name: h.Name, Jurisdiction: h.Jurisdiction}
	}
	return dtos
}
