package overtime

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/generic"
)

// SufficiencyResult answers whether an overtime compensation request fits
// within the allowed floor.
type SufficiencyResult struct {
	EmployeeID string
	Balance    decimal.Decimal
	Requested  decimal.Decimal
	After      decimal.Decimal
	MinBalance decimal.Decimal
	Allowed    bool
}

// CheckCompensation reports whether taking hours of overtime compensation
// keeps the balance at or above minBalance (usually zero or negative).
func (m *Materializer) CheckCompensation(ctx context.Context, employeeID string, hours, minBalance decimal.Decimal) (*SufficiencyResult, error) {
	if hours.IsNegative() {
		return nil, &generic.ValidationError{Field: "hours", Message: "must not be negative"}
	}
	current, err := m.CurrentBalance(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	after := current.Balance.Sub(hours)
	return &SufficiencyResult{
		EmployeeID: employeeID,
		Balance:    current.Balance,
		Requested:  hours,
		After:      after,
		MinBalance: minBalance,
		Allowed:    after.GreaterThanOrEqual(minBalance),
	}, nil
}

// CompensationHours is what an absence would deduct: the scheduled target of
// every working day it covers.
func (m *Materializer) CompensationHours(ctx context.Context, a AbsenceRequest) (decimal.Decimal, error) {
	if err := a.Validate(); err != nil {
		return decimal.Zero, err
	}
	emp, err := m.employee(ctx, a.EmployeeID)
	if err != nil {
		return decimal.Zero, err
	}
	cal, err := LoadHolidayCalendar(ctx, m.Calc.Repo, a.Period())
	if err != nil {
		return decimal.Zero, err
	}
	far := generic.MaxDate(a.End, emp.HireDate)
	days, err := WorkingDays(emp, cal, a.Period(), far)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, d := range days {
		total = total.Add(emp.TargetHours(d))
	}
	return total, nil
}

// CheckAbsence runs CheckCompensation for the hours an overtime compensation
// absence would take. Other absence types never touch the balance and are
// always allowed.
func (m *Materializer) CheckAbsence(ctx context.Context, a AbsenceRequest, minBalance decimal.Decimal) (*SufficiencyResult, error) {
	hours := decimal.Zero
	if a.Type == AbsenceOvertimeComp {
		var err error
		if hours, err = m.CompensationHours(ctx, a); err != nil {
			return nil, err
		}
	}
	return m.CheckCompensation(ctx, a.EmployeeID, hours, minBalance)
}
