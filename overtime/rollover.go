/*
rollover.go - Year boundary carryover

  carryover(Y) = closing balance of Y-1
               = carryover(Y-1) + Σ MonthlyBalance.overtime of Y-1
  carryover(hire year) = 0

The value lives on the January row of Y and is recomputed with it, so a
later change to the prior year flows into the carryover (Invalidate bumps
every later January). The ledger gets exactly one 0-hour marker per
boundary, keyed carryover:<employee>:<year>; a second attempt hits the
duplicate idempotency key and is dropped. The hire year has no marker.
*/
package overtime

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/generic"
)

// Rollover settles the boundary into year and returns the carryover. Running
// it again returns the same value and appends nothing.
func (m *Materializer) Rollover(ctx context.Context, employeeID string, year int) (decimal.Decimal, error) {
	emp, err := m.employee(ctx, employeeID)
	if err != nil {
		return decimal.Zero, err
	}
	if year <= emp.HireDate.Year() {
		return decimal.Zero, nil
	}
	today := m.Calc.Clock.Today()
	if year > today.Year() {
		return decimal.Zero, &generic.ValidationError{Field: "year", Message: fmt.Sprintf("%d has not started", year)}
	}

	jan := generic.NewMonthKey(year, time.January)
	if emp.EffectivePeriod(jan.Period(), today).IsEmpty() {
		// Employment ended before the boundary: nothing to mark.
		return m.carryIn(ctx, emp, year)
	}

	row, err := m.ensure(ctx, emp, jan)
	if err != nil {
		return decimal.Zero, err
	}
	carry := decimal.Zero
	if row.CarryoverFromPreviousYear != nil {
		carry = *row.CarryoverFromPreviousYear
	}
	if err := m.appendCarryoverMarker(ctx, emp.ID, year, carry); err != nil {
		return decimal.Zero, err
	}
	return carry, nil
}

// carryIn is the closing balance of year-1, read through the cache.
func (m *Materializer) carryIn(ctx context.Context, emp Employee, year int) (decimal.Decimal, error) {
	if year <= emp.HireDate.Year() {
		return decimal.Zero, nil
	}
	prior, err := m.year(ctx, emp, year-1)
	if err != nil {
		return decimal.Zero, fmt.Errorf("carryover into %d: %w", year, err)
	}
	return prior.Balance, nil
}

func carryoverKey(employeeID string, year int) string {
	return fmt.Sprintf("carryover:%s:%d", employeeID, year)
}

func (m *Materializer) appendCarryoverMarker(ctx context.Context, employeeID string, year int, carry decimal.Decimal) error {
	key := carryoverKey(employeeID, year)
	tx := generic.Transaction{
		ID:             generic.TransactionID(uuid.NewSHA1(transactionNamespace, []byte(key)).String()),
		EmployeeID:     employeeID,
		EffectiveAt:    generic.StartOfYear(year),
		Hours:          decimal.Zero,
		Type:           generic.TxCarryover,
		EventKey:       "carryover:" + strconv.Itoa(year),
		Description:    fmt.Sprintf("Carryover from %d: %sh", year-1, carry.StringFixed(2)),
		IdempotencyKey: key,
		Metadata: map[string]string{
			"carryover": carry.String(),
			"from_year": strconv.Itoa(year - 1),
		},
		CreatedBy: "system",
		CreatedAt: m.Calc.Clock.Today(),
	}
	err := m.Ledger.Append(ctx, tx)
	if errors.Is(err, generic.ErrDuplicateIdempotencyKey) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("append carryover marker %d: %w", year, err)
	}
	m.Logger.Info("year rolled over",
		"employee_id", employeeID,
		"year", year,
		"carryover", carry.String(),
	)
	return nil
}
