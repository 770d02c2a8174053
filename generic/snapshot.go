package generic

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONTHLY BALANCE - Materialized per-employee, per-month summary
// =============================================================================

// MonthlyBalance is a memoized live calculation for one calendar month.
// It carries no independent truth: every field is reproducible from inputs.
//
// Generation is the month's invalidation counter at the time the inputs were
// read. ComputedThrough is the last day the calculation covered; it moves
// forward with "today" inside the current month.
type MonthlyBalance struct {
	EmployeeID  string
	Month       MonthKey
	TargetHours decimal.Decimal
	ActualHours decimal.Decimal
	Overtime    decimal.Decimal

	// Only set on January rows.
	CarryoverFromPreviousYear *decimal.Decimal

	ComputedThrough Date
	Generation      int64
}

// Fingerprint is a canonical serialization. Two rows with the same
// fingerprint are byte-identical once persisted.
func (b MonthlyBalance) Fingerprint() string {
	carry := "-"
	if b.CarryoverFromPreviousYear != nil {
		carry = b.CarryoverFromPreviousYear.String()
	}
	return strings.Join([]string{
		b.EmployeeID,
		string(b.Month),
		b.TargetHours.String(),
		b.ActualHours.String(),
		b.Overtime.String(),
		carry,
		b.ComputedThrough.String(),
		strconv.FormatInt(b.Generation, 10),
	}, "|")
}

// =============================================================================
// BALANCE STORE - Persistence for monthly balances and their dirty markers
// =============================================================================

// BalanceStore persists MonthlyBalance rows and the per-month generation
// counters used to detect staleness.
type BalanceStore interface {
	// GetMonthlyBalance returns nil, nil when no row exists.
	GetMonthlyBalance(ctx context.Context, employeeID string, month MonthKey) (*MonthlyBalance, error)

	// ListMonthlyBalances returns stored rows in [from, to], ascending.
	ListMonthlyBalances(ctx context.Context, employeeID string, from, to MonthKey) ([]MonthlyBalance, error)

	// UpsertMonthlyBalance writes the row unless a row computed from a newer
	// generation is already stored. Reports whether the row was written.
	UpsertMonthlyBalance(ctx context.Context, row MonthlyBalance) (bool, error)

	// MonthGeneration returns the current invalidation counter (0 if never bumped).
	MonthGeneration(ctx context.Context, employeeID string, month MonthKey) (int64, error)

	// BumpGenerations marks the given months dirty.
	BumpGenerations(ctx context.Context, employeeID string, months []MonthKey) error
}
