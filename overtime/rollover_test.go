package overtime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

// rolloverFixture: hired 2024-01-01, full 8h days through 2024 plus +5h and
// +3h of corrections, so 2024 closes at +8h.
func rolloverFixture(t *testing.T) (*fixture, overtime.Employee) {
	t.Helper()
	f := newFixture(t, "2025-02-10")
	f.holidays(t, []int{2024, 2025}, "2024-12-25", "2025-01-01")
	emp := f.hire(t, "e1", "2024-01-01", 40, nil)
	f.workScheduled(t, emp, "2024-01-01", "2025-02-10", 8)
	f.correction(t, emp, "c1", "2024-06-03", 5)
	f.correction(t, emp, "c2", "2024-11-04", 3)
	return f, emp
}

func TestRollover_CarriesClosingBalance(t *testing.T) {
	f, _ := rolloverFixture(t)

	carry, err := f.mat.Rollover(f.ctx, "e1", 2025)
	require.NoError(t, err)
	assertHours(t, 8, carry)

	yb, err := f.mat.Year(f.ctx, "e1", 2025)
	require.NoError(t, err)
	assertHours(t, 8, yb.CarryoverFromPreviousYear)
	assertHours(t, 8, yb.Balance)

	jan, err := f.mat.Month(f.ctx, "e1", "2025-01")
	require.NoError(t, err)
	require.NotNil(t, jan.CarryoverFromPreviousYear)
	assertHours(t, 8, *jan.CarryoverFromPreviousYear)
}

func TestRollover_Idempotent(t *testing.T) {
	// GIVEN: The 2024 → 2025 boundary
	// WHEN: Rollover runs twice
	// THEN: Same carryover, exactly one marker transaction

	f, _ := rolloverFixture(t)

	first, err := f.mat.Rollover(f.ctx, "e1", 2025)
	require.NoError(t, err)
	second, err := f.mat.Rollover(f.ctx, "e1", 2025)
	require.NoError(t, err)
	assert.True(t, first.Equal(second))

	txs, err := f.ledger.TransactionsInRange(f.ctx, "e1", d("2025-01-01"), d("2025-01-01"))
	require.NoError(t, err)
	require.Equal(t, 1, countType(txs, generic.TxCarryover))

	var marker generic.Transaction
	for _, tx := range txs {
		if tx.Type == generic.TxCarryover {
			marker = tx
		}
	}
	assertHours(t, 0, marker.Hours)
	assert.Equal(t, "carryover:e1:2025", marker.IdempotencyKey)
	assert.Equal(t, "8", marker.Metadata["carryover"])
}

func TestRollover_PriorYearChangeFlowsIntoCarryover(t *testing.T) {
	f, emp := rolloverFixture(t)

	_, err := f.mat.Rollover(f.ctx, "e1", 2025)
	require.NoError(t, err)

	_, err = f.svc.AddCorrection(f.ctx, overtime.Correction{
		EmployeeID: emp.ID, Date: d("2024-09-02"), Hours: h(2), Reason: "late approval", CreatedBy: "hr-1",
	})
	require.NoError(t, err)

	carry, err := f.mat.Rollover(f.ctx, "e1", 2025)
	require.NoError(t, err)
	assertHours(t, 10, carry)

	txs, err := f.ledger.Transactions(f.ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 1, countType(txs, generic.TxCarryover), "still one marker")
}

func TestRollover_HireYearHasNoMarker(t *testing.T) {
	f, _ := rolloverFixture(t)

	carry, err := f.mat.Rollover(f.ctx, "e1", 2024)
	require.NoError(t, err)
	assertHours(t, 0, carry)

	yb, err := f.mat.Year(f.ctx, "e1", 2024)
	require.NoError(t, err)
	assertHours(t, 0, yb.CarryoverFromPreviousYear)
	assertHours(t, 8, yb.Balance)

	txs, err := f.ledger.Transactions(f.ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 0, countType(txs, generic.TxCarryover))
}

func TestRollover_FutureYearRejected(t *testing.T) {
	f, _ := rolloverFixture(t)

	_, err := f.mat.Rollover(f.ctx, "e1", 2026)
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestRollover_FirstJanuaryReadEmitsMarker(t *testing.T) {
	f, _ := rolloverFixture(t)

	_, err := f.mat.CurrentBalance(f.ctx, "e1")
	require.NoError(t, err)

	txs, err := f.ledger.Transactions(f.ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 1, countType(txs, generic.TxCarryover))
}
