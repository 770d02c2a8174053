package overtime_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// DERIVED ROWS
// =============================================================================

func TestDeriveTransactions_OneRowPerEvent(t *testing.T) {
	f, _ := jan2025Fixture(t, "2025-03-15")
	f.correction(t, overtime.Employee{ID: "e1"}, "c1", "2025-01-20", 0.5)

	res, err := f.calc.Calculate(f.ctx, "e1", dp("2025-01-13"), dp("2025-01-20"))
	require.NoError(t, err)
	txs := overtime.DeriveTransactions(res)

	// Jan 13: vacation day, no work logged → earned -8 and vacation +8.
	// Jan 14-17: exactly 8h → no earned rows (zero net).
	// Jan 20: 8h worked → no earned row, correction +0.5.
	require.Len(t, txs, 3)
	assert.Equal(t, generic.TxEarned, txs[0].Type)
	assertHours(t, -8, txs[0].Hours)
	assert.Equal(t, generic.TxVacation, txs[1].Type)
	assertHours(t, 8, txs[1].Hours)
	assert.Equal(t, "vac-1", txs[1].ReferenceID)
	assert.Equal(t, generic.TxCorrection, txs[2].Type)
	assert.Equal(t, "c1", txs[2].ReferenceID)
	assert.Equal(t, "hr-1", txs[2].CreatedBy)
}

func TestLedgerSync_IsIdempotentAndAppendOnly(t *testing.T) {
	f := newFixture(t, "2025-03-15")
	f.holidays(t, []int{2025})
	emp := f.hire(t, "e1", "2025-01-01", 40, nil)
	f.work(t, emp, "2025-02-03", 10)

	sync := &overtime.LedgerSync{Ledger: f.ledger, Clock: f.clock}
	month := generic.MonthKey("2025-02")

	res, err := f.calc.Calculate(f.ctx, "e1", dp("2025-02-01"), dp("2025-02-28"))
	require.NoError(t, err)
	appended, err := sync.SyncMonth(f.ctx, "e1", month, overtime.DeriveTransactions(res))
	require.NoError(t, err)
	assert.NotEmpty(t, appended)

	again, err := sync.SyncMonth(f.ctx, "e1", month, overtime.DeriveTransactions(res))
	require.NoError(t, err)
	assert.Empty(t, again, "unchanged inputs append nothing")

	// The entry is corrected to 7h: one reversal and one new row.
	f.work(t, emp, "2025-02-03", 7)
	res, err = f.calc.Calculate(f.ctx, "e1", dp("2025-02-01"), dp("2025-02-28"))
	require.NoError(t, err)
	appended, err = sync.SyncMonth(f.ctx, "e1", month, overtime.DeriveTransactions(res))
	require.NoError(t, err)
	require.Len(t, appended, 2)
	assert.Equal(t, generic.TxReversal, appended[0].Type)
	assertHours(t, -2, appended[0].Hours)
	assert.Equal(t, generic.TxEarned, appended[1].Type)
	assertHours(t, -1, appended[1].Hours)
	assert.NotEqual(t, appended[0].IdempotencyKey, appended[1].IdempotencyKey)

	all, err := f.ledger.Transactions(f.ctx, "e1")
	require.NoError(t, err)
	onThird := 0
	for _, tx := range all {
		if tx.EffectiveAt.Equal(d("2025-02-03")) {
			onThird++
		}
	}
	assert.Equal(t, 3, onThird, "original, reversal and replacement are all kept")

	bal, err := f.ledger.BalanceAt(f.ctx, "e1", d("2025-02-28"))
	require.NoError(t, err)
	assert.True(t, bal.Equal(res.Total.Overtime))
}

func TestLedgerSync_MovedCorrectionIsReversedOnItsOldDate(t *testing.T) {
	f := newFixture(t, "2025-03-15")
	f.holidays(t, []int{2025})
	f.hire(t, "e1", "2025-01-01", 0, nil)
	sync := &overtime.LedgerSync{Ledger: f.ledger, Clock: f.clock}
	p := generic.Period{Start: d("2025-02-01"), End: d("2025-02-28")}

	moved := func(date string) []generic.Transaction {
		return []generic.Transaction{{
			EmployeeID:  "e1",
			EffectiveAt: d(date),
			Hours:       h(3),
			Type:        generic.TxCorrection,
			EventKey:    "correction:c1:" + date,
			ReferenceID: "c1",
		}}
	}

	_, err := sync.SyncPeriod(f.ctx, "e1", p, moved("2025-02-03"))
	require.NoError(t, err)
	appended, err := sync.SyncPeriod(f.ctx, "e1", p, moved("2025-02-10"))
	require.NoError(t, err)
	require.Len(t, appended, 2)

	bal, err := f.ledger.BalanceAt(f.ctx, "e1", d("2025-02-05"))
	require.NoError(t, err)
	assertHours(t, 0, bal, "nothing left on the old date")
	bal, err = f.ledger.BalanceAt(f.ctx, "e1", d("2025-02-10"))
	require.NoError(t, err)
	assertHours(t, 3, bal)
}

// =============================================================================
// LEDGER IDENTITY - Σ(tx ≤ D) == live cumulative balance through D
// =============================================================================

func TestLedgerIdentity_RandomizedHistories(t *testing.T) {
	for seed := int64(1); seed <= 8; seed++ {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewSource(seed))
			f := newFixture(t, "2025-06-20")
			f.holidays(t, []int{2024, 2025}, "2024-10-03", "2024-12-25", "2024-12-26", "2025-01-01", "2025-04-18", "2025-05-01")
			emp := f.hire(t, "e1", "2024-03-11", 40, nil)
			if seed%2 == 0 {
				emp = f.hire(t, "e1", "2024-03-11", 0, overtime.NewWorkSchedule(8, 0, 6, 8, 8, 0, 0))
			}

			randomHistory(t, f, emp, rng)
			assertLedgerIdentity(t, f, emp, rng)

			// Mutate inputs through the service, then check again.
			entries, err := f.repo.TimeEntries(f.ctx, "e1", d("2024-03-11"), d("2025-06-20"))
			require.NoError(t, err)
			for i := 0; i < 10 && len(entries) > 0; i++ {
				victim := entries[rng.Intn(len(entries))]
				if err := f.svc.DeleteTimeEntry(f.ctx, victim.ID); err != nil {
					require.ErrorIs(t, err, generic.ErrNotFound)
				}
			}
			_, err = f.svc.AddCorrection(f.ctx, overtime.Correction{
				EmployeeID: "e1", Date: d("2024-07-01"), Hours: h(-4.25), Reason: "audit", CreatedBy: "hr-2",
			})
			require.NoError(t, err)
			absences, err := f.repo.Absences(f.ctx, "e1", d("2024-03-11"), d("2025-06-20"))
			require.NoError(t, err)
			if len(absences) > 0 {
				_, err = f.svc.SetAbsenceStatus(f.ctx, absences[0].ID, overtime.StatusRejected)
				require.NoError(t, err)
			}

			assertLedgerIdentity(t, f, emp, rng)

			// Shrink the employment window: odd seeds terminate early, even
			// seeds move the hire date later.
			if seed%2 == 1 {
				emp.TerminationDate = dp(d("2025-01-15").AddDays(rng.Intn(120)).String())
			} else {
				emp.HireDate = d("2024-05-01").AddDays(rng.Intn(200))
			}
			_, err = f.svc.SaveEmployee(f.ctx, emp)
			require.NoError(t, err)

			assertLedgerIdentity(t, f, emp, rng)
		})
	}
}

func randomHistory(t *testing.T, f *fixture, emp overtime.Employee, rng *rand.Rand) {
	t.Helper()
	hours := []float64{0, 4, 7.5, 8, 8, 8, 9.25, 10}
	for day := d("2024-03-11"); !day.After(d("2025-06-20")); day = day.AddDays(1) {
		switch {
		case day.IsWeekend():
			if rng.Float64() < 0.05 {
				f.work(t, emp, day.String(), 3)
			}
		case rng.Float64() < 0.85:
			f.work(t, emp, day.String(), hours[rng.Intn(len(hours))])
		}
	}

	statuses := []overtime.AbsenceStatus{overtime.StatusApproved, overtime.StatusApproved, overtime.StatusPending, overtime.StatusRejected}
	for i := 0; i < 8; i++ {
		start := d("2024-03-11").AddDays(rng.Intn(460))
		f.absence(t, emp, fmt.Sprintf("abs-%d", i),
			overtime.AbsenceTypes[rng.Intn(len(overtime.AbsenceTypes))],
			start.String(), start.AddDays(rng.Intn(6)).String(),
			statuses[rng.Intn(len(statuses))])
	}

	corrections := []float64{-2, -0.5, 1.5, 3}
	for i := 0; i < 6; i++ {
		day := d("2024-03-11").AddDays(rng.Intn(460))
		f.correction(t, emp, fmt.Sprintf("corr-%d", i), day.String(), corrections[rng.Intn(len(corrections))])
	}
}

func assertLedgerIdentity(t *testing.T, f *fixture, emp overtime.Employee, rng *rand.Rand) {
	t.Helper()

	// Reading the history brings every month up to date.
	_, err := f.mat.History(f.ctx, "e1", overtime.HistoryFilter{})
	require.NoError(t, err)

	checkpoints := []generic.Date{d("2024-03-11"), d("2024-12-31"), d("2025-01-01"), d("2025-06-20")}
	for i := 0; i < 12; i++ {
		checkpoints = append(checkpoints, d("2024-03-11").AddDays(rng.Intn(466)))
	}
	for _, at := range checkpoints {
		ledger, err := f.ledger.BalanceAt(f.ctx, "e1", at)
		require.NoError(t, err)
		if at.Before(emp.HireDate) {
			assert.Truef(t, ledger.IsZero(), "through %s, before hire: ledger %s", at, ledger.String())
			continue
		}
		live, err := f.calc.Calculate(f.ctx, "e1", &emp.HireDate, &at)
		require.NoError(t, err)
		assert.Truef(t, ledger.Equal(live.Total.Overtime),
			"through %s: ledger %s, live %s", at, ledger.String(), live.Total.Overtime.String())
	}

	current, err := f.mat.CurrentBalance(f.ctx, "e1")
	require.NoError(t, err)
	total, err := f.ledger.BalanceAt(f.ctx, "e1", d("2025-06-20"))
	require.NoError(t, err)
	assert.True(t, current.Balance.Equal(total), "closing balance %s, ledger %s", current.Balance, total)
}
