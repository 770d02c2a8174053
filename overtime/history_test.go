package overtime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

func TestHistory_LabelsAndRunningBalance(t *testing.T) {
	f, emp := rolloverFixture(t)
	f.absence(t, emp, "sick-1", overtime.AbsenceSick, "2025-02-03", "2025-02-03", overtime.StatusApproved)
	// The entry on the sick day is dropped: sick credit replaces it.
	_, err := f.repo.DeleteTimeEntry(f.ctx, "e1-2025-02-03")
	require.NoError(t, err)

	all, err := f.mat.History(f.ctx, "e1", overtime.HistoryFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, all)

	last := all[len(all)-1]
	assertHours(t, 8, last.Balance, "closing balance")

	feb, err := f.mat.History(f.ctx, "e1", overtime.HistoryFilter{Month: "2025-02"})
	require.NoError(t, err)
	require.Len(t, feb, 2)
	// Rows of one day are ordered by event key: the absence credit first.
	assert.Equal(t, generic.TxSick, feb[0].Type)
	assert.Equal(t, "Sick leave credit", feb[0].Label)
	assertHours(t, 16, feb[0].Balance, "running balance counts rows outside the filter")
	assert.Equal(t, generic.TxEarned, feb[1].Type)
	assert.Equal(t, "Earned", feb[1].Label)
	assertHours(t, 8, feb[1].Balance)

	y2024, err := f.mat.History(f.ctx, "e1", overtime.HistoryFilter{Year: 2024})
	require.NoError(t, err)
	require.Len(t, y2024, 2)
	for _, e := range y2024 {
		assert.Equal(t, "Manual correction", e.Label)
		assert.Equal(t, "manual adjustment", e.Description)
	}

	y2025, err := f.mat.History(f.ctx, "e1", overtime.HistoryFilter{Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, "Year carryover", y2025[0].Label)
	assert.Equal(t, d("2025-01-01"), y2025[0].EffectiveAt)
}

func TestHistory_UnknownEmployee(t *testing.T) {
	f := newFixture(t, "2025-03-15")
	_, err := f.mat.History(f.ctx, "ghost", overtime.HistoryFilter{})
	assert.ErrorIs(t, err, generic.ErrNotFound)
}
