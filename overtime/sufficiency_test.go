package overtime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

func TestCheckCompensation(t *testing.T) {
	f, _ := rolloverFixture(t) // balance +8h

	tests := []struct {
		name      string
		requested float64
		floor     float64
		allowed   bool
		after     float64
	}{
		{"within balance", 6, 0, true, 2},
		{"exactly down to the floor", 8, 0, true, 0},
		{"below zero floor", 8.5, 0, false, -0.5},
		{"negative floor allows undertime", 16, -10, true, -8},
		{"past negative floor", 20, -10, false, -12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.mat.CheckCompensation(f.ctx, "e1", h(tt.requested), h(tt.floor))
			require.NoError(t, err)
			assertHours(t, 8, res.Balance)
			assertHours(t, tt.after, res.After)
			assert.Equal(t, tt.allowed, res.Allowed)
		})
	}
}

func TestCheckCompensation_RejectsNegativeRequest(t *testing.T) {
	f, _ := rolloverFixture(t)
	_, err := f.mat.CheckCompensation(f.ctx, "e1", h(-1), h(0))
	assert.ErrorIs(t, err, generic.ErrValidation)

	_, err = f.mat.CheckCompensation(f.ctx, "ghost", h(1), h(0))
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestCheckAbsence_UsesScheduledHours(t *testing.T) {
	f := newFixture(t, "2025-03-15")
	f.holidays(t, []int{2025})
	emp := f.hire(t, "e1", "2025-01-01", 0, overtime.NewWorkSchedule(8, 0, 6, 8, 8, 0, 0))
	f.workTarget(t, emp, "2025-01-01", "2025-03-15")
	f.correction(t, emp, "bank", "2025-02-14", 20)

	a := overtime.AbsenceRequest{
		ID: "comp-1", EmployeeID: "e1", Type: overtime.AbsenceOvertimeComp,
		Start: d("2025-04-07"), End: d("2025-04-09"), Status: overtime.StatusPending,
	}
	hours, err := f.mat.CompensationHours(f.ctx, a)
	require.NoError(t, err)
	assertHours(t, 14, hours, "Mon 8 + Wed 6, Tuesday is off")

	res, err := f.mat.CheckAbsence(f.ctx, a, h(0))
	require.NoError(t, err)
	assertHours(t, 20, res.Balance)
	assertHours(t, 6, res.After)
	assert.True(t, res.Allowed)

	a.Type = overtime.AbsenceVacation
	res, err = f.mat.CheckAbsence(f.ctx, a, h(0))
	require.NoError(t, err)
	assertHours(t, 0, res.Requested, "vacation never draws on the balance")
}
