package overtime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// WORK SCHEDULE RESOLVER
// =============================================================================

func TestTargetHours_WeeklyHoursSpreadOverWeekdays(t *testing.T) {
	emp := overtime.Employee{ID: "e1", HireDate: d("2025-01-01"), WeeklyHours: h(38.5)}

	assertHours(t, 7.7, emp.TargetHours(d("2025-01-13")), "monday")
	assertHours(t, 7.7, emp.TargetHours(d("2025-01-17")), "friday")
	assertHours(t, 0, emp.TargetHours(d("2025-01-18")), "saturday")
	assertHours(t, 0, emp.TargetHours(d("2025-01-19")), "sunday")
}

func TestTargetHours_ScheduleTakesPrecedence(t *testing.T) {
	emp := overtime.Employee{
		ID:          "e1",
		HireDate:    d("2025-01-01"),
		WeeklyHours: h(40),
		Schedule:    overtime.NewWorkSchedule(8, 0, 6, 8, 8, 4, 0),
	}

	assertHours(t, 8, emp.TargetHours(d("2025-01-13")))
	assertHours(t, 0, emp.TargetHours(d("2025-01-14")), "tuesday is off")
	assertHours(t, 6, emp.TargetHours(d("2025-01-15")))
	assertHours(t, 4, emp.TargetHours(d("2025-01-18")), "saturday is scheduled")
	assertHours(t, 34, emp.Schedule.WeeklyTotal())
}

func TestTargetHours_OnCallContractIsAlwaysZero(t *testing.T) {
	emp := overtime.Employee{ID: "e1", HireDate: d("2025-01-01"), WeeklyHours: h(0)}
	for _, day := range []string{"2025-01-13", "2025-01-14", "2025-01-18"} {
		assertHours(t, 0, emp.TargetHours(d(day)), day)
	}
}

func TestEffectivePeriod_ClampsToEmployment(t *testing.T) {
	term := d("2025-06-30")
	emp := overtime.Employee{ID: "e1", HireDate: d("2025-03-15"), TerminationDate: &term, WeeklyHours: h(40)}

	got := emp.EffectivePeriod(generic.Period{Start: d("2025-01-01"), End: d("2025-12-31")}, d("2025-09-01"))
	assert.Equal(t, d("2025-03-15"), got.Start)
	assert.Equal(t, d("2025-06-30"), got.End)

	got = emp.EffectivePeriod(generic.Period{Start: d("2025-01-01"), End: d("2025-12-31")}, d("2025-04-10"))
	assert.Equal(t, d("2025-04-10"), got.End, "never past today")

	got = emp.EffectivePeriod(generic.Period{Start: d("2024-01-01"), End: d("2024-12-31")}, d("2025-04-10"))
	assert.True(t, got.IsEmpty(), "before hire")
}

func TestEmployee_Validate(t *testing.T) {
	before := d("2024-12-31")
	tests := []struct {
		name  string
		emp   overtime.Employee
		field string
	}{
		{"missing id", overtime.Employee{HireDate: d("2025-01-01")}, "id"},
		{"missing hire date", overtime.Employee{ID: "e1"}, "hire_date"},
		{"negative weekly hours", overtime.Employee{ID: "e1", HireDate: d("2025-01-01"), WeeklyHours: h(-1)}, "weekly_hours"},
		{"terminated before hire", overtime.Employee{ID: "e1", HireDate: d("2025-01-01"), TerminationDate: &before}, "termination_date"},
		{"negative schedule day", overtime.Employee{ID: "e1", HireDate: d("2025-01-01"), Schedule: overtime.NewWorkSchedule(8, -1, 8, 8, 8, 0, 0)}, "schedule.tuesday"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.emp.Validate()
			var verr *generic.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.ErrorIs(t, err, generic.ErrValidation)
		})
	}
}

// =============================================================================
// TIME ENTRIES, ABSENCES, CORRECTIONS
// =============================================================================

func TestHoursFromShift(t *testing.T) {
	tests := []struct {
		name         string
		start, end   string
		breakMinutes int
		want         float64
	}{
		{"regular day", "08:00", "16:30", 30, 8},
		{"no break", "09:15", "12:45", 0, 3.5},
		{"overnight", "22:00", "06:00", 45, 7.25},
		{"odd minutes round to cents", "08:00", "08:20", 0, 0.33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := overtime.HoursFromShift(tt.start, tt.end, tt.breakMinutes)
			require.NoError(t, err)
			assertHours(t, tt.want, got)
		})
	}
}

func TestHoursFromShift_Invalid(t *testing.T) {
	_, err := overtime.HoursFromShift("8am", "16:00", 0)
	assert.ErrorIs(t, err, generic.ErrValidation)

	_, err = overtime.HoursFromShift("08:00", "09:00", 90)
	assert.ErrorIs(t, err, generic.ErrValidation, "break longer than shift")

	_, err = overtime.HoursFromShift("08:00", "09:00", -5)
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestAbsenceType_ParseAndPolicy(t *testing.T) {
	for _, typ := range overtime.AbsenceTypes {
		parsed, err := overtime.ParseAbsenceType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, parsed)
	}

	assert.Equal(t, overtime.ZeroTarget, overtime.AbsenceUnpaid.CreditPolicy())
	assert.Equal(t, overtime.CreditTarget, overtime.AbsenceVacation.CreditPolicy())
	assert.Equal(t, overtime.CreditTarget, overtime.AbsenceOvertimeComp.CreditPolicy())
	assert.Equal(t, generic.TxCompensation, overtime.AbsenceOvertimeComp.TransactionType())
	assert.Equal(t, generic.TxSick, overtime.AbsenceSick.TransactionType())

	_, err := overtime.ParseAbsenceType("sabbatical")
	assert.ErrorIs(t, err, generic.ErrValidation)

	assert.Panics(t, func() { overtime.AbsenceType(99).CreditPolicy() })
}

func TestCorrection_RequiresReasonAndAuthor(t *testing.T) {
	c := overtime.Correction{ID: "c1", EmployeeID: "e1", Date: d("2025-02-03"), Hours: h(2)}

	err := c.Validate()
	var verr *generic.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "reason", verr.Field)

	c.Reason = "forgot to clock out"
	err = c.Validate()
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "created_by", verr.Field)

	c.CreatedBy = "hr-1"
	assert.NoError(t, c.Validate())
}

func TestAbsenceRequest_InvertedDatesRejected(t *testing.T) {
	a := overtime.AbsenceRequest{
		ID: "a1", EmployeeID: "e1", Type: overtime.AbsenceVacation,
		Start: d("2025-02-10"), End: d("2025-02-07"), Status: overtime.StatusPending,
	}
	assert.ErrorIs(t, a.Validate(), generic.ErrValidation)
}
