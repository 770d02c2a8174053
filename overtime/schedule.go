package overtime

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

var workDaysPerWeek = decimal.NewFromInt(5)

// TargetHours is the schedule's answer for a date, before holidays and
// employment dates are considered.
//
// With a WorkSchedule the weekday's entry is returned. Without one,
// WeeklyHours/5 applies Monday to Friday and weekends are 0. WeeklyHours = 0
// (on-call contracts) yields 0 every day.
func (e Employee) TargetHours(d generic.Date) decimal.Decimal {
	if e.Schedule != nil {
		return e.Schedule.Hours(d.Weekday())
	}
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return decimal.Zero
	}
	return e.WeeklyHours.Div(workDaysPerWeek)
}

// EmploymentPeriod is [HireDate, min(today, TerminationDate)].
func (e Employee) EmploymentPeriod(today generic.Date) generic.Period {
	end := today
	if e.TerminationDate != nil {
		end = generic.MinDate(end, *e.TerminationDate)
	}
	return generic.Period{Start: e.HireDate, End: end}
}

// EffectivePeriod clamps a requested range to the employment period. Target
// hours are never projected before hire or past today.
func (e Employee) EffectivePeriod(requested generic.Period, today generic.Date) generic.Period {
	return requested.Intersect(e.EmploymentPeriod(today))
}
