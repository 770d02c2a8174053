package overtime

import (
	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// DayTarget is the effective target for d before absences: the schedule's
// hours, or 0 on a holiday. The holiday is returned when one applies.
func DayTarget(e Employee, cal *HolidayCalendar, d generic.Date) (decimal.Decimal, *generic.Holiday, error) {
	h, isHoliday, err := cal.Lookup(d)
	if err != nil {
		return decimal.Zero, nil, err
	}
	if isHoliday {
		return decimal.Zero, &h, nil
	}
	return e.TargetHours(d), nil, nil
}

// WorkingDays lists, ascending, the dates of p that fall inside the
// employee's employment period up to today, have target > 0 and are not
// holidays.
func WorkingDays(e Employee, cal *HolidayCalendar, p generic.Period, today generic.Date) ([]generic.Date, error) {
	eff := e.EffectivePeriod(p, today)
	if eff.IsEmpty() {
		return nil, nil
	}
	if err := cal.Covers(eff); err != nil {
		return nil, err
	}

	var days []generic.Date
	for _, d := range eff.Days() {
		target, _, err := DayTarget(e, cal, d)
		if err != nil {
			return nil, err
		}
		if target.IsPositive() {
			days = append(days, d)
		}
	}
	return days, nil
}
