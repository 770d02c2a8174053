package overtime

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// AbsenceCredit is the credit decision for one working day under one
// approved absence.
type AbsenceCredit struct {
	Date      generic.Date
	AbsenceID string
	Type      AbsenceType

	// ScheduledTarget is the day's target before the absence applied.
	ScheduledTarget decimal.Decimal
	// Target is the day's target after the absence applied (0 for unpaid).
	Target decimal.Decimal
	Credit decimal.Decimal

	// Overlapping is set when more than one approved absence covers the day.
	// The earliest-starting absence (then lowest ID) is applied; rejecting
	// overlapping approvals is the approval workflow's job.
	Overlapping bool
}

// ResolveAbsenceCredits decides per working day of p how approved absences
// are booked:
//
//  1. Holidays are skipped entirely; their target is already 0.
//  2. Days with scheduled target 0 are skipped; they are not working days.
//  3. Unpaid: target forced to 0, credit 0.
//  4. Vacation, sick, overtime compensation, special: credit = that day's target.
//
// Non-approved absences are ignored. The result is ordered by date.
func ResolveAbsenceCredits(e Employee, cal *HolidayCalendar, absences []AbsenceRequest, p generic.Period, today generic.Date) ([]AbsenceCredit, error) {
	approved := make([]AbsenceRequest, 0, len(absences))
	for _, a := range absences {
		if a.Status == StatusApproved && a.EmployeeID == e.ID {
			approved = append(approved, a)
		}
	}
	if len(approved) == 0 {
		return nil, nil
	}
	sort.SliceStable(approved, func(i, j int) bool {
		if !approved[i].Start.Equal(approved[j].Start) {
			return approved[i].Start.Before(approved[j].Start)
		}
		return approved[i].ID < approved[j].ID
	})

	days, err := WorkingDays(e, cal, p, today)
	if err != nil {
		return nil, err
	}

	var credits []AbsenceCredit
	for _, d := range days {
		var (
			chosen   *AbsenceRequest
			overlaps bool
		)
		for i := range approved {
			if !approved[i].Period().Contains(d) {
				continue
			}
			if chosen != nil {
				overlaps = true
				break
			}
			chosen = &approved[i]
		}
		if chosen == nil {
			continue
		}

		scheduled := e.TargetHours(d)
		credit := AbsenceCredit{
			Date:            d,
			AbsenceID:       chosen.ID,
			Type:            chosen.Type,
			ScheduledTarget: scheduled,
			Overlapping:     overlaps,
		}
		switch chosen.Type.CreditPolicy() {
		case ZeroTarget:
			credit.Target = decimal.Zero
			credit.Credit = decimal.Zero
		case CreditTarget:
			credit.Target = scheduled
			credit.Credit = scheduled
		}
		credits = append(credits, credit)
	}
	return credits, nil
}

// AbsenceWorkingDays counts the working days an absence covers, the number
// shown to approvers ("3 days of vacation"). Holidays and zero-hour
// weekdays do not count.
func AbsenceWorkingDays(e Employee, cal *HolidayCalendar, a AbsenceRequest) (int, error) {
	// Counting is about the request itself, not about what has elapsed.
	far := generic.MaxDate(a.End, e.HireDate)
	days, err := WorkingDays(e, cal, a.Period(), far)
	if err != nil {
		return 0, err
	}
	return len(days), nil
}
