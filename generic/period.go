package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

// Period is the inclusive range [Start, End]. A period whose End is before its
// Start is empty.
type Period struct {
	Start Date
	End   Date
}

// NewPeriod validates that the range is not inverted.
func NewPeriod(start, end Date) (Period, error) {
	if end.Before(start) {
		return Period{}, &InvalidRangeError{Start: start, End: end, Reason: "end before start"}
	}
	return Period{Start: start, End: end}, nil
}

// Contains returns true if the date is within the period [Start, End]
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// IsEmpty reports whether the period contains no days.
func (p Period) IsEmpty() bool { return p.End.Before(p.Start) }

// Days returns all days in the period.
func (p Period) Days() []Date {
	if p.IsEmpty() {
		return nil
	}
	days := make([]Date, 0, DaysBetween(p.Start, p.End)+1)
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Intersect returns the overlap of two periods (possibly empty).
func (p Period) Intersect(other Period) Period {
	return Period{Start: MaxDate(p.Start, other.Start), End: MinDate(p.End, other.End)}
}

// Overlaps reports whether the two periods share at least one day.
func (p Period) Overlaps(other Period) bool {
	return !p.Intersect(other).IsEmpty()
}

// Years returns every calendar year the period touches, ascending.
func (p Period) Years() []int {
	if p.IsEmpty() {
		return nil
	}
	var years []int
	for y := p.Start.Year(); y <= p.End.Year(); y++ {
		years = append(years, y)
	}
	return years
}

// Months returns every month key the period touches, ascending.
func (p Period) Months() []MonthKey {
	if p.IsEmpty() {
		return nil
	}
	var months []MonthKey
	last := p.End.MonthKey()
	for m := p.Start.MonthKey(); !m.After(last); m = m.Next() {
		months = append(months, m)
	}
	return months
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// MONTH KEY - YYYY-MM cache key
// =============================================================================

// MonthKey identifies a calendar month, formatted YYYY-MM.
type MonthKey string

func NewMonthKey(year int, month time.Month) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", year, int(month)))
}

// ParseMonthKey validates a YYYY-MM string.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return "", &ValidationError{Field: "month", Message: fmt.Sprintf("invalid month %q, expected YYYY-MM", s)}
	}
	return NewMonthKey(t.Year(), t.Month()), nil
}

func (m MonthKey) Year() int {
	t, _ := time.Parse("2006-01", string(m))
	return t.Year()
}

func (m MonthKey) Month() time.Month {
	t, _ := time.Parse("2006-01", string(m))
	return t.Month()
}

// Period returns the full calendar month.
func (m MonthKey) Period() Period {
	return Period{Start: StartOfMonth(m.Year(), m.Month()), End: EndOfMonth(m.Year(), m.Month())}
}

func (m MonthKey) Next() MonthKey     { return m.Period().Start.AddMonths(1).MonthKey() }
func (m MonthKey) Previous() MonthKey { return m.Period().Start.AddMonths(-1).MonthKey() }

// Keys are zero-padded so lexical order is chronological order.
func (m MonthKey) Before(other MonthKey) bool { return m < other }
func (m MonthKey) After(other MonthKey) bool  { return m > other }

func (m MonthKey) String() string { return string(m) }
