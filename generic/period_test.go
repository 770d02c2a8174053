package generic_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/generic"
)

func d(s string) generic.Date { return generic.MustParseDate(s) }

func TestNewPeriod_RejectsInverted(t *testing.T) {
	_, err := generic.NewPeriod(d("2025-02-01"), d("2025-01-31"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, generic.ErrInvalidRange))

	p, err := generic.NewPeriod(d("2025-01-31"), d("2025-01-31"))
	require.NoError(t, err)
	assert.Len(t, p.Days(), 1)
}

func TestPeriod_DaysAndContains(t *testing.T) {
	p := generic.Period{Start: d("2025-02-27"), End: d("2025-03-02")}

	days := p.Days()
	require.Len(t, days, 4)
	assert.Equal(t, "2025-02-28", days[1].String())
	assert.Equal(t, "2025-03-02", days[3].String())

	assert.True(t, p.Contains(d("2025-02-27")))
	assert.True(t, p.Contains(d("2025-03-02")))
	assert.False(t, p.Contains(d("2025-03-03")))

	empty := generic.Period{Start: d("2025-03-02"), End: d("2025-03-01")}
	assert.True(t, empty.IsEmpty())
	assert.Nil(t, empty.Days())
	assert.Nil(t, empty.Months())
}

func TestPeriod_IntersectAndOverlaps(t *testing.T) {
	a := generic.Period{Start: d("2025-01-10"), End: d("2025-01-20")}
	b := generic.Period{Start: d("2025-01-20"), End: d("2025-01-31")}
	c := generic.Period{Start: d("2025-01-21"), End: d("2025-01-31")}

	assert.True(t, a.Overlaps(b))
	assert.Equal(t, "[2025-01-20, 2025-01-20]", a.Intersect(b).String())
	assert.False(t, a.Overlaps(c))
}

func TestPeriod_YearsAndMonths(t *testing.T) {
	p := generic.Period{Start: d("2024-11-15"), End: d("2025-02-03")}

	assert.Equal(t, []int{2024, 2025}, p.Years())
	assert.Equal(t, []generic.MonthKey{"2024-11", "2024-12", "2025-01", "2025-02"}, p.Months())
}

func TestMonthKey(t *testing.T) {
	m, err := generic.ParseMonthKey("2024-12")
	require.NoError(t, err)
	assert.Equal(t, 2024, m.Year())
	assert.Equal(t, time.December, m.Month())
	assert.Equal(t, generic.MonthKey("2025-01"), m.Next())
	assert.Equal(t, generic.MonthKey("2024-11"), m.Previous())
	assert.True(t, m.Before(m.Next()))
	assert.True(t, m.Next().After(m))

	feb := generic.NewMonthKey(2024, time.February).Period()
	assert.Equal(t, "2024-02-29", feb.End.String())

	for _, bad := range []string{"2024-13", "2024/01", "24-01", ""} {
		_, err := generic.ParseMonthKey(bad)
		assert.True(t, errors.Is(err, generic.ErrValidation), bad)
	}
}

func TestDate_Helpers(t *testing.T) {
	assert.True(t, d("2025-01-04").IsWeekend())
	assert.False(t, d("2025-01-06").IsWeekend())
	assert.Equal(t, 365, generic.DaysBetween(generic.StartOfYear(2025), generic.StartOfYear(2026)))
	assert.Equal(t, "2025-01-31", d("2024-12-31").AddDays(31).String())
	assert.Equal(t, d("2025-01-02"), generic.MaxDate(d("2025-01-01"), d("2025-01-02")))

	_, err := generic.ParseDate("2025-02-30")
	assert.Error(t, err)
}

func TestFixedClock(t *testing.T) {
	clock := generic.NewFixedClock(d("2025-01-31"))
	assert.Equal(t, "2025-01-31", clock.Today().String())

	clock.Set(d("2025-02-01"))
	assert.Equal(t, "2025-02-01", clock.Today().String())
}
