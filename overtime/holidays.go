package overtime

import (
	"context"
	"fmt"

	"github.com/warp/overtime-engine/generic"
)

// HolidayCalendar answers holiday lookups for the years it was loaded with.
// Asking about any other year is an error, never a silent "no holiday".
type HolidayCalendar struct {
	years map[int]bool
	days  map[string]generic.Holiday
}

// NewHolidayCalendar marks years as loaded and indexes holidays by date.
// Holidays outside the loaded years are ignored.
func NewHolidayCalendar(years []int, holidays []generic.Holiday) *HolidayCalendar {
	c := &HolidayCalendar{
		years: make(map[int]bool, len(years)),
		days:  make(map[string]generic.Holiday, len(holidays)),
	}
	for _, y := range years {
		c.years[y] = true
	}
	for _, h := range holidays {
		if c.years[h.Date.Year()] {
			c.days[h.Date.String()] = h
		}
	}
	return c
}

// LoadHolidayCalendar loads every year the period touches.
func LoadHolidayCalendar(ctx context.Context, src HolidaySource, p generic.Period) (*HolidayCalendar, error) {
	years := p.Years()
	var all []generic.Holiday
	for _, y := range years {
		hs, loaded, err := src.Holidays(ctx, y)
		if err != nil {
			return nil, fmt.Errorf("load holidays %d: %w", y, err)
		}
		if !loaded {
			return nil, &generic.DataUnavailableError{Year: y}
		}
		all = append(all, hs...)
	}
	return NewHolidayCalendar(years, all), nil
}

// Covers fails with DataUnavailableError for the first year of p that is not loaded.
func (c *HolidayCalendar) Covers(p generic.Period) error {
	for _, y := range p.Years() {
		if c == nil || !c.years[y] {
			return &generic.DataUnavailableError{Year: y}
		}
	}
	return nil
}

// Lookup returns the holiday on d, if any.
func (c *HolidayCalendar) Lookup(d generic.Date) (generic.Holiday, bool, error) {
	if c == nil || !c.years[d.Year()] {
		return generic.Holiday{}, false, &generic.DataUnavailableError{Year: d.Year()}
	}
	h, ok := c.days[d.String()]
	return h, ok, nil
}
