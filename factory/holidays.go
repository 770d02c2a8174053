package factory

import (
	"sort"
	"time"

	"github.com/warp/overtime-engine/generic"
)

// =============================================================================
// DEFAULT HOLIDAY CALENDARS
// =============================================================================

// JurisdictionDE marks holidays observed nationwide in Germany.
const JurisdictionDE = "DE"

// GermanHolidays returns the nine nationwide public holidays of year,
// ordered by date. Regional holidays are loaded separately.
func GermanHolidays(year int) []generic.Holiday {
	easter := EasterSunday(year)

	holidays := []generic.Holiday{
		{Date: generic.NewDate(year, time.January, 1), Name: "Neujahr"},
		{Date: easter.AddDays(-2), Name: "Karfreitag"},
		{Date: easter.AddDays(1), Name: "Ostermontag"},
		{Date: generic.NewDate(year, time.May, 1), Name: "Tag der Arbeit"},
		{Date: easter.AddDays(39), Name: "Christi Himmelfahrt"},
		{Date: easter.AddDays(50), Name: "Pfingstmontag"},
		{Date: generic.NewDate(year, time.October, 3), Name: "Tag der Deutschen Einheit"},
		{Date: generic.NewDate(year, time.December, 25), Name: "1. Weihnachtstag"},
		{Date: generic.NewDate(year, time.December, 26), Name: "2. Weihnachtstag"},
	}
	for i := range holidays {
		holidays[i].Jurisdiction = JurisdictionDE
	}

	// Ascension can fall on May 1.
	sort.SliceStable(holidays, func(i, j int) bool {
		return holidays[i].Date.Before(holidays[j].Date)
	})
	return holidays
}

// EasterSunday computes Gregorian Easter (anonymous Gregorian algorithm).
func EasterSunday(year int) generic.Date {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return generic.NewDate(year, time.Month(month), day)
}
