package overtime

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// Bucket sums day rows over a week, a month or the whole range.
type Bucket struct {
	Key   string // "2025-W03", "2025-01" or "total"
	Start generic.Date
	End   generic.Date

	Target   decimal.Decimal
	Actual   decimal.Decimal
	Overtime decimal.Decimal
	Days     int
}

func newBucket(key string, p generic.Period) Bucket {
	return Bucket{
		Key:      key,
		Start:    p.Start,
		End:      p.End,
		Target:   decimal.Zero,
		Actual:   decimal.Zero,
		Overtime: decimal.Zero,
	}
}

func (b *Bucket) add(row DayRow) {
	b.Target = b.Target.Add(row.Target)
	b.Actual = b.Actual.Add(row.Actual)
	b.Overtime = b.Overtime.Add(row.Overtime)
	b.Days++
}

type bucketing func(d generic.Date) (key string, p generic.Period)

// weekKey buckets by ISO week; weeks start on Monday.
func weekKey(d generic.Date) (string, generic.Period) {
	year, week := d.ISOWeek()
	offset := (int(d.Weekday()) + 6) % 7
	monday := d.AddDays(-offset)
	return fmt.Sprintf("%04d-W%02d", year, week), generic.Period{Start: monday, End: monday.AddDays(6)}
}

func monthKey(d generic.Date) (string, generic.Period) {
	m := d.MonthKey()
	return string(m), m.Period()
}

// aggregate groups ordered rows into consecutive buckets. Bucket bounds are
// clipped to the calculated range.
func aggregate(rows []DayRow, within generic.Period, by bucketing) []Bucket {
	var (
		buckets []Bucket
		current *Bucket
	)
	for _, row := range rows {
		key, p := by(row.Date)
		if current == nil || current.Key != key {
			buckets = append(buckets, newBucket(key, p.Intersect(within)))
			current = &buckets[len(buckets)-1]
		}
		current.add(row)
	}
	return buckets
}
