package overtime

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/generic"
)

// HistoryFilter narrows the transaction history. Month wins over Year.
type HistoryFilter struct {
	Year  int
	Month generic.MonthKey
}

func (f HistoryFilter) matches(d generic.Date) bool {
	switch {
	case f.Month != "":
		return d.MonthKey() == f.Month
	case f.Year != 0:
		return d.Year() == f.Year
	}
	return true
}

// HistoryEntry is one ledger row prepared for audit display. Balance is the
// running balance after the row, counted over the whole ledger so it stays
// correct under filtering.
type HistoryEntry struct {
	generic.Transaction
	Label   string
	Balance decimal.Decimal
}

// History brings the ledger up to date through today and returns its rows in
// order.
func (m *Materializer) History(ctx context.Context, employeeID string, filter HistoryFilter) ([]HistoryEntry, error) {
	emp, err := m.employee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	today := m.Calc.Clock.Today()
	end := emp.EmploymentPeriod(today).End
	for y := emp.HireDate.Year(); y <= end.Year(); y++ {
		if _, err := m.year(ctx, emp, y); err != nil {
			return nil, err
		}
	}

	txs, err := m.Ledger.Transactions(ctx, emp.ID)
	if err != nil {
		return nil, err
	}
	if released, err := m.releaseOutside(ctx, emp, txs); err != nil {
		return nil, err
	} else if released {
		if txs, err = m.Ledger.Transactions(ctx, emp.ID); err != nil {
			return nil, err
		}
	}

	var (
		entries []HistoryEntry
		running = decimal.Zero
	)
	for _, tx := range txs {
		running = running.Add(tx.Hours)
		if !filter.matches(tx.EffectiveAt) {
			continue
		}
		entries = append(entries, HistoryEntry{
			Transaction: tx,
			Label:       tx.Type.Label(),
			Balance:     running,
		})
	}
	return entries, nil
}

// releaseOutside reverses rows left in months outside the employment window,
// such as months before a hire date that was moved later. It reports whether
// any such month was found.
func (m *Materializer) releaseOutside(ctx context.Context, emp Employee, txs []generic.Transaction) (bool, error) {
	today := m.Calc.Clock.Today()
	seen := make(map[generic.MonthKey]bool)
	for _, tx := range txs {
		month := tx.EffectiveAt.MonthKey()
		if seen[month] || tx.Type == generic.TxCarryover || !emp.EffectivePeriod(month.Period(), today).IsEmpty() {
			continue
		}
		seen[month] = true
		if err := m.release(ctx, emp, month); err != nil {
			return false, err
		}
	}
	return len(seen) > 0, nil
}
