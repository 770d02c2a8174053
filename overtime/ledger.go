/*
ledger.go - Ledger rows derived from the live calculation

PURPOSE:
  Turns a live Result into the transactions that explain it, and appends
  whatever is needed so the stored ledger matches. The ledger never holds
  independent truth: it is a projection of the calculation kept append-only.

EVENTS (one row per event, zero-hour rows omitted):
  earned:<date>                 worked − target for a day
  absence:<absenceID>:<date>    +credit, tagged vacation/sick/compensation/special
  correction:<id>:<date>        the correction's signed hours
  carryover:<year>              0h year boundary marker (see rollover.go)

  Every key carries its date, so a record moved to another day is a new
  event and the old one is reversed.

  Per day: (worked − target) + credit + corrections = actual − target, so
  the sum of rows through D equals the live cumulative balance through D.

SYNC:
  Stored rows are grouped by EventKey and netted. For every event whose net
  differs from the desired value a reversal of the old net is appended,
  followed by a fresh row. Unchanged events append nothing, so syncing twice
  is a no-op.
*/
package overtime

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/generic"
)

// transactionNamespace seeds deterministic transaction IDs.
var transactionNamespace = uuid.MustParse("6f1c3a52-8e0b-4f7e-9d55-2b8f0c1e7a43")

// DeriveTransactions returns the rows that explain res, ordered by date.
// IDs and idempotency keys are left empty; SyncPeriod assigns them.
func DeriveTransactions(res *Result) []generic.Transaction {
	var txs []generic.Transaction
	for _, row := range res.Days {
		date := row.Date.String()

		earned := row.Worked.Sub(row.Target)
		if !earned.IsZero() {
			txs = append(txs, generic.Transaction{
				EmployeeID:  res.EmployeeID,
				EffectiveAt: row.Date,
				Hours:       earned,
				Type:        generic.TxEarned,
				EventKey:    "earned:" + date,
				ReferenceID: singleEntryID(row.Entries),
				Description: earnedDescription(row),
			})
		}

		if row.Absence != nil && !row.Absence.Credit.IsZero() {
			txs = append(txs, generic.Transaction{
				EmployeeID:  res.EmployeeID,
				EffectiveAt: row.Date,
				Hours:       row.Absence.Credit,
				Type:        row.Absence.Type.TransactionType(),
				EventKey:    fmt.Sprintf("absence:%s:%s", row.Absence.AbsenceID, date),
				ReferenceID: row.Absence.AbsenceID,
				Description: fmt.Sprintf("%s: %sh credited", row.Absence.Type, row.Absence.Credit.StringFixed(2)),
			})
		}

		for _, c := range row.Corrections {
			if c.Hours.IsZero() {
				continue
			}
			txs = append(txs, generic.Transaction{
				EmployeeID:  res.EmployeeID,
				EffectiveAt: row.Date,
				Hours:       c.Hours,
				Type:        generic.TxCorrection,
				EventKey:    fmt.Sprintf("correction:%s:%s", c.ID, date),
				ReferenceID: c.ID,
				Description: c.Reason,
				CreatedBy:   c.CreatedBy,
			})
		}
	}
	return txs
}

func singleEntryID(entries []TimeEntry) string {
	if len(entries) == 1 {
		return entries[0].ID
	}
	return ""
}

func earnedDescription(row DayRow) string {
	switch {
	case row.Holiday != nil:
		return fmt.Sprintf("worked %sh on holiday %s", row.Worked.StringFixed(2), row.Holiday.Name)
	case !row.WorkingDay:
		return fmt.Sprintf("worked %sh on a non-working day", row.Worked.StringFixed(2))
	}
	return fmt.Sprintf("worked %sh of %sh target", row.Worked.StringFixed(2), row.Target.StringFixed(2))
}

// =============================================================================
// LEDGER SYNC
// =============================================================================

// LedgerSync appends reversal and replacement rows so the stored ledger
// matches the desired rows for a period.
type LedgerSync struct {
	Ledger generic.Ledger
	Clock  generic.Clock
}

type eventState struct {
	net   decimal.Decimal
	rows  int
	first generic.Transaction
}

// SyncMonth reconciles one calendar month.
func (s *LedgerSync) SyncMonth(ctx context.Context, employeeID string, month generic.MonthKey, desired []generic.Transaction) ([]generic.Transaction, error) {
	return s.SyncPeriod(ctx, employeeID, month.Period(), desired)
}

// SyncPeriod reconciles stored rows dated within p (carryover markers
// excluded) with desired. It returns the appended rows.
func (s *LedgerSync) SyncPeriod(ctx context.Context, employeeID string, p generic.Period, desired []generic.Transaction) ([]generic.Transaction, error) {
	stored, err := s.Ledger.TransactionsInRange(ctx, employeeID, p.Start, p.End)
	if err != nil {
		return nil, fmt.Errorf("load ledger %s: %w", p, err)
	}

	states := make(map[string]*eventState)
	for _, tx := range stored {
		if tx.Type == generic.TxCarryover {
			continue
		}
		st, ok := states[tx.EventKey]
		if !ok {
			st = &eventState{net: decimal.Zero, first: tx}
			states[tx.EventKey] = st
		}
		st.net = st.net.Add(tx.Hours)
		st.rows++
	}

	want := make(map[string]generic.Transaction, len(desired))
	keys := make([]string, 0, len(desired)+len(states))
	for _, tx := range desired {
		want[tx.EventKey] = tx
		keys = append(keys, tx.EventKey)
	}
	for key := range states {
		if _, ok := want[key]; !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	today := s.Clock.Today()
	var appended []generic.Transaction
	for _, key := range keys {
		st := states[key]
		target, wanted := want[key]
		net := decimal.Zero
		rows := 0
		if st != nil {
			net, rows = st.net, st.rows
		}
		desiredHours := decimal.Zero
		if wanted {
			desiredHours = target.Hours
		}
		if net.Equal(desiredHours) {
			continue
		}

		if !net.IsZero() {
			rows++
			appended = append(appended, s.stamp(generic.Transaction{
				EmployeeID:  employeeID,
				EffectiveAt: st.first.EffectiveAt,
				Hours:       net.Neg(),
				Type:        generic.TxReversal,
				EventKey:    key,
				ReferenceID: st.first.ReferenceID,
				Description: "superseded: " + st.first.Description,
				Metadata:    map[string]string{"reverses": string(st.first.Type)},
			}, rows, today))
		}
		if wanted && !desiredHours.IsZero() {
			rows++
			appended = append(appended, s.stamp(target, rows, today))
		}
	}

	if len(appended) == 0 {
		return nil, nil
	}
	sort.SliceStable(appended, func(i, j int) bool {
		return appended[i].EffectiveAt.Before(appended[j].EffectiveAt)
	})
	if err := s.Ledger.AppendBatch(ctx, appended); err != nil {
		return nil, fmt.Errorf("append ledger rows %s: %w", p, err)
	}
	return appended, nil
}

// stamp assigns the deterministic identity of the n-th row of an event.
func (s *LedgerSync) stamp(tx generic.Transaction, n int, today generic.Date) generic.Transaction {
	tx.IdempotencyKey = fmt.Sprintf("%s:%s#%d", tx.EmployeeID, tx.EventKey, n)
	tx.ID = generic.TransactionID(uuid.NewSHA1(transactionNamespace, []byte(tx.IdempotencyKey)).String())
	if tx.CreatedBy == "" {
		tx.CreatedBy = "system"
	}
	tx.CreatedAt = today
	return tx
}
