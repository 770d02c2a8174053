/*
Package generic provides the storage-facing core of the overtime engine.

PURPOSE:
  Domain-agnostic building blocks shared by the calculation engine, the
  stores and the HTTP layer: calendar dates and periods, an injectable clock,
  the append-only transaction ledger, the monthly balance cache contract and
  the error taxonomy.

KEY CONCEPTS IN THIS FILE (types.go):
  - Hours: decimal.Decimal, so sums are exact and recomputation is byte-identical
  - Transaction: an immutable ledger entry recording a balance change
  - TransactionType: earned, compensation, correction, carryover, ...

DESIGN PRINCIPLES:
  1. Immutability: Transactions are never modified, only reversed
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Auditability: Every transaction has a description, reference and idempotency key

SEE ALSO:
  - ledger.go: Ledger interface and BalanceAt
  - snapshot.go: MonthlyBalance cache rows
  - errors.go: Error taxonomy
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// HOURS
// =============================================================================

// Hours builds a decimal hour amount from a float literal.
func Hours(h float64) decimal.Decimal { return decimal.NewFromFloat(h) }

// SumHours adds up a list of hour amounts.
func SumHours(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// =============================================================================
// TRANSACTION - Atomic change to the overtime balance
// =============================================================================

type TransactionID string

type TransactionType string

const (
	TxEarned       TransactionType = "earned"          // worked − target for one day
	TxCompensation TransactionType = "compensation"    // overtime compensation day credit
	TxCorrection   TransactionType = "correction"      // manual admin correction
	TxCarryover    TransactionType = "carryover"       // year boundary marker (0h)
	TxVacation     TransactionType = "vacation_credit" // vacation day credit
	TxSick         TransactionType = "sick_credit"     // sick day credit
	TxSpecial      TransactionType = "special_credit"  // special leave credit
	TxReversal     TransactionType = "reversal"        // undo of a superseded row
)

var transactionLabels = map[TransactionType]string{
	TxEarned:       "Earned",
	TxCompensation: "Overtime compensation",
	TxCorrection:   "Manual correction",
	TxCarryover:    "Year carryover",
	TxVacation:     "Vacation credit",
	TxSick:         "Sick leave credit",
	TxSpecial:      "Special leave credit",
	TxReversal:     "Reversal",
}

// Label returns the human-readable name used in audit displays.
func (t TransactionType) Label() string {
	if l, ok := transactionLabels[t]; ok {
		return l
	}
	return string(t)
}

// Transaction is an append-only ledger row.
//
// EventKey identifies the balance-affecting event the row belongs to (one
// day of work, one absence day, one correction, one year boundary). All rows
// sharing an EventKey net to that event's current effect; superseded rows are
// neutralized by reversals, never edited.
type Transaction struct {
	ID             TransactionID
	EmployeeID     string
	EffectiveAt    Date
	Hours          decimal.Decimal
	Type           TransactionType
	EventKey       string
	ReferenceID    string
	Description    string
	IdempotencyKey string
	Metadata       map[string]string

	// Audit fields
	CreatedBy string
	CreatedAt Date
}
