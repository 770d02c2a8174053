/*
ledger.go - Append-only transaction log

PURPOSE:
  The Ledger is the audit trail of every balance-affecting event: hours
  earned on a day, absence credits, manual corrections and year-boundary
  markers. The balance as of any date is the sum of all transactions dated
  on or before it.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete. EVER.
  2. IMMUTABLE: Once written, transactions cannot be modified
  3. IDEMPOTENT: Same idempotency key = same transaction (no duplicates)
  4. IDENTITY: BalanceAt(D) equals the live cumulative balance through D

CORRECTIONS:
  When an input changes (an edited time entry, a revoked absence) the
  superseded row is not edited. Instead:
  1. A Reversal row with the opposite sign is appended
  2. A fresh row carrying the new effect is appended
  3. Both original and reversal remain in the ledger

SEE ALSO:
  - store.go: Low-level persistence interface
  - overtime/ledger.go: Derives rows from the live calculation
*/
package generic

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER - Append-only transaction log
// =============================================================================

type Ledger interface {
	// Append adds a transaction. Fails if idempotency key exists.
	Append(ctx context.Context, tx Transaction) error

	// AppendBatch adds multiple transactions atomically.
	AppendBatch(ctx context.Context, txs []Transaction) error

	// Transactions returns all transactions for an employee, chronologically.
	Transactions(ctx context.Context, employeeID string) ([]Transaction, error)

	// TransactionsInRange returns transactions in [from, to].
	TransactionsInRange(ctx context.Context, employeeID string, from, to Date) ([]Transaction, error)

	// BalanceAt sums every transaction dated on or before at.
	BalanceAt(ctx context.Context, employeeID string, at Date) (decimal.Decimal, error)
}

// =============================================================================
// DEFAULT LEDGER - Implementation using Store
// =============================================================================

type DefaultLedger struct {
	Store Store
}

func NewLedger(store Store) *DefaultLedger {
	return &DefaultLedger{Store: store}
}

func (l *DefaultLedger) Append(ctx context.Context, tx Transaction) error {
	if tx.IdempotencyKey != "" {
		exists, err := l.Store.Exists(ctx, tx.IdempotencyKey)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateIdempotencyKey
		}
	}
	return l.Store.Append(ctx, tx)
}

func (l *DefaultLedger) AppendBatch(ctx context.Context, txs []Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(txs))
	for _, tx := range txs {
		if tx.IdempotencyKey == "" {
			continue
		}
		if seen[tx.IdempotencyKey] {
			return ErrDuplicateIdempotencyKey
		}
		seen[tx.IdempotencyKey] = true
		exists, err := l.Store.Exists(ctx, tx.IdempotencyKey)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateIdempotencyKey
		}
	}
	return l.Store.AppendBatch(ctx, txs)
}

func (l *DefaultLedger) Transactions(ctx context.Context, employeeID string) ([]Transaction, error) {
	return l.Store.Load(ctx, employeeID)
}

func (l *DefaultLedger) TransactionsInRange(ctx context.Context, employeeID string, from, to Date) ([]Transaction, error) {
	return l.Store.LoadRange(ctx, employeeID, from, to)
}

func (l *DefaultLedger) BalanceAt(ctx context.Context, employeeID string, at Date) (decimal.Decimal, error) {
	txs, err := l.Store.Load(ctx, employeeID)
	if err != nil {
		return decimal.Zero, err
	}

	balance := decimal.Zero
	for _, tx := range txs {
		if tx.EffectiveAt.After(at) {
			break
		}
		balance = balance.Add(tx.Hours)
	}
	return balance, nil
}
