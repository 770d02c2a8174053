/*
store.go - Persistence interface for ledger transactions

PURPOSE:
  Defines the interface between the ledger and the database. The Store
  handles persistence while maintaining append-only semantics. SQLite,
  PostgreSQL (gorm) and in-memory implementations exist.

APPEND-ONLY CONTRACT:
  - Append(): Single transaction write
  - AppendBatch(): Atomic multi-transaction write
  - NO Update() or Delete() methods exist

IDEMPOTENCY:
  A write carrying an idempotency key that already exists is rejected with
  ErrDuplicateIdempotencyKey. Carryover markers rely on this: a second
  rollover for the same year boundary cannot add a second marker.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite via database/sql
  - store/gormstore: PostgreSQL via gorm
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - ledger.go: Higher-level interface using Store
*/
package generic

import "context"

// =============================================================================
// STORE - Interface for transaction persistence (append-only)
// =============================================================================

// Store handles persistence of transactions.
// IMPORTANT: Store is APPEND-ONLY. No Update, No Delete. Ever.
type Store interface {
	// Append persists a transaction. Returns error if idempotency key exists.
	Append(ctx context.Context, tx Transaction) error

	// AppendBatch persists multiple transactions atomically.
	// Either all succeed or none do.
	AppendBatch(ctx context.Context, txs []Transaction) error

	// Load returns all transactions for an employee, ordered by EffectiveAt
	// then insertion order.
	Load(ctx context.Context, employeeID string) ([]Transaction, error)

	// LoadRange returns transactions with EffectiveAt in [from, to].
	LoadRange(ctx context.Context, employeeID string, from, to Date) ([]Transaction, error)

	// Exists checks if idempotency key already exists.
	Exists(ctx context.Context, idempotencyKey string) (bool, error)
}

// =============================================================================
// TRANSACTIONAL STORE - For atomic operations across multiple writes
// =============================================================================

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
