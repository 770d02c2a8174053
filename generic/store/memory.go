// Package store provides in-memory Store and BalanceStore implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/overtime-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	transactions map[string][]generic.Transaction
	idempotency  map[string]bool

	balances    map[balanceKey]generic.MonthlyBalance
	generations map[balanceKey]int64
}

type balanceKey struct {
	EmployeeID string
	Month      generic.MonthKey
}

func NewMemory() *Memory {
	return &Memory{
		transactions: make(map[string][]generic.Transaction),
		idempotency:  make(map[string]bool),
		balances:     make(map[balanceKey]generic.MonthlyBalance),
		generations:  make(map[balanceKey]int64),
	}
}

// Append adds a single transaction. Append-only.
func (m *Memory) Append(_ context.Context, tx generic.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx.IdempotencyKey != "" && m.idempotency[tx.IdempotencyKey] {
		return generic.ErrDuplicateIdempotencyKey
	}
	m.appendLocked(tx)
	return nil
}

// AppendBatch adds multiple transactions atomically.
func (m *Memory) AppendBatch(_ context.Context, txs []generic.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check all idempotency keys first (atomic check)
	seen := make(map[string]bool, len(txs))
	for _, tx := range txs {
		if tx.IdempotencyKey == "" {
			continue
		}
		if m.idempotency[tx.IdempotencyKey] || seen[tx.IdempotencyKey] {
			return generic.ErrDuplicateIdempotencyKey
		}
		seen[tx.IdempotencyKey] = true
	}

	for _, tx := range txs {
		m.appendLocked(tx)
	}
	return nil
}

func (m *Memory) appendLocked(tx generic.Transaction) {
	txs := m.transactions[tx.EmployeeID]

	// Insert after every row with the same date so insertion order is kept.
	i := sort.Search(len(txs), func(i int) bool {
		return txs[i].EffectiveAt.After(tx.EffectiveAt)
	})

	txs = append(txs, generic.Transaction{})
	copy(txs[i+1:], txs[i:])
	txs[i] = tx
	m.transactions[tx.EmployeeID] = txs

	if tx.IdempotencyKey != "" {
		m.idempotency[tx.IdempotencyKey] = true
	}
}

func (m *Memory) Load(_ context.Context, employeeID string) ([]generic.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]generic.Transaction, len(m.transactions[employeeID]))
	copy(result, m.transactions[employeeID])
	return result, nil
}

func (m *Memory) LoadRange(_ context.Context, employeeID string, from, to generic.Date) ([]generic.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []generic.Transaction
	for _, tx := range m.transactions[employeeID] {
		if from.BeforeOrEqual(tx.EffectiveAt) && tx.EffectiveAt.BeforeOrEqual(to) {
			result = append(result, tx)
		}
	}
	return result, nil
}

func (m *Memory) Exists(_ context.Context, idempotencyKey string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idempotency[idempotencyKey], nil
}

// =============================================================================
// MONTHLY BALANCES
// =============================================================================

func (m *Memory) GetMonthlyBalance(_ context.Context, employeeID string, month generic.MonthKey) (*generic.MonthlyBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.balances[balanceKey{employeeID, month}]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (m *Memory) ListMonthlyBalances(_ context.Context, employeeID string, from, to generic.MonthKey) ([]generic.MonthlyBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var rows []generic.MonthlyBalance
	for k, row := range m.balances {
		if k.EmployeeID == employeeID && !k.Month.Before(from) && !k.Month.After(to) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Month.Before(rows[j].Month) })
	return rows, nil
}

func (m *Memory) UpsertMonthlyBalance(_ context.Context, row generic.MonthlyBalance) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := balanceKey{row.EmployeeID, row.Month}
	if existing, ok := m.balances[k]; ok && existing.Generation > row.Generation {
		return false, nil
	}
	m.balances[k] = row
	return true, nil
}

func (m *Memory) MonthGeneration(_ context.Context, employeeID string, month generic.MonthKey) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generations[balanceKey{employeeID, month}], nil
}

func (m *Memory) BumpGenerations(_ context.Context, employeeID string, months []generic.MonthKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, month := range months {
		m.generations[balanceKey{employeeID, month}]++
	}
	return nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (tm *TxMemory) WithTx(_ context.Context, fn func(generic.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()
	if err := fn(&txMemoryView{parent: tm}); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

func (tm *TxMemory) snapshot() memorySnapshot {
	txsCopy := make(map[string][]generic.Transaction, len(tm.transactions))
	for k, v := range tm.transactions {
		txsCopy[k] = append([]generic.Transaction{}, v...)
	}
	idempCopy := make(map[string]bool, len(tm.idempotency))
	for k, v := range tm.idempotency {
		idempCopy[k] = v
	}
	return memorySnapshot{transactions: txsCopy, idempotency: idempCopy}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.transactions = s.transactions
	tm.idempotency = s.idempotency
}

type memorySnapshot struct {
	transactions map[string][]generic.Transaction
	idempotency  map[string]bool
}

// txMemoryView runs with the parent's lock already held.
type txMemoryView struct {
	parent *TxMemory
}

func (tv *txMemoryView) Append(_ context.Context, tx generic.Transaction) error {
	if tx.IdempotencyKey != "" && tv.parent.idempotency[tx.IdempotencyKey] {
		return generic.ErrDuplicateIdempotencyKey
	}
	tv.parent.appendLocked(tx)
	return nil
}

func (tv *txMemoryView) AppendBatch(ctx context.Context, txs []generic.Transaction) error {
	for _, tx := range txs {
		if err := tv.Append(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

func (tv *txMemoryView) Load(_ context.Context, employeeID string) ([]generic.Transaction, error) {
	return append([]generic.Transaction{}, tv.parent.transactions[employeeID]...), nil
}

func (tv *txMemoryView) LoadRange(_ context.Context, employeeID string, from, to generic.Date) ([]generic.Transaction, error) {
	var result []generic.Transaction
	for _, tx := range tv.parent.transactions[employeeID] {
		if from.BeforeOrEqual(tx.EffectiveAt) && tx.EffectiveAt.BeforeOrEqual(to) {
			result = append(result, tx)
		}
	}
	return result, nil
}

func (tv *txMemoryView) Exists(_ context.Context, idempotencyKey string) (bool, error) {
	return tv.parent.idempotency[idempotencyKey], nil
}
