package runtime

import (
	"context"
	"sync"

	"github.com/veilmix/privpool/pkg/types"
)

// MemoryStore is an in-memory Store used by tests and by client tooling
// that does not need durability. It provides the same atomicity guarantees
// as the Postgres-backed store via a single mutex, matching the runtime's
// promise that account-mutating transactions on the same account are
// serialized.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[types.Address]*Account
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[types.Address]*Account)}
}

// CreateAccount implements Store.
func (m *MemoryStore) CreateAccount(ctx context.Context, addr types.Address, initialBalance uint64, owner types.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[addr]; ok {
		return ErrAccountExists
	}
	m.accounts[addr] = &Account{Address: addr, Balance: initialBalance, Owner: owner, Exists: true}
	return nil
}

// AccountExists implements Store.
func (m *MemoryStore) AccountExists(ctx context.Context, addr types.Address) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.accounts[addr]
	return ok, nil
}

// Balance implements Store.
func (m *MemoryStore) Balance(ctx context.Context, addr types.Address) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.accounts[addr]
	if !ok {
		return 0, ErrAccountNotFound
	}
	return acct.Balance, nil
}

// Owner implements Store.
func (m *MemoryStore) Owner(ctx context.Context, addr types.Address) (types.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.accounts[addr]
	if !ok {
		return types.Address{}, ErrAccountNotFound
	}
	return acct.Owner, nil
}

// Transfer implements Store.
func (m *MemoryStore) Transfer(ctx context.Context, from, to types.Address, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	src, ok := m.accounts[from]
	if !ok {
		return ErrAccountNotFound
	}
	if src.Balance < amount {
		return ErrInsufficientBalance
	}

	dst, ok := m.accounts[to]
	if !ok {
		dst = &Account{Address: to, Owner: SystemOwner, Exists: true}
		m.accounts[to] = dst
	}

	src.Balance -= amount
	dst.Balance += amount
	return nil
}
