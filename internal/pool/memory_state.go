package pool

import (
	"context"
	"sync"
)

// MemoryStateStore is an in-memory StateStore for tests and client tooling.
type MemoryStateStore struct {
	mu    sync.Mutex
	state *State
}

// NewMemoryStateStore returns an empty state store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{}
}

// Exists implements StateStore.
func (m *MemoryStateStore) Exists(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state != nil, nil
}

// Get implements StateStore.
func (m *MemoryStateStore) Get(ctx context.Context) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, ErrStateNotFound
	}
	return cloneState(m.state), nil
}

// Save implements StateStore.
func (m *MemoryStateStore) Save(ctx context.Context, s *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = cloneState(s)
	return nil
}

// cloneState deep-copies a State, including the Merkle tree it points to.
// State.Tree is a *merkle.Tree, so a shallow `cp := *s` would leave the
// clone aliasing the same tree as the original: a caller that inserts a
// leaf into a Get result and then aborts before Save would mutate this
// store's tree in place, with no way to roll it back.
func cloneState(s *State) *State {
	cp := *s
	if s.Tree != nil {
		treeCopy := *s.Tree
		cp.Tree = &treeCopy
	}
	return &cp
}
