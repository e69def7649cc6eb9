// Package pool implements the Pool Controller: the single entry point for
// Initialize, Deposit, Withdraw, and MigrateToVault, owning the vault
// account and enforcing denomination, root history, fee bounds, and
// relayer identity.
package pool

import (
	"context"
	"errors"

	"github.com/veilmix/privpool/internal/merkle"
	"github.com/veilmix/privpool/pkg/types"
)

// ErrAlreadyInitialized is returned by Initialize when the pool state
// record already exists.
var ErrAlreadyInitialized = errors.New("pool: already initialized")

// PoolStateSeed is the bit-exact derived-address seed for the singleton
// pool-state record.
const PoolStateSeed = "tornado"

// VaultSeed is the bit-exact derived-address seed prefix for the vault,
// combined with the pool-state address.
const VaultSeed = "vault"

// State is the pool's persisted state record: denomination, authority,
// verifying-key bytes, and the full Merkle accumulator, exactly the layout
// named in the external interface.
type State struct {
	Denomination      uint64
	Authority         types.Address
	VerifyingKeyBytes []byte
	Tree              *merkle.Tree
	MigratedToVault   bool
}

// StateStore persists the singleton pool-state record. Unlike the
// runtime's plain balance accounts, pool state carries structured data, so
// it is modeled as its own small store rather than folded into
// runtime.Store.
type StateStore interface {
	Exists(ctx context.Context) (bool, error)
	Get(ctx context.Context) (*State, error)
	Save(ctx context.Context, s *State) error
}

// ErrStateNotFound is returned by StateStore.Get before Initialize has run.
var ErrStateNotFound = errors.New("pool: state not initialized")
