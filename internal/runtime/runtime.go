// Package runtime models the blockchain runtime's external-collaborator
// primitives the pool depends on but does not implement itself: derivation
// of program-owned addresses from byte seeds, an atomic "create account at
// derived address, fail if it exists" operation, and a native transfer
// primitive mediating every lamport movement.
package runtime

import (
	"context"
	"errors"

	"golang.org/x/crypto/sha3"

	"github.com/veilmix/privpool/pkg/types"
)

// ErrAccountExists is returned by CreateAccount when the derived address is
// already occupied — the spent-flag / duplicate-commitment signal.
var ErrAccountExists = errors.New("runtime: account already exists")

// ErrAccountNotFound is returned when an operation references an account
// that has not been created.
var ErrAccountNotFound = errors.New("runtime: account not found")

// ErrInsufficientBalance is returned when a transfer would overdraw the
// source account.
var ErrInsufficientBalance = errors.New("runtime: insufficient balance")

// DeriveAddress computes a program-owned address deterministically from the
// given seed components, analogous to a program-derived-address scheme.
// Every derived address in this module (pool state, vault, nullifier and
// commitment records) is computed this way.
func DeriveAddress(seeds ...[]byte) types.Address {
	h := sha3.New256()
	for _, s := range seeds {
		h.Write(s)
	}
	return types.AddressFromBytes(h.Sum(nil))
}

// SystemOwner is the owner of plain wallet accounts and of the vault: the
// all-zero address, the same sentinel a system-owned account carries on
// chains where the native transfer authority's program ID is itself the
// zero address. Any account this runtime auto-creates on first credit
// (Transfer's `to` side) is system-owned for the same reason a wallet that
// has never been touched by a program still belongs to the system.
var SystemOwner = types.EmptyAddress

// ProgramOwner is the owner of accounts the pool controller itself creates
// and manages: the pool-state record and nullifier/commitment records. It
// is a derived address like any other, distinct from SystemOwner so that
// program-owned and system-owned accounts can never collide.
var ProgramOwner = DeriveAddress([]byte("program-owner"))

// Account is the runtime's view of a single address: its lamport balance,
// its owner, and whether it has been created. Nullifier/commitment records
// are zero-balance accounts whose mere existence is the payload.
type Account struct {
	Address types.Address
	Balance uint64
	Owner   types.Address
	Exists  bool
}

// Store is the runtime's account ledger, the interface both the
// Postgres-backed store and the in-memory test fake implement.
type Store interface {
	// CreateAccount atomically creates an account at addr with the given
	// initial balance and owner, failing with ErrAccountExists if it
	// already exists.
	CreateAccount(ctx context.Context, addr types.Address, initialBalance uint64, owner types.Address) error

	// AccountExists reports whether an account has been created at addr.
	AccountExists(ctx context.Context, addr types.Address) (bool, error)

	// Balance returns the lamport balance of addr, or ErrAccountNotFound.
	Balance(ctx context.Context, addr types.Address) (uint64, error)

	// Owner returns the owner of addr, or ErrAccountNotFound.
	Owner(ctx context.Context, addr types.Address) (types.Address, error)

	// Transfer moves amount lamports from `from` to `to`, atomically. Both
	// accounts must already exist except that `to` may be auto-created with
	// zero initial balance and SystemOwner ownership on first credit
	// (mirroring a system-owned wallet account that springs into existence
	// on first receipt). Fails with ErrInsufficientBalance if `from`'s
	// balance is less than amount.
	Transfer(ctx context.Context, from, to types.Address, amount uint64) error
}
