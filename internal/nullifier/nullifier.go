// Package nullifier implements the spent-nullifier set as one derived
// account per nullifier: existence is the spent flag, created exactly once
// via the runtime's atomic create-if-absent primitive.
package nullifier

import (
	"context"
	"errors"

	"github.com/veilmix/privpool/internal/runtime"
	"github.com/veilmix/privpool/pkg/types"
)

// ErrAlreadySpent is returned when the nullifier record already exists.
var ErrAlreadySpent = errors.New("nullifier: note already spent")

// CommitmentSeed is the derived-address seed tag used for the optional
// duplicate-commitment detection strategy (spec.md §9 permits realizing
// duplicate-commitment rejection the same way as the nullifier set). Unlike
// the nullifier record's seed, this one is not bit-exact-pinned by the
// external interface, since duplicate-commitment detection is an
// implementation choice.
const CommitmentSeed = "commitment"

// Address returns the derived address for a nullifier hash's spent-flag
// record. The 32-byte hash is the only seed (bit-exact per the external
// interface: the derived address must not depend on any additional tag).
func Address(nullifierHash types.Hash) types.Address {
	return runtime.DeriveAddress(nullifierHash.Bytes())
}

// CommitmentAddress returns the derived address used to detect a
// previously-inserted commitment.
func CommitmentAddress(commitment types.Hash) types.Address {
	return runtime.DeriveAddress([]byte(CommitmentSeed), commitment.Bytes())
}

// MarkSpent atomically creates the nullifier record, returning
// ErrAlreadySpent if it already exists. This is the entire membership test:
// there is no separate "has" query on the write path, by design — a
// check-then-create pattern would reopen the race the derived-address
// scheme exists to close.
func MarkSpent(ctx context.Context, store runtime.Store, nullifierHash types.Hash) error {
	err := store.CreateAccount(ctx, Address(nullifierHash), 0, runtime.ProgramOwner)
	if errors.Is(err, runtime.ErrAccountExists) {
		return ErrAlreadySpent
	}
	return err
}

// IsSpent reports whether a nullifier record already exists. Provided for
// client-side and test convenience; the pool controller's withdraw path
// uses MarkSpent directly rather than checking first.
func IsSpent(ctx context.Context, store runtime.Store, nullifierHash types.Hash) (bool, error) {
	return store.AccountExists(ctx, Address(nullifierHash))
}
