// Package poseidon implements the two-input and one-input ZK-friendly
// sponge hash used by the Merkle accumulator and by nullifier/commitment
// derivation: circom/snarkjs-parameter Poseidon over the BN254 scalar
// field, the same instance the client-side prover and the trusted-setup
// circuit use. This is a hard cross-language compatibility requirement
// (spec.md §8, "Hash cross-language identity"), not an implementation
// detail left to taste — gnark-crypto's Poseidon2 (Grassi et al.) is a
// different permutation with different round constants and does not
// produce the same digests, so it cannot serve here.
package poseidon

import (
	"math/big"

	iden3poseidon "github.com/iden3/go-iden3-crypto/poseidon"

	"github.com/veilmix/privpool/pkg/field"
)

// H2 hashes two field elements, each given as 32 canonical big-endian
// bytes. It is the hash contract the Merkle tree's internal nodes use.
func H2(x1, x2 [field.Size]byte) [field.Size]byte {
	return hash(x1[:], x2[:])
}

// H1 hashes a single field element. Used to derive the nullifier hash from
// a nullifier, and to compute the empty-leaf hash H_leaf_zero = H1(0).
func H1(x1 [field.Size]byte) [field.Size]byte {
	return hash(x1[:])
}

// Commit computes the commitment hiding value H(nullifier, secret).
func Commit(nullifier, secret [field.Size]byte) [field.Size]byte {
	return H2(nullifier, secret)
}

// NullifierHash computes H(nullifier).
func NullifierHash(nullifier [field.Size]byte) [field.Size]byte {
	return H1(nullifier)
}

// hash invokes the circomlib-compatible Poseidon permutation over the
// given big-endian field-element inputs (1 or 2, matching this module's
// only two call shapes) and re-encodes the result canonically.
func hash(inputs ...[]byte) [field.Size]byte {
	args := make([]*big.Int, len(inputs))
	for i, in := range inputs {
		args[i] = new(big.Int).SetBytes(in)
	}

	out, err := iden3poseidon.Hash(args)
	if err != nil {
		// Only possible if called with an unsupported arity (>16 inputs);
		// both H1 and H2 pass a fixed, valid arity, so this is an
		// invariant violation, not a runtime condition.
		panic("poseidon: " + err.Error())
	}

	var digest [field.Size]byte
	out.FillBytes(digest[:])
	return digest
}
