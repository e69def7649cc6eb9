// Package types defines the core data structures shared across the privacy
// pool: hashes, addresses, proofs, withdrawal requests, and the deposit and
// withdrawal events.
package types

import "encoding/hex"

// HashSize is the width of a field element / commitment / nullifier hash in
// bytes.
const HashSize = 32

// AddressSize is the width of an account address in bytes. Unlike a
// pubkey-hash address, this address space (256 bits) exceeds the BN254
// scalar field (254 bits), which is why public inputs split it in half.
const AddressSize = 32

// Hash is a 32-byte field element: a commitment, a nullifier hash, or a
// Merkle root.
type Hash [HashSize]byte

// EmptyHash is the all-zero sentinel. It must never be mistaken for a
// legitimate root or commitment.
var EmptyHash = Hash{}

// IsEmpty reports whether h is the all-zero sentinel.
func (h Hash) IsEmpty() bool {
	return h == EmptyHash
}

// Bytes returns h as a byte slice.
func (h Hash) Bytes() []byte {
	return h[:]
}

// String returns the hex representation of h.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// HashFromBytes copies the first HashSize bytes of b into a Hash.
func HashFromBytes(b []byte) Hash {
	var h Hash
	copy(h[:], b)
	return h
}

// Address is a 32-byte account address.
type Address [AddressSize]byte

// EmptyAddress is the all-zero address, the legal default for "no relayer".
var EmptyAddress = Address{}

// IsEmpty reports whether a is the all-zero address.
func (a Address) IsEmpty() bool {
	return a == EmptyAddress
}

// Bytes returns a as a byte slice.
func (a Address) Bytes() []byte {
	return a[:]
}

// String returns the hex representation of a.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// AddressFromBytes copies the first AddressSize bytes of b into an Address.
func AddressFromBytes(b []byte) Address {
	var a Address
	copy(a[:], b)
	return a
}

// ProofSize is the fixed wire size of a Groth16 proof under this module's
// encoding: A (64B) + B (128B) + C (64B).
const ProofSize = 256

// Proof is the raw 256-byte Groth16 proof as received over the wire, before
// parsing into curve points.
type Proof [ProofSize]byte

// VerifyingKeyMinSize is the minimum byte length of a structurally valid
// verifying key: 4 (input count) + 64 (alpha) + 128*3 (beta, gamma, delta) +
// 9*64 (IC).
const VerifyingKeyMinSize = 4 + 64 + 128*3 + 9*64

// PublicInputCount is the number of public inputs the circuit declares (P=8
// in spec terms, giving 9 IC entries: IC[0] plus one per input).
const PublicInputCount = 8

// ICLen is the required length of the verifying key's input-commitment
// vector.
const ICLen = PublicInputCount + 1

// DepositEvent is emitted (as a Go value; transport is this module's
// caller's concern) when a deposit succeeds.
type DepositEvent struct {
	Commitment Hash
	LeafIndex  uint64
	Timestamp  uint64
}

// WithdrawEvent is emitted when a withdrawal succeeds.
type WithdrawEvent struct {
	NullifierHash Hash
	Recipient     Address
	Relayer       Address
	Fee           uint64
	Timestamp     uint64
}

// WithdrawRequest bundles the arguments to a withdrawal, mirroring the
// Withdraw instruction's argument tuple.
type WithdrawRequest struct {
	Proof         Proof
	Root          Hash
	NullifierHash Hash
	Recipient     Address
	Relayer       Address // EmptyAddress means "no relayer"
	HasRelayer    bool
	Fee           uint64
	Refund        uint64
}
