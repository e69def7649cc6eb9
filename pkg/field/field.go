// Package field provides canonical encode/decode helpers for elements of the
// BN254 scalar field, the field every hash input, hash output, and public
// input in this module lives in.
package field

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Size is the canonical big-endian encoding width of a field element.
const Size = 32

// ErrNotCanonical is returned when a 32-byte string does not represent a
// value strictly less than the field modulus.
var ErrNotCanonical = errors.New("field: value is not less than the modulus")

// Element is a value in the BN254 scalar field, always held canonically
// reduced.
type Element = fr.Element

// FromBytes decodes 32 big-endian bytes into a field element, rejecting any
// value that is not strictly less than the modulus.
func FromBytes(b []byte) (Element, error) {
	var e Element
	if len(b) != Size {
		return e, fmt.Errorf("field: expected %d bytes, got %d", Size, len(b))
	}
	// SetBytes reduces modulo the field prime silently; detect non-canonical
	// input by re-encoding and comparing.
	e.SetBytes(b)
	out := e.Bytes()
	for i := 0; i < Size; i++ {
		if out[i] != b[i] {
			return Element{}, ErrNotCanonical
		}
	}
	return e, nil
}

// Bytes encodes a field element as 32 canonical big-endian bytes.
func Bytes(e Element) [Size]byte {
	return e.Bytes()
}

// IsZero reports whether e is the additive identity.
func IsZero(e Element) bool {
	return e.IsZero()
}

// PackUint64 encodes a uint64 as a 32-byte field element (24 zero bytes
// followed by the 8-byte big-endian value), per the fee/refund public-input
// layout.
func PackUint64(v uint64) [Size]byte {
	var out [Size]byte
	for i := 0; i < 8; i++ {
		out[31-i] = byte(v >> (8 * i))
	}
	return out
}

// SplitAddress splits a 32-byte address into its high and low 128-bit
// halves, each embedded in a 32-byte field element (16 zero bytes followed
// by the 16 address bytes). Both halves are strictly less than the field
// modulus because 128 bits is narrower than the 254-bit field.
func SplitAddress(addr [32]byte) (hi [Size]byte, lo [Size]byte) {
	copy(hi[16:], addr[0:16])
	copy(lo[16:], addr[16:32])
	return hi, lo
}

// ReconstructAddress is the inverse of SplitAddress: given the high and low
// public-input field elements, rebuilds the 32-byte address. It is the
// identity when composed with SplitAddress on any 32-byte input.
func ReconstructAddress(hi, lo [Size]byte) [32]byte {
	var addr [32]byte
	copy(addr[0:16], hi[16:32])
	copy(addr[16:32], lo[16:32])
	return addr
}
