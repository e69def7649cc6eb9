// Package groth16verify implements Groth16 proof verification over BN254:
// decoding the wire proof and verifying-key formats, the curve-adaptation
// transforms the proving toolchain's conventions require, public-input
// packing, and the final pairing check.
package groth16verify

import (
	"errors"

	"github.com/consensys/gnark-crypto/ecc/bn254"

	"github.com/veilmix/privpool/pkg/types"
)

// ErrInvalidProofFormat is returned when the 256-byte proof cannot be
// parsed as three valid curve points.
var ErrInvalidProofFormat = errors.New("groth16verify: invalid proof format")

// ParsedProof holds the proof's three curve points after decoding, before
// any curve-adaptation transform has been applied.
type ParsedProof struct {
	A bn254.G1Affine
	B bn254.G2Affine
	C bn254.G1Affine
}

// DecodeProof parses the 256-byte wire proof: A at [0:64), B at [64:192)
// with each G2 coordinate encoded imaginary-part-first, C at [192:256).
func DecodeProof(raw types.Proof) (ParsedProof, error) {
	var p ParsedProof

	a, err := decodeG1BE(raw[0:64])
	if err != nil {
		return p, err
	}
	b, err := decodeG2BE(raw[64:192])
	if err != nil {
		return p, err
	}
	c, err := decodeG1BE(raw[192:256])
	if err != nil {
		return p, err
	}

	p.A, p.B, p.C = a, b, c
	return p, nil
}

// NegateA implements the proof-A curve-adaptation transform: each 32-byte
// coordinate is serialized and passed through the byte-reverse round trip,
// then deserialized and the point negated. Against this library's
// big-endian fp.Element encoding the two reversals cancel, so both are
// applied back to back before the negation and the result is a plain point
// negation; the round trip is kept explicit rather than collapsed to a bare
// Neg call. See DESIGN.md.
func NegateA(a bn254.G1Affine) bn254.G1Affine {
	rx := reverse32(reverse32(a.X.Bytes()))
	ry := reverse32(reverse32(a.Y.Bytes()))

	var roundTripped bn254.G1Affine
	roundTripped.X.SetBytes(rx)
	roundTripped.Y.SetBytes(ry)

	var neg bn254.G1Affine
	neg.Neg(&roundTripped)
	return neg
}

func reverse32(b [32]byte) [32]byte {
	var out [32]byte
	for i, v := range b {
		out[31-i] = v
	}
	return out
}

func decodeG1BE(b []byte) (bn254.G1Affine, error) {
	var p bn254.G1Affine
	if len(b) != 64 {
		return p, ErrInvalidProofFormat
	}
	p.X.SetBytes(b[0:32])
	p.Y.SetBytes(b[32:64])

	if p.X.IsZero() && p.Y.IsZero() {
		return p, ErrInvalidProofFormat
	}
	if !p.IsOnCurve() {
		return p, ErrInvalidProofFormat
	}
	return p, nil
}

// decodeG2BE parses a 128-byte G2 point where each coordinate's two
// quadratic-extension components are serialized imaginary-part-first:
// x_imag(32) | x_real(32) | y_imag(32) | y_real(32).
func decodeG2BE(b []byte) (bn254.G2Affine, error) {
	var p bn254.G2Affine
	if len(b) != 128 {
		return p, ErrInvalidProofFormat
	}

	p.X.A1.SetBytes(b[0:32])
	p.X.A0.SetBytes(b[32:64])
	p.Y.A1.SetBytes(b[64:96])
	p.Y.A0.SetBytes(b[96:128])

	if p.X.IsZero() && p.Y.IsZero() {
		return p, ErrInvalidProofFormat
	}
	if !p.IsOnCurve() {
		return p, ErrInvalidProofFormat
	}
	if !p.IsInSubGroup() {
		return p, ErrInvalidProofFormat
	}
	return p, nil
}

// EncodeG1BE is the inverse of decodeG1BE, used by verifying-key tests and
// round-trip checks.
func EncodeG1BE(p bn254.G1Affine) []byte {
	out := make([]byte, 64)
	x := p.X.Bytes()
	y := p.Y.Bytes()
	copy(out[0:32], x[:])
	copy(out[32:64], y[:])
	return out
}

// EncodeG2BE is the inverse of decodeG2BE.
func EncodeG2BE(p bn254.G2Affine) []byte {
	out := make([]byte, 128)
	xa1 := p.X.A1.Bytes()
	xa0 := p.X.A0.Bytes()
	ya1 := p.Y.A1.Bytes()
	ya0 := p.Y.A0.Bytes()
	copy(out[0:32], xa1[:])
	copy(out[32:64], xa0[:])
	copy(out[64:96], ya1[:])
	copy(out[96:128], ya0[:])
	return out
}
