package groth16verify

import (
	"encoding/binary"
	"errors"

	"github.com/consensys/gnark-crypto/ecc/bn254"

	"github.com/veilmix/privpool/pkg/types"
)

// ErrInvalidVerifyingKey is returned when stored verifying-key bytes fail
// structural validation.
var ErrInvalidVerifyingKey = errors.New("groth16verify: invalid verifying key")

// VerifyingKey is the parsed, structurally-validated Groth16 verifying key.
type VerifyingKey struct {
	Alpha bn254.G1Affine
	Beta  bn254.G2Affine
	Gamma bn254.G2Affine
	Delta bn254.G2Affine
	IC    []bn254.G1Affine
}

// ParseVerifyingKey decodes and structurally validates raw verifying-key
// bytes per the wire layout: 4-byte declared input count, then alpha (64B),
// beta (128B), gamma (128B), delta (128B), then 9*64B for IC.
//
// Validation rules: declared input count must equal PublicInputCount;
// total length must match exactly; alpha must be a non-identity point on
// curve-1; beta/gamma/delta must each be non-identity points on curve-2;
// |IC| must equal ICLen and every entry a non-identity curve-1 point.
func ParseVerifyingKey(raw []byte) (*VerifyingKey, error) {
	if len(raw) < 4 {
		return nil, ErrInvalidVerifyingKey
	}
	declaredInputs := binary.BigEndian.Uint32(raw[0:4])
	if declaredInputs != types.PublicInputCount {
		return nil, ErrInvalidVerifyingKey
	}

	expectedLen := 4 + 64 + 128*3 + types.ICLen*64
	if len(raw) != expectedLen {
		return nil, ErrInvalidVerifyingKey
	}

	off := 4
	alpha, err := decodeG1BE(raw[off : off+64])
	if err != nil {
		return nil, ErrInvalidVerifyingKey
	}
	off += 64

	beta, err := decodeG2BE(raw[off : off+128])
	if err != nil {
		return nil, ErrInvalidVerifyingKey
	}
	off += 128

	gamma, err := decodeG2BE(raw[off : off+128])
	if err != nil {
		return nil, ErrInvalidVerifyingKey
	}
	off += 128

	delta, err := decodeG2BE(raw[off : off+128])
	if err != nil {
		return nil, ErrInvalidVerifyingKey
	}
	off += 128

	ic := make([]bn254.G1Affine, 0, types.ICLen)
	for i := 0; i < types.ICLen; i++ {
		p, err := decodeG1BE(raw[off : off+64])
		if err != nil {
			return nil, ErrInvalidVerifyingKey
		}
		ic = append(ic, p)
		off += 64
	}

	return &VerifyingKey{Alpha: alpha, Beta: beta, Gamma: gamma, Delta: delta, IC: ic}, nil
}

// Bytes serializes the verifying key back to its wire form. Serialize then
// Parse is the identity on any structurally valid key.
func (vk *VerifyingKey) Bytes() []byte {
	out := make([]byte, 0, 4+64+128*3+len(vk.IC)*64)

	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], types.PublicInputCount)
	out = append(out, countBuf[:]...)

	out = append(out, EncodeG1BE(vk.Alpha)...)
	out = append(out, EncodeG2BE(vk.Beta)...)
	out = append(out, EncodeG2BE(vk.Gamma)...)
	out = append(out, EncodeG2BE(vk.Delta)...)
	for _, p := range vk.IC {
		out = append(out, EncodeG1BE(p)...)
	}
	return out
}
