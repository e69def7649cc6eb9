package groth16verify

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"

	"github.com/veilmix/privpool/pkg/types"
)

func validVKBytes() []byte {
	_, _, g1, g2 := bn254.Generators()

	vk := &VerifyingKey{
		Alpha: g1,
		Beta:  g2,
		Gamma: g2,
		Delta: g2,
		IC:    make([]bn254.G1Affine, types.ICLen),
	}
	for i := range vk.IC {
		vk.IC[i] = g1
	}
	return vk.Bytes()
}

func TestParseVerifyingKeyAcceptsValidKey(t *testing.T) {
	raw := validVKBytes()
	vk, err := ParseVerifyingKey(raw)
	if err != nil {
		t.Fatalf("expected a structurally valid key to parse, got: %v", err)
	}
	if len(vk.IC) != types.ICLen {
		t.Fatalf("expected |IC| = %d, got %d", types.ICLen, len(vk.IC))
	}
}

func TestVerifyingKeyRoundTripIsIdentity(t *testing.T) {
	raw := validVKBytes()
	vk, err := ParseVerifyingKey(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !bytes.Equal(vk.Bytes(), raw) {
		t.Fatalf("serialize(parse(raw)) != raw: round trip is not the identity")
	}
}

func TestParseVerifyingKeyRejectsWrongDeclaredInputCount(t *testing.T) {
	raw := validVKBytes()
	binary.BigEndian.PutUint32(raw[0:4], types.PublicInputCount+1)

	if _, err := ParseVerifyingKey(raw); err != ErrInvalidVerifyingKey {
		t.Fatalf("expected ErrInvalidVerifyingKey for wrong declared input count, got %v", err)
	}
}

func TestParseVerifyingKeyRejectsShortBuffer(t *testing.T) {
	raw := validVKBytes()
	if _, err := ParseVerifyingKey(raw[:len(raw)-1]); err != ErrInvalidVerifyingKey {
		t.Fatalf("expected ErrInvalidVerifyingKey for truncated buffer, got %v", err)
	}
}

func TestParseVerifyingKeyRejectsOversizeBuffer(t *testing.T) {
	raw := validVKBytes()
	raw = append(raw, 0x00)
	if _, err := ParseVerifyingKey(raw); err != ErrInvalidVerifyingKey {
		t.Fatalf("expected ErrInvalidVerifyingKey for oversize buffer, got %v", err)
	}
}

func TestParseVerifyingKeyRejectsIdentityAlpha(t *testing.T) {
	raw := validVKBytes()
	// Alpha occupies bytes [4:68); zero it out to make it the identity point.
	for i := 4; i < 4+64; i++ {
		raw[i] = 0
	}
	if _, err := ParseVerifyingKey(raw); err != ErrInvalidVerifyingKey {
		t.Fatalf("expected ErrInvalidVerifyingKey for identity alpha, got %v", err)
	}
}

func TestParseVerifyingKeyRejectsIdentityBeta(t *testing.T) {
	raw := validVKBytes()
	// Beta occupies bytes [68:196).
	for i := 68; i < 68+128; i++ {
		raw[i] = 0
	}
	if _, err := ParseVerifyingKey(raw); err != ErrInvalidVerifyingKey {
		t.Fatalf("expected ErrInvalidVerifyingKey for identity beta, got %v", err)
	}
}

func TestParseVerifyingKeyRejectsGarbageCurvePoint(t *testing.T) {
	raw := validVKBytes()
	// Corrupt alpha's X coordinate so the point is no longer on the curve.
	for i := 4; i < 4+32; i++ {
		raw[i] = 0xAB
	}
	if _, err := ParseVerifyingKey(raw); err != ErrInvalidVerifyingKey {
		t.Fatalf("expected ErrInvalidVerifyingKey for an off-curve alpha, got %v", err)
	}
}
