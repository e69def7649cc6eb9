package groth16verify

import (
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"

	"github.com/veilmix/privpool/pkg/field"
	"github.com/veilmix/privpool/pkg/types"
)

// ErrInvalidProof is returned when the pairing check fails. It does not
// distinguish "wrong public inputs" from "wrong witness" — both are
// indistinguishable failures of the same equation.
var ErrInvalidProof = errors.New("groth16verify: pairing check failed")

// PublicInputs is the eight 32-byte field elements assembled in the order
// the circuit expects: root, nullifier hash, recipient-hi, recipient-lo,
// relayer-hi, relayer-lo, fee, refund.
type PublicInputs [types.PublicInputCount][field.Size]byte

// PackPublicInputs assembles the eight public inputs for a withdrawal. The
// relayer address is the all-zero address when no relayer is declared.
func PackPublicInputs(root, nullifierHash types.Hash, recipient, relayer types.Address, fee, refund uint64) PublicInputs {
	recipientHi, recipientLo := field.SplitAddress(recipient)
	relayerHi, relayerLo := field.SplitAddress(relayer)

	var in PublicInputs
	in[0] = root
	in[1] = nullifierHash
	in[2] = recipientHi
	in[3] = recipientLo
	in[4] = relayerHi
	in[5] = relayerLo
	in[6] = field.PackUint64(fee)
	in[7] = field.PackUint64(refund)
	return in
}

// Verify checks a Groth16 proof against the validated verifying key and the
// packed public inputs, applying the proof-A curve-adaptation transform
// before the pairing check.
//
// Equation: e(A', B) * e(alpha, beta)^-1 * e(vk_x, gamma)^-1 * e(C, delta)^-1 = 1
// realized as the single multi-pairing-equals-identity check
// e(A', B) * e(-alpha, beta) * e(-vk_x, gamma) * e(-C, delta) = 1.
func Verify(vk *VerifyingKey, proof types.Proof, inputs PublicInputs) error {
	parsed, err := DecodeProof(proof)
	if err != nil {
		return err
	}

	if len(vk.IC) != types.ICLen {
		return ErrInvalidVerifyingKey
	}

	vkX, err := linearCombination(vk.IC, inputs)
	if err != nil {
		return err
	}

	aNeg := NegateA(parsed.A)

	var negAlpha, negVkX, negC bn254.G1Affine
	negAlpha.Neg(&vk.Alpha)
	negVkX.Neg(&vkX)
	negC.Neg(&parsed.C)

	g1 := []bn254.G1Affine{aNeg, negAlpha, negVkX, negC}
	g2 := []bn254.G2Affine{parsed.B, vk.Beta, vk.Gamma, vk.Delta}

	ok, err := bn254.PairingCheck(g1, g2)
	if err != nil {
		return ErrInvalidProofFormat
	}
	if !ok {
		return ErrInvalidProof
	}
	return nil
}

// linearCombination computes vk_x = IC[0] + sum_i input_i * IC[i+1].
func linearCombination(ic []bn254.G1Affine, inputs PublicInputs) (bn254.G1Affine, error) {
	vkX := ic[0]
	for i, in := range inputs {
		fe, err := field.FromBytes(in[:])
		if err != nil {
			return bn254.G1Affine{}, ErrInvalidProofFormat
		}
		scalar := new(big.Int)
		fe.BigInt(scalar)

		var term bn254.G1Affine
		term.ScalarMultiplication(&ic[i+1], scalar)
		vkX.Add(&vkX, &term)
	}
	return vkX, nil
}
