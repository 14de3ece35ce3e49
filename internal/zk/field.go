// Package zk holds the commitment engine and the proof gateway. The hash
// function and the groth16 prover/verifier are external; this package only
// validates inputs, drives the external tools and interprets their verdicts.
package zk

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/dmitrijs2005/zkvault/internal/common"
)

// FieldModulus is the BN254 scalar field order. Secrets and public inputs
// are elements of this field.
var FieldModulus, _ = new(big.Int).SetString(
	"21888242871839275222246405745257275088548364400416034343698204186575808495617", 10)

// SecretSize is the byte length of a big-endian encoded secret.
const SecretSize = 32

// ValidateSecret checks 0 <= s < r.
func ValidateSecret(s *big.Int) error {
	if s == nil {
		return fmt.Errorf("%w: empty", common.ErrInvalidSecret)
	}
	if s.Sign() < 0 || s.Cmp(FieldModulus) >= 0 {
		return fmt.Errorf("%w: outside the scalar field", common.ErrInvalidSecret)
	}
	return nil
}

// SecretFromBytes interprets b as a big-endian unsigned integer.
func SecretFromBytes(b []byte) (*big.Int, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty", common.ErrInvalidSecret)
	}
	s := new(big.Int).SetBytes(b)
	if err := ValidateSecret(s); err != nil {
		return nil, err
	}
	return s, nil
}

// SecretBytes encodes s as SecretSize big-endian bytes.
func SecretBytes(s *big.Int) []byte {
	return s.FillBytes(make([]byte, SecretSize))
}

// ParseFieldElement parses a canonical decimal field element: no sign, no
// leading zeros, below the modulus. One element has exactly one spelling, so
// it can be used as a storage key.
func ParseFieldElement(v string) (*big.Int, error) {
	if v == "" || strings.TrimSpace(v) != v {
		return nil, fmt.Errorf("%w: %q is not a field element", common.ErrMalformedProof, v)
	}
	if len(v) > 1 && v[0] == '0' {
		return nil, fmt.Errorf("%w: %q is not in canonical form", common.ErrMalformedProof, v)
	}
	for _, c := range v {
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("%w: %q is not a decimal field element", common.ErrMalformedProof, v)
		}
	}
	n, ok := new(big.Int).SetString(v, 10)
	if !ok || n.Cmp(FieldModulus) >= 0 {
		return nil, fmt.Errorf("%w: %q is not a field element", common.ErrMalformedProof, v)
	}
	return n, nil
}
