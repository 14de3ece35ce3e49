package zk

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/zkvault/internal/common"
)

// RequiredProofFields must all be present in a groth16 proof object.
var RequiredProofFields = []string{"pi_a", "pi_b", "pi_c", "protocol", "curve"}

// Proof is the prover's proof object. Fields are kept raw and handed to the
// verifier untouched.
type Proof map[string]json.RawMessage

// Validate checks that every required field is present and non-null.
func (p Proof) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: proof must be an object", common.ErrMalformedProof)
	}
	for _, f := range RequiredProofFields {
		v, ok := p[f]
		if !ok || len(v) == 0 || string(v) == "null" {
			return fmt.Errorf("%w: missing %s", common.ErrMalformedProof, f)
		}
	}
	return nil
}

// Bundle is a proof together with its public signals. Public[0] is the
// commitment the proof is about.
type Bundle struct {
	Proof  Proof    `json:"proof"`
	Public []string `json:"public"`
}

// Validate checks the proof shape and that Public is a non-empty list of
// field elements.
func (b *Bundle) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: empty request", common.ErrMalformedProof)
	}
	if err := b.Proof.Validate(); err != nil {
		return err
	}
	if len(b.Public) == 0 {
		return fmt.Errorf("%w: public must be a non-empty array", common.ErrMalformedProof)
	}
	for _, v := range b.Public {
		if _, err := ParseFieldElement(v); err != nil {
			return err
		}
	}
	return nil
}

// ObjectID returns the claimed commitment, public[0].
func (b *Bundle) ObjectID() string {
	if b == nil || len(b.Public) == 0 {
		return ""
	}
	return b.Public[0]
}

// ParseBundle decodes proof and public from their JSON encodings.
// An invalid JSON shape is reported as ErrMalformedProof.
func ParseBundle(proofJSON, publicJSON []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(proofJSON, &b.Proof); err != nil {
		return nil, fmt.Errorf("%w: proof must be a JSON object", common.ErrMalformedProof)
	}
	if err := json.Unmarshal(publicJSON, &b.Public); err != nil {
		return nil, fmt.Errorf("%w: public must be a JSON array of strings", common.ErrMalformedProof)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}
