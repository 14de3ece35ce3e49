package zk

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/zkvault/internal/common"
)

const testProofJSON = `{"pi_a":["1","2","1"],"pi_b":[["1","2"],["3","4"],["1","0"]],"pi_c":["5","6","1"],"protocol":"groth16","curve":"bn128"}`

func testBundle(t *testing.T, public ...string) *Bundle {
	t.Helper()
	var p Proof
	require.NoError(t, json.Unmarshal([]byte(testProofJSON), &p))
	return &Bundle{Proof: p, Public: public}
}

func TestProof_Validate(t *testing.T) {
	var p Proof
	require.NoError(t, json.Unmarshal([]byte(testProofJSON), &p))
	assert.NoError(t, p.Validate())

	for _, f := range RequiredProofFields {
		t.Run("missing "+f, func(t *testing.T) {
			q := Proof{}
			for k, v := range p {
				if k != f {
					q[k] = v
				}
			}
			assert.ErrorIs(t, q.Validate(), common.ErrMalformedProof)
		})
	}

	q := Proof{}
	for k, v := range p {
		q[k] = v
	}
	q["curve"] = json.RawMessage("null")
	assert.ErrorIs(t, q.Validate(), common.ErrMalformedProof)

	assert.ErrorIs(t, Proof(nil).Validate(), common.ErrMalformedProof)
}

func TestBundle_Validate(t *testing.T) {
	assert.NoError(t, testBundle(t, "123", "1").Validate())
	assert.ErrorIs(t, testBundle(t).Validate(), common.ErrMalformedProof)
	assert.ErrorIs(t, testBundle(t, "12a").Validate(), common.ErrMalformedProof)

	var nilBundle *Bundle
	assert.ErrorIs(t, nilBundle.Validate(), common.ErrMalformedProof)
	assert.Equal(t, "", nilBundle.ObjectID())
	assert.Equal(t, "123", testBundle(t, "123", "9").ObjectID())
}

func TestParseBundle(t *testing.T) {
	tests := []struct {
		name    string
		proof   string
		public  string
		wantErr bool
	}{
		{"ok", testProofJSON, `["42"]`, false},
		{"proof is array", `[1,2]`, `["42"]`, true},
		{"proof is null", `null`, `["42"]`, true},
		{"public not array", testProofJSON, `"42"`, true},
		{"public numbers", testProofJSON, `[42]`, true},
		{"public empty", testProofJSON, `[]`, true},
		{"bad json", `{`, `["42"]`, true},
		{"leading zero", testProofJSON, `["042"]`, true},
		{"leading zero in later signal", testProofJSON, `["42","007"]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ParseBundle([]byte(tt.proof), []byte(tt.public))
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrMalformedProof)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "42", b.ObjectID())
		})
	}
}
