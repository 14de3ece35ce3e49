package zk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrProofRejected is returned by a Verifier when the proof does not verify.
var ErrProofRejected = errors.New("proof rejected by verifier")

const (
	VerificationKeyFile = "verification_key.json"
	ProvingKeyFile      = "poseidon_preimage.zkey"
	WitnessWasmFile     = "poseidon_preimage_js/poseidon_preimage.wasm"
)

// poseidonScript reads the secret from argv so no caller data is ever
// interpolated into source.
const poseidonScript = `(async () => {
  const circomlib = require("circomlibjs");
  const poseidon = await circomlib.buildPoseidon();
  const secret = BigInt(process.argv[1]);
  console.log(poseidon.F.toString(poseidon([secret])));
  process.exit(0);
})().catch((e) => { console.error(e && e.message ? e.message : e); process.exit(2); });`

var execCommandContext = exec.CommandContext

// SnarkJS drives node/circomlibjs and the snarkjs CLI. Every call works in
// its own temporary directory, so concurrent calls share nothing.
type SnarkJS struct {
	NodeBin        string
	SnarkJSBin     string
	NodeModulesDir string
	ArtifactsDir   string
	Timeout        time.Duration
}

func (s *SnarkJS) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	cmd := execCommandContext(ctx, name, args...)
	cmd.Env = os.Environ()
	if s.NodeModulesDir != "" {
		cmd.Env = append(cmd.Env, "NODE_PATH="+s.NodeModulesDir)
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = time.Second
	err := cmd.Run()
	if ctx.Err() != nil {
		return out.Bytes(), fmt.Errorf("%s: %w", filepath.Base(name), ctx.Err())
	}
	return out.Bytes(), err
}

// snarkjs runs the snarkjs CLI; a cli.js path is launched through node.
func (s *SnarkJS) snarkjs(ctx context.Context, args ...string) ([]byte, error) {
	if strings.HasSuffix(s.SnarkJSBin, ".js") {
		return s.run(ctx, s.NodeBin, append([]string{s.SnarkJSBin}, args...)...)
	}
	return s.run(ctx, s.SnarkJSBin, args...)
}

// Commit computes Poseidon(secret) with circomlibjs, the same library the
// circuit's witness generator uses.
func (s *SnarkJS) Commit(ctx context.Context, secret *big.Int) (string, error) {
	if err := ValidateSecret(secret); err != nil {
		return "", err
	}

	out, err := s.run(ctx, s.NodeBin, "-e", poseidonScript, secret.String())
	if err != nil {
		return "", fmt.Errorf("poseidon: %w: %s", err, firstLine(out))
	}

	hash := strings.TrimSpace(string(out))
	if _, err := ParseFieldElement(hash); err != nil {
		return "", fmt.Errorf("poseidon: unexpected output %q", firstLine(out))
	}
	return hash, nil
}

// Verify runs `snarkjs groth16 verify`. A proof or public input the tool
// refuses yields ErrProofRejected; every other failure is returned as is.
func (s *SnarkJS) Verify(ctx context.Context, b *Bundle) error {
	dir, err := os.MkdirTemp("", "zkv-verify-")
	if err != nil {
		return fmt.Errorf("verifier workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	proofPath := filepath.Join(dir, "proof.json")
	publicPath := filepath.Join(dir, "public.json")
	if err := writeJSON(proofPath, b.Proof); err != nil {
		return err
	}
	if err := writeJSON(publicPath, b.Public); err != nil {
		return err
	}

	vk := filepath.Join(s.ArtifactsDir, VerificationKeyFile)
	if _, err := os.Stat(vk); err != nil {
		return fmt.Errorf("verification key: %w", err)
	}

	out, err := s.snarkjs(ctx, "groth16", "verify", vk, publicPath, proofPath)
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 && isRejection(out) {
		return ErrProofRejected
	}
	return fmt.Errorf("snarkjs verify: %w: %s", err, firstLine(out))
}

// rejectionMessages are printed by `snarkjs groth16 verify` when it refuses
// the submitted proof or public signals, as opposed to failing itself.
var rejectionMessages = [][]byte{
	[]byte("Invalid proof"),
	[]byte("Proof commitments are not valid"),
	[]byte("Public inputs are not valid"),
}

func isRejection(out []byte) bool {
	for _, m := range rejectionMessages {
		if bytes.Contains(out, m) {
			return true
		}
	}
	return false
}

// Prove computes the commitment for secret, the witness and a groth16 proof
// whose public[0] is the commitment.
func (s *SnarkJS) Prove(ctx context.Context, secret *big.Int) (*Bundle, error) {
	commitment, err := s.Commit(ctx, secret)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "zkv-prove-")
	if err != nil {
		return nil, fmt.Errorf("prover workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "input.json")
	witness := filepath.Join(dir, "witness.wtns")
	proofPath := filepath.Join(dir, "proof.json")
	publicPath := filepath.Join(dir, "public.json")

	if err := writeJSON(input, map[string]string{"x": secret.String(), "expected": commitment}); err != nil {
		return nil, err
	}

	if out, err := s.snarkjs(ctx, "wtns", "calculate",
		filepath.Join(s.ArtifactsDir, WitnessWasmFile), input, witness); err != nil {
		return nil, fmt.Errorf("snarkjs wtns calculate: %w: %s", err, firstLine(out))
	}

	if out, err := s.snarkjs(ctx, "groth16", "prove",
		filepath.Join(s.ArtifactsDir, ProvingKeyFile), witness, proofPath, publicPath); err != nil {
		return nil, fmt.Errorf("snarkjs groth16 prove: %w: %s", err, firstLine(out))
	}

	var b Bundle
	if err := readJSON(proofPath, &b.Proof); err != nil {
		return nil, err
	}
	if err := readJSON(publicPath, &b.Public); err != nil {
		return nil, err
	}
	if b.ObjectID() != commitment {
		return nil, fmt.Errorf("prover returned public[0]=%q, want %q", b.ObjectID(), commitment)
	}
	return &b, nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func firstLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
