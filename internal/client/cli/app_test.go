package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/dmitrijs2005/zkvault/internal/client/client"
	"github.com/dmitrijs2005/zkvault/internal/client/config"
	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/zk"
)

// fakeProver commits a secret s to s+7.
type fakeProver struct {
	proved int
	err    error
}

func commitOf(s *big.Int) string {
	return new(big.Int).Add(s, big.NewInt(7)).String()
}

func (p *fakeProver) Commit(_ context.Context, s *big.Int) (string, error) {
	return commitOf(s), p.err
}

func (p *fakeProver) Prove(_ context.Context, s *big.Int) (*zk.Bundle, error) {
	p.proved++
	if p.err != nil {
		return nil, p.err
	}
	raw := func(v string) json.RawMessage { return json.RawMessage(v) }
	return &zk.Bundle{
		Proof: zk.Proof{
			"pi_a":     raw(`["1","2","1"]`),
			"pi_b":     raw(`[["1","2"],["3","4"],["1","0"]]`),
			"pi_c":     raw(`["5","6","1"]`),
			"protocol": raw(`"groth16"`),
			"curve":    raw(`"bn128"`),
		},
		Public: []string{commitOf(s)},
	}, nil
}

type fakeVault struct {
	objects  map[string][]byte
	requests []*client.UploadRequest
}

func (v *fakeVault) Upload(_ context.Context, r *client.UploadRequest) (string, error) {
	v.requests = append(v.requests, r)
	v.objects[r.Proof.ObjectID()] = r.Payload
	return r.Proof.ObjectID(), nil
}

func (v *fakeVault) Download(_ context.Context, b *zk.Bundle) ([]byte, error) {
	p, ok := v.objects[b.ObjectID()]
	if !ok {
		return nil, common.ErrNotFound
	}
	return p, nil
}

func (v *fakeVault) Poseidon(_ context.Context, secret []byte) (string, error) {
	s, err := zk.SecretFromBytes(secret)
	if err != nil {
		return "", err
	}
	return commitOf(s), nil
}

type fakeAdmin struct {
	token   string
	deleted int
	pending int
	closed  bool
}

func (f *fakeAdmin) Sweep(context.Context) (int, error)            { return f.deleted, nil }
func (f *fakeAdmin) PendingDeletions(context.Context) (int, error) { return f.pending, nil }
func (f *fakeAdmin) Close() error                                  { f.closed = true; return nil }

type testApp struct {
	*App
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	vault   *fakeVault
	prover  *fakeProver
	admin   *fakeAdmin
	lastCfg *config.Config
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	color.NoColor = true

	ta := &testApp{
		App:    NewApp(),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		vault:  &fakeVault{objects: map[string][]byte{}},
		prover: &fakeProver{},
		admin:  &fakeAdmin{},
	}
	ta.out = ta.stdout
	ta.errOut = ta.stderr
	ta.in = bufio.NewReader(strings.NewReader(""))
	ta.newVault = func(c *config.Config) vaultAPI {
		ta.lastCfg = c
		return ta.vault
	}
	ta.newProver = func(*config.Config) prover { return ta.prover }
	ta.newAdmin = func(_ *config.Config, token string) (adminAPI, error) {
		ta.admin.token = token
		return ta.admin, nil
	}
	return ta
}

func (ta *testApp) run(args ...string) int {
	ta.stdout.Reset()
	ta.stderr.Reset()
	return ta.Run(context.Background(), args)
}

// printedSecret returns the line after the secret banner.
func (ta *testApp) printedSecret(t *testing.T) string {
	t.Helper()
	lines := strings.Split(ta.stdout.String(), "\n")
	for i, l := range lines {
		if strings.HasPrefix(l, "Secret") && i+1 < len(lines) {
			return strings.TrimSpace(lines[i+1])
		}
	}
	t.Fatalf("no secret in output:\n%s", ta.stdout.String())
	return ""
}
