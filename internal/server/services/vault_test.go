package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/cryptox"
	"github.com/dmitrijs2005/zkvault/internal/dbx"
	"github.com/dmitrijs2005/zkvault/internal/logging"
	"github.com/dmitrijs2005/zkvault/internal/server/lifecycle"
	"github.com/dmitrijs2005/zkvault/internal/server/models"
	"github.com/dmitrijs2005/zkvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/zkvault/internal/server/storage"
	"github.com/dmitrijs2005/zkvault/internal/zk"
)

const testProofJSON = `{
	"pi_a": ["1", "2", "1"],
	"pi_b": [["1", "2"], ["3", "4"], ["1", "0"]],
	"pi_c": ["5", "6", "1"],
	"protocol": "groth16",
	"curve": "bn128"
}`

// scriptedVerifier accepts groth16 proofs, rejects "forged" ones and fails
// on "crash".
type scriptedVerifier struct{}

func (scriptedVerifier) Verify(_ context.Context, b *zk.Bundle) error {
	switch string(b.Proof["protocol"]) {
	case `"forged"`:
		return zk.ErrProofRejected
	case `"crash"`:
		return errors.New("verification_key.json: no such file")
	}
	return nil
}

// plusSeven stands in for the external hash.
type plusSeven struct{}

func (plusSeven) Commit(_ context.Context, s *big.Int) (string, error) {
	return new(big.Int).Add(s, big.NewInt(7)).String(), nil
}

func proofFor(t *testing.T, protocol string, public ...string) *zk.Bundle {
	t.Helper()
	var p zk.Proof
	require.NoError(t, json.Unmarshal([]byte(testProofJSON), &p))
	if protocol != "" {
		p["protocol"] = json.RawMessage(`"` + protocol + `"`)
	}
	return &zk.Bundle{Proof: p, Public: public}
}

type harness struct {
	svc       *VaultService
	lifecycle *lifecycle.Manager
	store     *storage.Store
}

func newHarness(t *testing.T, opts VaultOptions, grace time.Duration, wrap func(objectStore) objectStore) *harness {
	t.Helper()
	ctx := context.Background()
	log := logging.Nop{}

	db, target, err := dbx.Open(ctx, filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	rm, err := repomanager.NewRepositoryManager(target.Dialect)
	require.NoError(t, err)
	require.NoError(t, rm.RunMigrations(ctx, db))

	backend, err := storage.NewFSBackend(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	store := storage.NewStore(backend, log)

	kr, err := cryptox.NewKeyring(common.GenerateRandByteArray(cryptox.KeySize))
	require.NoError(t, err)

	lc := lifecycle.NewManager(rm.Expirations(db), store, lifecycle.Options{
		DefaultTTL:  24 * time.Hour,
		DeleteGrace: grace,
	}, log)
	t.Cleanup(func() { _ = lc.Close(context.Background()) })

	var objects objectStore = store
	if wrap != nil {
		objects = wrap(store)
	}

	gw := zk.NewGateway(plusSeven{}, scriptedVerifier{}, 2, log)
	svc := NewVaultService(gw, cryptox.NewService(kr), objects, lc, opts, log)
	return &harness{svc: svc, lifecycle: lc, store: store}
}

var defaultOpts = VaultOptions{
	MaxContentLength:  1000,
	MaxFileCount:      3,
	VerifyUploadProof: true,
}

func onePart(data string) []Part {
	return []Part{{Name: "blob.bin", Data: []byte(data)}}
}

func TestVault_UploadDownloadRoundTrip(t *testing.T) {
	h := newHarness(t, defaultOpts, time.Minute, nil)
	ctx := context.Background()

	id, err := h.svc.Upload(ctx, &UploadRequest{
		Parts: onePart("client ciphertext"),
		Proof: proofFor(t, "", "12345", "1"),
		TTL:   time.Hour,
	})
	require.NoError(t, err)
	assert.Equal(t, "12345", id)

	for i := 0; i < 2; i++ {
		d, err := h.svc.Download(ctx, proofFor(t, "", "12345"))
		require.NoError(t, err, "download %d", i)
		assert.Equal(t, []byte("client ciphertext"), d.Payload)
		d.Complete(ctx)
	}
	assert.Equal(t, 0, h.lifecycle.PendingDeletions(), "not consume-once")
}

func TestVault_StoresCiphertextNotPayload(t *testing.T) {
	h := newHarness(t, defaultOpts, time.Minute, nil)
	ctx := context.Background()

	_, err := h.svc.Upload(ctx, &UploadRequest{Parts: onePart("plain marker"), Proof: proofFor(t, "", "77")})
	require.NoError(t, err)

	obj, err := h.store.Get(ctx, "77")
	require.NoError(t, err)
	assert.NotContains(t, string(obj.Ciphertext), "plain marker")
	assert.NotEmpty(t, obj.KeyMaterial)
}

func TestVault_ConsumeOnce(t *testing.T) {
	h := newHarness(t, defaultOpts, 20*time.Millisecond, nil)
	ctx := context.Background()

	_, err := h.svc.Upload(ctx, &UploadRequest{
		Parts:               onePart("once"),
		Proof:               proofFor(t, "", "42"),
		DeleteAfterDownload: true,
	})
	require.NoError(t, err)

	d, err := h.svc.Download(ctx, proofFor(t, "", "42"))
	require.NoError(t, err)
	assert.Equal(t, []byte("once"), d.Payload)
	assert.Equal(t, 0, h.lifecycle.PendingDeletions(), "nothing armed before the payload is delivered")

	d.Complete(ctx)
	d.Complete(ctx)
	assert.Equal(t, 1, h.lifecycle.PendingDeletions())

	require.Eventually(t, func() bool {
		_, err := h.svc.Download(ctx, proofFor(t, "", "42"))
		return errors.Is(err, common.ErrNotFound)
	}, time.Second, 5*time.Millisecond)

	_, err = h.store.Get(ctx, "42")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestVault_MultiplePartsAreBundled(t *testing.T) {
	h := newHarness(t, defaultOpts, time.Minute, nil)
	ctx := context.Background()

	parts := []Part{
		{Name: "a.txt", Data: []byte("alpha")},
		{Name: "b.txt", Data: []byte("beta")},
	}
	_, err := h.svc.Upload(ctx, &UploadRequest{Parts: parts, Proof: proofFor(t, "", "9")})
	require.NoError(t, err)

	d, err := h.svc.Download(ctx, proofFor(t, "", "9"))
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(d.Payload), int64(len(d.Payload)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	for i, want := range []string{"alpha", "beta"} {
		f := zr.File[i]
		assert.Equal(t, []string{"part-000", "part-001"}[i], f.Name)
		rc, err := f.Open()
		require.NoError(t, err)
		got, err := io.ReadAll(rc)
		require.NoError(t, err)
		_ = rc.Close()
		assert.Equal(t, want, string(got))
	}
}

func TestVault_UploadValidation(t *testing.T) {
	h := newHarness(t, defaultOpts, time.Minute, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *UploadRequest
		want error
	}{
		{"no parts", &UploadRequest{Proof: proofFor(t, "", "1")}, common.ErrValidation},
		{"unnamed parts", &UploadRequest{Parts: []Part{{Data: []byte("x")}}, Proof: proofFor(t, "", "1")}, common.ErrValidation},
		{"too many parts", &UploadRequest{Parts: make([]Part, 4), Proof: proofFor(t, "", "1")}, common.ErrValidation},
		{"too large", &UploadRequest{Parts: []Part{{Name: "x", Data: make([]byte, 1001)}}, Proof: proofFor(t, "", "1")}, common.ErrPayloadTooLarge},
		{"missing proof", &UploadRequest{Parts: onePart("x")}, common.ErrMalformedProof},
		{"malformed proof", &UploadRequest{Parts: onePart("x"), Proof: &zk.Bundle{Public: []string{"1"}}}, common.ErrMalformedProof},
		{"forged proof", &UploadRequest{Parts: onePart("x"), Proof: proofFor(t, "forged", "1")}, common.ErrAuthDenied},
		{"verifier down", &UploadRequest{Parts: onePart("x"), Proof: proofFor(t, "crash", "1")}, common.ErrVerifierUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Upload(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := h.lifecycle.Lookup(ctx, "1")
	assert.ErrorIs(t, err, common.ErrNotFound, "rejected uploads leave no record")
}

func TestVault_UploadWithoutProofEnforcement(t *testing.T) {
	opts := defaultOpts
	opts.VerifyUploadProof = false
	h := newHarness(t, opts, time.Minute, nil)
	ctx := context.Background()

	id, err := h.svc.Upload(ctx, &UploadRequest{Parts: onePart("x"), Proof: proofFor(t, "forged", "55")})
	require.NoError(t, err)
	assert.Equal(t, "55", id, "proof is only checked for shape")

	id, err = h.svc.Upload(ctx, &UploadRequest{Parts: onePart("y"), Secret: []byte{0x01, 0x00}})
	require.NoError(t, err)
	assert.Equal(t, "263", id, "commitment of the secret")

	_, err = h.svc.Upload(ctx, &UploadRequest{Parts: onePart("z")})
	assert.ErrorIs(t, err, common.ErrInvalidSecret)
}

func TestVault_DownloadErrors(t *testing.T) {
	h := newHarness(t, defaultOpts, time.Minute, nil)
	ctx := context.Background()

	_, err := h.svc.Upload(ctx, &UploadRequest{Parts: onePart("x"), Proof: proofFor(t, "", "100")})
	require.NoError(t, err)

	tests := []struct {
		name   string
		bundle *zk.Bundle
		want   error
	}{
		{"forged proof for existing object", proofFor(t, "forged", "100"), common.ErrAuthDenied},
		{"verifier failure", proofFor(t, "crash", "100"), common.ErrVerifierUnavailable},
		{"malformed", &zk.Bundle{Proof: zk.Proof{}, Public: []string{"100"}}, common.ErrMalformedProof},
		{"not a field element", proofFor(t, "", "abc"), common.ErrMalformedProof},
		{"unknown id", proofFor(t, "", "101"), common.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := h.svc.Download(ctx, tt.bundle)
			assert.Nil(t, d)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestVault_DownloadExpired(t *testing.T) {
	h := newHarness(t, defaultOpts, time.Minute, nil)
	ctx := context.Background()

	_, err := h.svc.Upload(ctx, &UploadRequest{Parts: onePart("x"), Proof: proofFor(t, "", "5"), TTL: time.Second})
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)

	_, err = h.svc.Download(ctx, proofFor(t, "", "5"))
	assert.ErrorIs(t, err, common.ErrNotFound)
}

// failingStore refuses writes.
type failingStore struct{ objectStore }

func (failingStore) Put(context.Context, *models.EncryptedObject) error {
	return errors.New("no space left on device")
}

func TestVault_UploadRollsBackRecord(t *testing.T) {
	h := newHarness(t, defaultOpts, time.Minute, func(s objectStore) objectStore { return failingStore{s} })
	ctx := context.Background()

	_, err := h.svc.Upload(ctx, &UploadRequest{Parts: onePart("x"), Proof: proofFor(t, "", "8")})
	assert.ErrorIs(t, err, common.ErrStorageIO)

	_, err = h.lifecycle.Lookup(ctx, "8")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

// tamperingStore flips a ciphertext bit on every read.
type tamperingStore struct{ objectStore }

func (s tamperingStore) Get(ctx context.Context, id string) (*models.EncryptedObject, error) {
	obj, err := s.objectStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	obj.Ciphertext[0] ^= 0x01
	return obj, nil
}

func TestVault_TamperedObjectIsNotServed(t *testing.T) {
	h := newHarness(t, defaultOpts, time.Minute, func(s objectStore) objectStore { return tamperingStore{s} })
	ctx := context.Background()

	_, err := h.svc.Upload(ctx, &UploadRequest{Parts: onePart("x"), Proof: proofFor(t, "", "3")})
	require.NoError(t, err)

	d, err := h.svc.Download(ctx, proofFor(t, "", "3"))
	assert.Nil(t, d)
	assert.ErrorIs(t, err, common.ErrInternal)
}

func TestVault_Commit(t *testing.T) {
	h := newHarness(t, defaultOpts, time.Minute, nil)
	ctx := context.Background()

	c, err := h.svc.Commit(ctx, []byte{0x05})
	require.NoError(t, err)
	assert.Equal(t, "12", c)

	_, err = h.svc.Commit(ctx, nil)
	assert.ErrorIs(t, err, common.ErrInvalidSecret)

	tooBig := new(big.Int).Add(zk.FieldModulus, big.NewInt(1)).Bytes()
	_, err = h.svc.Commit(ctx, tooBig)
	assert.ErrorIs(t, err, common.ErrInvalidSecret)
}
