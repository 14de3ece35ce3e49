package services

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/logging"
	"github.com/dmitrijs2005/zkvault/internal/server/models"
	"github.com/dmitrijs2005/zkvault/internal/zk"
)

type proofGateway interface {
	Verify(ctx context.Context, b *zk.Bundle) (zk.Verdict, error)
	Commit(ctx context.Context, secret *big.Int) (string, error)
}

type sealer interface {
	Seal(id string, payload []byte) (ciphertext, wrappedKey []byte, err error)
	Open(id string, ciphertext, wrappedKey []byte) ([]byte, error)
}

type objectStore interface {
	Put(ctx context.Context, obj *models.EncryptedObject) error
	Get(ctx context.Context, id string) (*models.EncryptedObject, error)
	Delete(ctx context.Context, id string) error
}

type lifecycleManager interface {
	Register(ctx context.Context, id string, ttl time.Duration, deleteOnDownload bool) (*models.ExpirationRecord, error)
	Unregister(ctx context.Context, id string) error
	Lookup(ctx context.Context, id string) (*models.ExpirationRecord, error)
	ScheduleDeletion(ctx context.Context, id string)
}

type VaultOptions struct {
	// MaxContentLength bounds the summed size of all parts, in bytes.
	MaxContentLength int64
	MaxFileCount     int
	// VerifyUploadProof makes uploads prove knowledge of the secret behind
	// the id they write to.
	VerifyUploadProof bool
}

// VaultService is the access controller: it runs uploads and downloads
// through validation, proof checking, encryption, storage and lifecycle.
type VaultService struct {
	gateway   proofGateway
	crypto    sealer
	store     objectStore
	lifecycle lifecycleManager
	opts      VaultOptions
	log       logging.Logger
}

func NewVaultService(g proofGateway, c sealer, s objectStore, l lifecycleManager, opts VaultOptions, log logging.Logger) *VaultService {
	return &VaultService{
		gateway:   g,
		crypto:    c,
		store:     s,
		lifecycle: l,
		opts:      opts,
		log:       log.With("module", "vault"),
	}
}

// Part is one uploaded file. Name is only used to reject empty selections
// and never stored.
type Part struct {
	Name string
	Data []byte
}

type UploadRequest struct {
	Parts []Part
	// Proof names the target id in Public[0]. It may be nil only when upload
	// proofs are not enforced and Secret is set.
	Proof *zk.Bundle
	// Secret is the caller's secret as big-endian bytes. Optional.
	Secret              []byte
	TTL                 time.Duration
	DeleteAfterDownload bool
}

// Upload stores the request's payload under its commitment and returns the
// id. The expiry record is written before the artifacts; if storing fails
// the record is removed again.
func (s *VaultService) Upload(ctx context.Context, req *UploadRequest) (string, error) {
	payload, err := s.payload(req.Parts)
	if err != nil {
		return "", err
	}

	id, err := s.resolveID(ctx, req)
	if err != nil {
		return "", err
	}

	ciphertext, wrapped, err := s.crypto.Seal(id, payload)
	if err != nil {
		return "", fmt.Errorf("%w: seal: %w", common.ErrInternal, err)
	}

	if _, err := s.lifecycle.Register(ctx, id, req.TTL, req.DeleteAfterDownload); err != nil {
		return "", err
	}

	obj := &models.EncryptedObject{ID: id, Ciphertext: ciphertext, KeyMaterial: wrapped}
	if err := s.store.Put(ctx, obj); err != nil {
		if uerr := s.lifecycle.Unregister(ctx, id); uerr != nil {
			s.log.Error(ctx, "rollback of expiry record failed", "file_id", id, "error", uerr.Error())
		}
		return "", fmt.Errorf("%w: store: %w", common.ErrStorageIO, err)
	}

	s.log.Info(ctx, "object stored",
		"file_id", id,
		"parts", len(req.Parts),
		"delete_on_download", req.DeleteAfterDownload,
	)
	return id, nil
}

// payload checks the part limits and returns the bytes to seal: a single
// part as is, several parts bundled into one zip container.
func (s *VaultService) payload(parts []Part) ([]byte, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: no file provided", common.ErrValidation)
	}
	if s.opts.MaxFileCount > 0 && len(parts) > s.opts.MaxFileCount {
		return nil, fmt.Errorf("%w: too many files, maximum allowed is %d", common.ErrValidation, s.opts.MaxFileCount)
	}

	var total int64
	named := false
	for _, p := range parts {
		total += int64(len(p.Data))
		if p.Name != "" {
			named = true
		}
	}
	if !named {
		return nil, fmt.Errorf("%w: no valid files selected", common.ErrValidation)
	}
	if s.opts.MaxContentLength > 0 && total > s.opts.MaxContentLength {
		return nil, common.ErrPayloadTooLarge
	}

	if len(parts) == 1 {
		return parts[0].Data, nil
	}
	return bundle(parts)
}

// bundle packs parts into a stored (uncompressed) zip with neutral entry
// names and zero timestamps.
func bundle(parts []Part) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, p := range parts {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   fmt.Sprintf("part-%03d", i),
			Method: zip.Store,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: bundle: %w", common.ErrInternal, err)
		}
		if _, err := w.Write(p.Data); err != nil {
			return nil, fmt.Errorf("%w: bundle: %w", common.ErrInternal, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: bundle: %w", common.ErrInternal, err)
	}
	return buf.Bytes(), nil
}

// resolveID picks the id an upload writes to. With a proof it is public[0],
// verified first when upload proofs are enforced; without one the id is the
// commitment of the supplied secret.
func (s *VaultService) resolveID(ctx context.Context, req *UploadRequest) (string, error) {
	if req.Proof != nil {
		if !s.opts.VerifyUploadProof {
			if err := req.Proof.Validate(); err != nil {
				return "", err
			}
			return req.Proof.ObjectID(), nil
		}
		if _, err := s.gateway.Verify(ctx, req.Proof); err != nil {
			return "", err
		}
		return req.Proof.ObjectID(), nil
	}

	if s.opts.VerifyUploadProof {
		return "", fmt.Errorf("%w: missing ZK proof or public input", common.ErrMalformedProof)
	}

	secret, err := zk.SecretFromBytes(req.Secret)
	if err != nil {
		return "", err
	}
	return s.gateway.Commit(ctx, secret)
}

// Download is an authorized retrieval. Payload is what the uploader stored.
// Complete must be called once the payload has been delivered.
type Download struct {
	ID      string
	Payload []byte

	consume  bool
	schedule func(ctx context.Context, id string)
}

// Complete arms the consume-once deletion, if the object has that policy.
// It is safe to call more than once.
func (d *Download) Complete(ctx context.Context) {
	if d == nil || !d.consume {
		return
	}
	d.consume = false
	d.schedule(ctx, d.ID)
}

// Download verifies b and returns the object named by its first public
// input. A rejected proof is common.ErrAuthDenied, a verifier failure
// common.ErrVerifierUnavailable, an absent or expired object
// common.ErrNotFound.
func (s *VaultService) Download(ctx context.Context, b *zk.Bundle) (*Download, error) {
	verdict, err := s.gateway.Verify(ctx, b)
	if err != nil {
		s.log.Info(ctx, "download refused", "verdict", verdict.String())
		return nil, err
	}

	id := b.ObjectID()

	rec, err := s.lifecycle.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	obj, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.log.Warn(ctx, "expiry record without artifacts", "file_id", id)
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", common.ErrStorageIO, err)
	}

	payload, err := s.crypto.Open(id, obj.Ciphertext, obj.KeyMaterial)
	if err != nil {
		s.log.Error(ctx, "stored object failed authentication", "file_id", id)
		return nil, fmt.Errorf("%w: %w", common.ErrInternal, err)
	}

	s.log.Info(ctx, "object served", "file_id", id, "delete_on_download", rec.DeleteOnDownload)
	return &Download{
		ID:       id,
		Payload:  payload,
		consume:  rec.DeleteOnDownload,
		schedule: s.lifecycle.ScheduleDeletion,
	}, nil
}

// Commit returns the commitment of secret, given as big-endian bytes.
func (s *VaultService) Commit(ctx context.Context, secret []byte) (string, error) {
	n, err := zk.SecretFromBytes(secret)
	if err != nil {
		return "", err
	}
	return s.gateway.Commit(ctx, n)
}
