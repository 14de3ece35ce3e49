package storage

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/logging"
	"github.com/dmitrijs2005/zkvault/internal/server/models"
)

// Backend persists opaque artifacts. Write replaces atomically and pads to
// PaddedSize; Read returns common.ErrNotFound for a missing artifact; Delete
// of a missing artifact is not an error.
type Backend interface {
	Write(ctx context.Context, id string, kind Kind, data []byte) error
	Read(ctx context.Context, id string, kind Kind) ([]byte, error)
	Delete(ctx context.Context, id string, kind Kind) error
	Close() error
}

// maxIDLen fits any BN254 field element in decimal.
const maxIDLen = 78

// ValidID reports whether id is a decimal commitment string. Only such ids
// ever reach a backend, so they are safe as file names and object keys.
func ValidID(id string) bool {
	if id == "" || len(id) > maxIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}

// lockStripes is the number of per-id lock stripes. Ids sharing a stripe
// only serialize against each other.
const lockStripes = 64

type Store struct {
	backend Backend
	log     logging.Logger
	locks   [lockStripes]sync.RWMutex
}

func NewStore(b Backend, log logging.Logger) *Store {
	return &Store{backend: b, log: log.With("module", "storage")}
}

// lock returns the stripe guarding id. Put and Delete hold it exclusively,
// Get shared, so a reader never sees the artifacts of two different writes.
func (s *Store) lock(id string) *sync.RWMutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &s.locks[h.Sum32()%lockStripes]
}

func checkID(id string) error {
	if !ValidID(id) {
		return fmt.Errorf("%w: invalid object id", common.ErrValidation)
	}
	return nil
}

// Put writes both artifacts of obj, replacing any earlier pair. If the second
// write fails the first is removed again, so a failed Put leaves nothing
// behind.
func (s *Store) Put(ctx context.Context, obj *models.EncryptedObject) error {
	if err := checkID(obj.ID); err != nil {
		return err
	}

	mu := s.lock(obj.ID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.backend.Write(ctx, obj.ID, KeyMaterial, frame(obj.KeyMaterial)); err != nil {
		return fmt.Errorf("write %s: %w", KeyMaterial, err)
	}
	if err := s.backend.Write(ctx, obj.ID, Ciphertext, frame(obj.Ciphertext)); err != nil {
		if derr := s.backend.Delete(ctx, obj.ID, KeyMaterial); derr != nil {
			s.log.Error(ctx, "rollback of key material failed", "file_id", obj.ID, "error", derr.Error())
		}
		return fmt.Errorf("write %s: %w", Ciphertext, err)
	}
	return nil
}

// Get returns both artifacts of id, or common.ErrNotFound if either is
// missing.
func (s *Store) Get(ctx context.Context, id string) (*models.EncryptedObject, error) {
	if err := checkID(id); err != nil {
		return nil, common.ErrNotFound
	}

	mu := s.lock(id)
	mu.RLock()
	defer mu.RUnlock()

	obj := &models.EncryptedObject{ID: id}
	for _, k := range kinds {
		raw, err := s.backend.Read(ctx, id, k)
		if err != nil {
			return nil, err
		}
		body, err := unframe(raw)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", k, err)
		}
		switch k {
		case Ciphertext:
			obj.Ciphertext = body
		case KeyMaterial:
			obj.KeyMaterial = body
		}
	}
	return obj, nil
}

// Delete removes every artifact of id. Deleting an unknown id succeeds.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}

	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	var errs []error
	for _, k := range kinds {
		if err := s.backend.Delete(ctx, id, k); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Store) Close() error {
	return s.backend.Close()
}
