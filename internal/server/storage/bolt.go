package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/dmitrijs2005/zkvault/internal/common"
)

// BoltBackend keeps artifacts in a single bbolt file with one bucket per
// kind. Values are padded before they are stored.
type BoltBackend struct {
	db *bbolt.DB
}

func NewBoltBackend(path string) (*BoltBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStorageIO, err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: open bolt: %w", common.ErrStorageIO, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, k := range kinds {
			if _, err := tx.CreateBucketIfNotExists(bucketName(k)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create buckets: %w", common.ErrStorageIO, err)
	}

	return &BoltBackend{db: db}, nil
}

func bucketName(k Kind) []byte {
	return []byte(k.String())
}

func (b *BoltBackend) Write(_ context.Context, id string, kind Kind, data []byte) error {
	padded := padBytes(kind, data)
	err := b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName(kind)).Put([]byte(id), padded)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorageIO, err)
	}
	return nil
}

func (b *BoltBackend) Read(_ context.Context, id string, kind Kind) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName(kind)).Get([]byte(id))
		if v == nil {
			return common.ErrNotFound
		}
		// v is only valid inside the transaction
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", common.ErrStorageIO, err)
	}
	return out, nil
}

func (b *BoltBackend) Delete(_ context.Context, id string, kind Kind) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName(kind)).Delete([]byte(id))
	})
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorageIO, err)
	}
	return nil
}

func (b *BoltBackend) Close() error {
	return b.db.Close()
}
