package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/server/sanitize"
)

// FSBackend keeps one file per artifact, named <id><ext>, in a single
// directory. Writes go through a temporary file that is padded, synced and
// renamed into place; the final file's timestamps are reset to the epoch.
type FSBackend struct {
	dir string
}

const tmpPattern = ".tmp-*"

// NewFSBackend creates dir if needed and removes temporary files left by an
// interrupted write.
func NewFSBackend(dir string) (*FSBackend, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStorageIO, err)
	}

	stale, err := filepath.Glob(filepath.Join(dir, tmpPattern))
	if err != nil {
		return nil, err
	}
	for _, p := range stale {
		_ = os.Remove(p)
	}

	return &FSBackend{dir: dir}, nil
}

func (b *FSBackend) path(id string, kind Kind) string {
	return filepath.Join(b.dir, id+kind.Ext())
}

func (b *FSBackend) Write(_ context.Context, id string, kind Kind, data []byte) (err error) {
	tmp, err := os.CreateTemp(b.dir, tmpPattern)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorageIO, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", common.ErrStorageIO, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorageIO, err)
	}

	if kind == KeyMaterial {
		err = sanitize.PadToExact(tmpPath, PaddedSize(kind, int64(len(data))))
	} else {
		_, err = sanitize.PadToBucket(tmpPath)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorageIO, err)
	}

	if err = syncFile(tmpPath); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorageIO, err)
	}

	final := b.path(id, kind)
	if err = os.Rename(tmpPath, final); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorageIO, err)
	}

	if err = sanitize.SanitizeTimestamps(final); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorageIO, err)
	}
	return nil
}

func syncFile(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (b *FSBackend) Read(_ context.Context, id string, kind Kind) ([]byte, error) {
	data, err := os.ReadFile(b.path(id, kind))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", common.ErrStorageIO, err)
	}
	return data, nil
}

func (b *FSBackend) Delete(_ context.Context, id string, kind Kind) error {
	err := os.Remove(b.path(id, kind))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", common.ErrStorageIO, err)
	}
	return nil
}

func (b *FSBackend) Close() error { return nil }
