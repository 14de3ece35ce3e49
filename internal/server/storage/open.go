package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/zkvault/internal/server/config"
)

// OpenBackend builds the backend selected by cfg.StorageBackend.
func OpenBackend(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch strings.ToLower(cfg.StorageBackend) {
	case config.BackendFS, "":
		return NewFSBackend(cfg.UploadDir)
	case config.BackendBolt:
		return NewBoltBackend(cfg.BoltPath)
	case config.BackendS3:
		return NewS3Backend(ctx, S3Options{
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}
