// Package expirations declares and implements the expiry-policy repository:
// one row per stored object holding its deadline and consume-once flag.
package expirations

import (
	"context"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/server/models"
)

// Repository stores ExpirationRecords keyed by file id.
type Repository interface {
	// Upsert inserts rec or replaces the existing row for rec.FileID.
	Upsert(ctx context.Context, rec *models.ExpirationRecord) error

	// Get returns the record for id, or common.ErrNotFound.
	Get(ctx context.Context, id string) (*models.ExpirationRecord, error)

	// Delete removes the row for id and reports whether one existed.
	Delete(ctx context.Context, id string) (bool, error)

	// DeleteIfExpired removes the row only if it expired at or before now.
	DeleteIfExpired(ctx context.Context, id string, now time.Time) (bool, error)

	// ListExpired returns the ids whose deadline is at or before now.
	ListExpired(ctx context.Context, now time.Time) ([]string, error)
}
