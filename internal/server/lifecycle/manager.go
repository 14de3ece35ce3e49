// Package lifecycle owns the expiry and consume-once policies of stored
// objects: registration at upload, lookup at download, deferred deletion
// after a consuming download and the periodic sweep of expired objects.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/logging"
	"github.com/dmitrijs2005/zkvault/internal/server/models"
	"github.com/dmitrijs2005/zkvault/internal/server/repositories/expirations"
)

// ObjectDeleter removes every stored artifact of an id. Deleting an unknown
// id must succeed.
type ObjectDeleter interface {
	Delete(ctx context.Context, id string) error
}

type Options struct {
	// DefaultTTL replaces requested lifetimes that are zero or negative.
	DefaultTTL time.Duration
	// DeleteGrace is how long a consumed object stays after its download.
	DeleteGrace time.Duration
}

type Manager struct {
	repo      expirations.Repository
	objects   ObjectDeleter
	opts      Options
	scheduler *Scheduler
	now       func() time.Time
	log       logging.Logger
}

func NewManager(repo expirations.Repository, objects ObjectDeleter, opts Options, log logging.Logger) *Manager {
	m := &Manager{
		repo:    repo,
		objects: objects,
		opts:    opts,
		now:     time.Now,
		log:     log.With("module", "lifecycle"),
	}
	m.scheduler = NewScheduler(opts.DeleteGrace, m.Purge, m.log)
	return m
}

// Register records the policy for id, replacing any earlier one, and
// cancels a deletion still pending from a previous consuming download.
func (m *Manager) Register(ctx context.Context, id string, ttl time.Duration, deleteOnDownload bool) (*models.ExpirationRecord, error) {
	if ttl <= 0 {
		ttl = m.opts.DefaultTTL
	}

	rec := &models.ExpirationRecord{
		FileID:           id,
		ExpiresAt:        m.now().Add(ttl).Truncate(time.Second),
		DeleteOnDownload: deleteOnDownload,
	}

	if m.scheduler.Cancel(id) {
		m.log.Info(ctx, "pending deletion cancelled by re-upload", "file_id", id)
	}

	if err := m.repo.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("%w: register %s: %w", common.ErrStorageIO, id, err)
	}
	return rec, nil
}

// Unregister drops the record for id. Used to roll back a failed upload.
func (m *Manager) Unregister(ctx context.Context, id string) error {
	if _, err := m.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: unregister %s: %w", common.ErrStorageIO, id, err)
	}
	return nil
}

// Lookup returns the live record for id. An absent or expired record is
// common.ErrNotFound.
func (m *Manager) Lookup(ctx context.Context, id string) (*models.ExpirationRecord, error) {
	rec, err := m.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: lookup %s: %w", common.ErrStorageIO, id, err)
	}
	if rec.Expired(m.now()) {
		return nil, common.ErrNotFound
	}
	return rec, nil
}

// ScheduleDeletion arms the consume-once deletion of id after the grace
// delay. It does not wait.
func (m *Manager) ScheduleDeletion(ctx context.Context, id string) {
	if !m.scheduler.Schedule(id) {
		m.log.Warn(ctx, "deletion not scheduled, shutting down", "file_id", id)
		return
	}
	m.log.Info(ctx, "deletion scheduled", "file_id", id, "grace", m.opts.DeleteGrace.String())
}

// PendingDeletions is the number of armed consume-once deletions.
func (m *Manager) PendingDeletions() int {
	return m.scheduler.Pending()
}

// Purge removes the record and the artifacts of id. The record goes first:
// without it the object is unreachable even if artifact removal fails.
func (m *Manager) Purge(ctx context.Context, id string) error {
	if _, err := m.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: purge record %s: %w", common.ErrStorageIO, id, err)
	}
	if err := m.objects.Delete(ctx, id); err != nil {
		return fmt.Errorf("purge artifacts %s: %w", id, err)
	}
	return nil
}

// Sweep deletes every object whose deadline has passed and returns how many
// it removed. Each id is claimed with a conditional delete, so an id that
// vanished or was re-registered since the listing is skipped.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	now := m.now()

	ids, err := m.repo.ListExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("%w: list expired: %w", common.ErrStorageIO, err)
	}

	deleted := 0
	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		claimed, err := m.repo.DeleteIfExpired(ctx, id, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("claim %s: %w", id, err))
			continue
		}
		if !claimed {
			continue
		}

		if err := m.objects.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("delete artifacts %s: %w", id, err))
			continue
		}
		deleted++
	}

	if len(ids) > 0 {
		m.log.Info(ctx, "sweep finished", "expired", len(ids), "deleted", deleted)
	}
	if len(errs) > 0 {
		return deleted, fmt.Errorf("%w: %w", common.ErrStorageIO, errors.Join(errs...))
	}
	return deleted, nil
}

// Close runs pending consume-once deletions and waits for them.
func (m *Manager) Close(ctx context.Context) error {
	return m.scheduler.Close(ctx)
}
