package models

import "time"

// ExpirationRecord is the lifecycle policy of one stored object. FileID is
// the object's commitment.
type ExpirationRecord struct {
	FileID           string
	ExpiresAt        time.Time
	DeleteOnDownload bool
}

// Expired reports whether the record is past its deadline at now. There is
// no persisted expired state; callers evaluate it on every lookup.
func (r *ExpirationRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
