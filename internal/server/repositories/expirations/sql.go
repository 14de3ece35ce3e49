package expirations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/dbx"
	"github.com/dmitrijs2005/zkvault/internal/server/models"
)

// SQLRepository works on SQLite and PostgreSQL; queries are written with ?
// placeholders and rebound for the dialect.
type SQLRepository struct {
	db      dbx.DBTX
	dialect string
}

func NewSQLRepository(db dbx.DBTX, dialect string) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) q(query string) string {
	return dbx.Rebind(r.dialect, query)
}

func (r *SQLRepository) Upsert(ctx context.Context, rec *models.ExpirationRecord) error {
	query :=
		`INSERT INTO expirations (file_id, expires_at, delete_on_download)
		 VALUES (?, ?, ?)
		 ON CONFLICT (file_id) DO UPDATE
		 SET expires_at = excluded.expires_at, delete_on_download = excluded.delete_on_download`

	_, err := r.db.ExecContext(ctx, r.q(query), rec.FileID, rec.ExpiresAt.Unix(), rec.DeleteOnDownload)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Get(ctx context.Context, id string) (*models.ExpirationRecord, error) {
	query :=
		`SELECT file_id, expires_at, delete_on_download FROM expirations
		 WHERE file_id = ?`

	var (
		rec       models.ExpirationRecord
		expiresAt int64
	)
	err := r.db.QueryRowContext(ctx, r.q(query), id).Scan(&rec.FileID, &expiresAt, &rec.DeleteOnDownload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	rec.ExpiresAt = time.Unix(expiresAt, 0)
	return &rec, nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM expirations WHERE file_id = ?`), id)
	return affected(res, err)
}

func (r *SQLRepository) DeleteIfExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	query := `DELETE FROM expirations WHERE file_id = ? AND expires_at <= ?`
	res, err := r.db.ExecContext(ctx, r.q(query), id, now.Unix())
	return affected(res, err)
}

func (r *SQLRepository) ListExpired(ctx context.Context, now time.Time) ([]string, error) {
	query :=
		`SELECT file_id FROM expirations
		 WHERE expires_at <= ?
		 ORDER BY expires_at`

	rows, err := r.db.QueryContext(ctx, r.q(query), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ids, nil
}

func affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}
