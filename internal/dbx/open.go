package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect names as understood by goose.
const (
	DialectSQLite   = "sqlite3"
	DialectPostgres = "postgres"
)

// Target describes which driver a DSN resolves to.
type Target struct {
	Driver  string
	Dialect string
	DSN     string
}

// sqlitePragmas make concurrent writers wait on the engine's lock instead of
// failing with SQLITE_BUSY.
var sqlitePragmas = []string{
	"_pragma=busy_timeout(5000)",
	"_pragma=journal_mode(WAL)",
	"_pragma=foreign_keys(1)",
}

// Resolve maps a DSN to a driver. postgres:// and postgresql:// URLs use pgx;
// everything else is treated as a SQLite path or file: URI.
func Resolve(dsn string) (Target, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return Target{}, fmt.Errorf("empty database DSN")
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return Target{Driver: "pgx", Dialect: DialectPostgres, DSN: dsn}, nil
	}

	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	if !strings.Contains(dsn, "mode=memory") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + strings.Join(sqlitePragmas, "&")
	}
	return Target{Driver: "sqlite", Dialect: DialectSQLite, DSN: dsn}, nil
}

// sqliteFilePath extracts the on-disk path of a file: URI, or "" for
// in-memory databases.
func sqliteFilePath(dsn string) string {
	if strings.Contains(dsn, "mode=memory") {
		return ""
	}
	p := strings.TrimPrefix(dsn, "file:")
	if i := strings.Index(p, "?"); i >= 0 {
		p = p[:i]
	}
	if p == "" || p == ":memory:" {
		return ""
	}
	return p
}

// Open resolves dsn, prepares the parent directory of a SQLite file, opens the
// pool and pings it.
func Open(ctx context.Context, dsn string) (*sql.DB, Target, error) {
	target, err := Resolve(dsn)
	if err != nil {
		return nil, Target{}, err
	}

	if target.Driver == "sqlite" {
		if p := sqliteFilePath(target.DSN); p != "" {
			if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
				return nil, Target{}, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open(target.Driver, target.DSN)
	if err != nil {
		return nil, Target{}, fmt.Errorf("open %s: %w", target.Driver, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, Target{}, fmt.Errorf("ping %s: %w", target.Driver, err)
	}

	return db, target, nil
}
