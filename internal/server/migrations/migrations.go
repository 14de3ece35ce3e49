// Package migrations embeds the goose SQL migrations for the metadata store.
// Every migration must run unchanged on both SQLite and PostgreSQL.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
