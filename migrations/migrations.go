// Package migrations embeds the schema of every SQL backend.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed postgres/*.sql
var postgresFS embed.FS

//go:embed sqlite/*.sql
var sqliteFS embed.FS

// Postgres returns the Postgres migrations rooted at the migration files.
func Postgres() fs.FS {
	sub, _ := fs.Sub(postgresFS, "postgres")
	return sub
}

// SQLite returns the SQLite migrations rooted at the migration files.
func SQLite() fs.FS {
	sub, _ := fs.Sub(sqliteFS, "sqlite")
	return sub
}
