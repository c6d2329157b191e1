// Package migrations embeds the digest audit log schema. The files are applied
// in order by database.ApplyMigrations on startup.
package migrations

import "embed"

// FS holds the *.up.sql and *.down.sql files.
//
//go:embed *.sql
var FS embed.FS
