package postgres

import "embed"

// MigrationsFS holds the embedded SQL migrations so the binary can bring a
// fresh database up to the current schema without shipping files alongside it.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS

// MigrationsDir is the path of the migration files inside MigrationsFS.
const MigrationsDir = "migrations"
