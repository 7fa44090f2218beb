package postgres

import "embed"

// MigrationsFS embeds the goose migration files so the server binary can
// migrate the schema without a copy of the source tree on disk.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
