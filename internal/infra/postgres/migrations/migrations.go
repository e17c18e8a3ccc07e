package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema changes applied by `migrate` and on server start.
var Migrations = migrate.NewMigrations()
