// Package migrations embeds the SQL schema files into the binary so
// Warden can run migrations without shipping loose .sql files alongside
// the executable.
package migrations

import (
	"embed"

	"github.com/wardenmq/warden-core/internal/infrastructure/database"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "sql"
}
