package checkpoint

import (
	"embed"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// initMigrations points goose at the embedded migration set.
func initMigrations() {
	goose.SetBaseFS(migrationFS)
}
