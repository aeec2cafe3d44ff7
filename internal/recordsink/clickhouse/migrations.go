package clickhouse

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// runMigrations injects the configured table name into the embedded SQL
// and applies it via goose against a plain database/sql connection.
func runMigrations(opts *ch.Options, database, table string) error {
	db := ch.OpenDB(opts)
	defer func() { _ = db.Close() }()
	if err := db.Ping(); err != nil {
		return err
	}
	if err := goose.SetDialect("clickhouse"); err != nil {
		return err
	}

	tmpDir, err := os.MkdirTemp("", "linescan_ch_mig_*")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	fullTable := table
	if database != "" && !strings.Contains(fullTable, ".") {
		fullTable = database + "." + table
	}

	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		b, err := migrationFS.ReadFile("migrations/" + e.Name())
		if err != nil {
			return err
		}
		content := strings.ReplaceAll(string(b), "__TABLE_FULL__", fullTable)
		if err := os.WriteFile(filepath.Join(tmpDir, e.Name()), []byte(content), 0o600); err != nil {
			return err
		}
	}
	if err := goose.Up(db, tmpDir); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}
	return nil
}
