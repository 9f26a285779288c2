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

// ReadEmbeddedMigration exposes embedded migration content for tests.
func ReadEmbeddedMigration(name string) (string, error) {
	b, err := migrationFS.ReadFile("migrations/" + name)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// renderMigrations writes the embedded migrations with the table name filled in to dir.
func renderMigrations(dir, fullTable string) error {
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
		if err := os.WriteFile(filepath.Join(dir, e.Name()), []byte(content), 0o600); err != nil {
			return err
		}
	}
	return nil
}

// versionTable is where goose tracks the forward table schema version.
const versionTable = "cargobuild_forward_version"

// prepareGoose sets every goose package setting the migration depends on, so
// the outcome does not hinge on what the journal configured earlier.
func prepareGoose() error {
	// the rendered files live on disk, not in an embedded FS
	goose.SetBaseFS(nil)
	goose.SetTableName(versionTable)
	return goose.SetDialect("clickhouse")
}

// runMigrations injects the configured table into embedded SQL and applies it via goose.
func runMigrations(opts *ch.Options, fullTable string) error {
	db := ch.OpenDB(opts)
	defer func() { _ = db.Close() }()
	if err := db.Ping(); err != nil {
		return err
	}
	if err := prepareGoose(); err != nil {
		return err
	}
	tmpDir, err := os.MkdirTemp("", "cargobuild_ch_mig_*")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()
	if err := renderMigrations(tmpDir, fullTable); err != nil {
		return err
	}
	if err := goose.Up(db, tmpDir); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}
	return nil
}
