// Package dbtest opens throwaway SQLite databases with every migration applied,
// for tests that exercise the bun repositories.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"github.com/terraconstructs/authgate/internal/db/bunx"
	"github.com/terraconstructs/authgate/internal/migrations"
)

// NewSQLite returns a migrated SQLite database in a temporary directory. The
// seed migration runs too, so the USER and ADMIN roles and the apiuser and
// admin accounts exist. The database is closed when the test ends.
func NewSQLite(tb testing.TB) *bun.DB {
	tb.Helper()

	db, err := bunx.NewDB("sqlite://"+filepath.Join(tb.TempDir(), "authgate.db"), 0)
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	tb.Cleanup(func() { _ = bunx.Close(db) })

	ctx := context.Background()
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		tb.Fatalf("init migrations: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		tb.Fatalf("apply migrations: %v", err)
	}
	return db
}
