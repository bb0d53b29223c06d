package migrations_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/migrate"

	"github.com/terraconstructs/authgate/internal/db/bunx"
	"github.com/terraconstructs/authgate/internal/db/models"
	"github.com/terraconstructs/authgate/internal/migrations"
)

func TestMigrations_SeedAndRollback(t *testing.T) {
	ctx := context.Background()
	db, err := bunx.NewDB("sqlite://"+filepath.Join(t.TempDir(), "migrate.db"), 0)
	require.NoError(t, err)
	defer bunx.Close(db)

	assert.True(t, migrations.IsSQLite(db))
	assert.False(t, migrations.IsPostgreSQL(db))

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	require.NoError(t, migrator.Init(ctx))

	group, err := migrator.Migrate(ctx)
	require.NoError(t, err)
	require.NotZero(t, group.ID)

	users, err := db.NewSelect().Model((*models.User)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, users)

	var codes []string
	require.NoError(t, db.NewSelect().Model((*models.Role)(nil)).Column("role_code").Order("role_code ASC").Scan(ctx, &codes))
	assert.Equal(t, []string{migrations.RoleAdmin, migrations.RoleUser}, codes)

	assignments, err := db.NewSelect().Model((*models.UserRole)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, assignments)

	// Nothing left to apply.
	again, err := migrator.Migrate(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.ID)

	rolled, err := migrator.Rollback(ctx)
	require.NoError(t, err)
	assert.Equal(t, group.ID, rolled.ID)

	_, err = db.NewSelect().Model((*models.User)(nil)).Count(ctx)
	assert.Error(t, err, "users table should be gone after rollback")

	// Re-applying after a rollback recreates the schema and seed.
	_, err = migrator.Migrate(ctx)
	require.NoError(t, err)
	users, err = db.NewSelect().Model((*models.User)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, users)
}
