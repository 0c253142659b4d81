// AngelaMos | 2026
// database_test.go

package core_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/curator-backend/internal/core"
	"github.com/carterperez-dev/curator-backend/internal/testutil"
)

func TestMigrate_IsIdempotent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	before := testutil.Count(t, db, `SELECT COUNT(*) FROM schema_migrations`)
	require.Positive(t, before)

	require.NoError(t, core.Migrate(ctx, db))

	assert.Equal(t, before, testutil.Count(t, db, `SELECT COUNT(*) FROM schema_migrations`))
}

func TestMigrateFS_FailedFileIsNotRecorded(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	migrations := fstest.MapFS{
		"900_widgets.up.sql":   {Data: []byte(`CREATE TABLE widgets (id TEXT PRIMARY KEY)`)},
		"900_widgets.down.sql": {Data: []byte(`DROP TABLE widgets`)},
		"901_broken.up.sql":    {Data: []byte(`CREATE TABLE nope (`)},
	}

	err := core.MigrateFS(ctx, db, migrations)
	require.Error(t, err)
	assert.ErrorContains(t, err, "901_broken.up.sql")

	assert.Equal(t, 1, testutil.Count(t, db,
		`SELECT COUNT(*) FROM schema_migrations WHERE name = ?`, "900_widgets.up.sql"))
	assert.Equal(t, 0, testutil.Count(t, db,
		`SELECT COUNT(*) FROM schema_migrations WHERE name = ?`, "901_broken.up.sql"))
	assert.Equal(t, 0, testutil.Count(t, db,
		`SELECT COUNT(*) FROM schema_migrations WHERE name LIKE '%down%'`))
}

func TestInTx(t *testing.T) {
	insert := func(ctx context.Context, tx *sqlx.Tx, email string) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO users (id, email, password_hash, name, role, created_at, updated_at)
			VALUES (?, ?, 'x', 'n', 'curator', 0, 0)`), email, email)
		return err
	}

	t.Run("commit", func(t *testing.T) {
		db := testutil.NewSQLiteDB(t)
		ctx := context.Background()

		err := core.InTx(ctx, db, func(tx *sqlx.Tx) error {
			return insert(ctx, tx, "a@example.com")
		})
		require.NoError(t, err)
		assert.Equal(t, 1, testutil.Count(t, db, `SELECT COUNT(*) FROM users`))
	})

	t.Run("error rolls back", func(t *testing.T) {
		db := testutil.NewSQLiteDB(t)
		ctx := context.Background()
		boom := errors.New("boom")

		err := core.InTx(ctx, db, func(tx *sqlx.Tx) error {
			if err := insert(ctx, tx, "a@example.com"); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, testutil.Count(t, db, `SELECT COUNT(*) FROM users`))
	})

	t.Run("panic rolls back and repanics", func(t *testing.T) {
		db := testutil.NewSQLiteDB(t)
		ctx := context.Background()

		assert.PanicsWithValue(t, "kaboom", func() {
			_ = core.InTx(ctx, db, func(tx *sqlx.Tx) error {
				if err := insert(ctx, tx, "a@example.com"); err != nil {
					return err
				}
				panic("kaboom")
			})
		})
		assert.Equal(t, 0, testutil.Count(t, db, `SELECT COUNT(*) FROM users`))
	})
}

func TestConditionalUpdates(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	id := testutil.SeedUser(t, db, "a@example.com", "curator")

	update := db.Rebind(`UPDATE users SET role = ? WHERE id = ? AND role = ?`)

	result, err := db.ExecContext(ctx, update, "admin", id, "curator")
	require.NoError(t, err)
	assert.NoError(t, core.SwapApplied(result, "promote"))

	result, err = db.ExecContext(ctx, update, "admin", id, "curator")
	require.NoError(t, err)
	assert.ErrorIs(t, core.SwapApplied(result, "promote"), core.ErrStaleState)
	assert.ErrorIs(t, core.RowsAffected(result, "promote"), core.ErrNotFound)
}

func TestIsDuplicateKeyError(t *testing.T) {
	testutil.EachDriver(t, func(t *testing.T, db *sqlx.DB) {
		testutil.SeedUser(t, db, "dup@example.com", "curator")

		_, err := db.ExecContext(context.Background(), db.Rebind(`
			INSERT INTO users (id, email, password_hash, name, role, created_at, updated_at)
			VALUES ('other', ?, 'x', 'n', 'curator', 0, 0)`), "dup@example.com")
		require.Error(t, err)
		assert.True(t, core.IsDuplicateKeyError(err))

		assert.False(t, core.IsDuplicateKeyError(errors.New("duplicate")))
	})
}
