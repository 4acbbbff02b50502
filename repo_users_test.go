package auth_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	auth "github.com/goliatone/go-mediaauth"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	group, err := auth.Migrate(context.Background(), db)
	require.NoError(t, err)
	require.NotNil(t, group)

	return db
}

func TestUsersRepositoryInsertAndFind(t *testing.T) {
	db := setupTestDB(t)
	users := auth.NewUsersRepository(db)
	ctx := context.Background()

	created, err := users.Insert(ctx, "a@x.com", "hash")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", created.Email)
	assert.False(t, created.Confirmed)

	found, err := users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "hash", found.PasswordHash)
}

func TestUsersRepositoryUnknownEmail(t *testing.T) {
	users := auth.NewUsersRepository(setupTestDB(t))

	_, err := users.FindByEmail(context.Background(), "nobody@x.com")
	assertKind(t, err, auth.TextCodeUserNotFound)
	assert.True(t, auth.IsUserNotFound(err))

	err = users.MarkConfirmed(context.Background(), "nobody@x.com")
	assert.True(t, auth.IsUserNotFound(err))
}

func TestUsersRepositoryDuplicateEmail(t *testing.T) {
	users := auth.NewUsersRepository(setupTestDB(t))
	ctx := context.Background()

	_, err := users.Insert(ctx, "a@x.com", "hash")
	require.NoError(t, err)

	_, err = users.Insert(ctx, "a@x.com", "other")
	assertKind(t, err, auth.TextCodeUserExists)
}

func TestUsersRepositoryInsertRejectsEmpty(t *testing.T) {
	users := auth.NewUsersRepository(setupTestDB(t))

	_, err := users.Insert(context.Background(), "", "hash")
	assertKind(t, err, auth.TextCodeEmptyCredential)
}

func TestUsersRepositoryMarkConfirmedIsIdempotent(t *testing.T) {
	stamp := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	users := auth.NewUsersRepository(setupTestDB(t), auth.WithUsersClock(func() time.Time { return stamp }))
	ctx := context.Background()

	_, err := users.Insert(ctx, "a@x.com", "hash")
	require.NoError(t, err)

	require.NoError(t, users.MarkConfirmed(ctx, "a@x.com"))
	require.NoError(t, users.MarkConfirmed(ctx, "a@x.com"))

	found, err := users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, found.Confirmed)
}

func TestUsersRepositoryHashidIDs(t *testing.T) {
	users := auth.NewUsersRepository(setupTestDB(t), auth.WithHashidUserIDs())

	created, err := users.Insert(context.Background(), "a@x.com", "hash")
	require.NoError(t, err)

	expected, err := hashid.NewUUID("a@x.com")
	require.NoError(t, err)
	assert.Equal(t, expected, created.ID)
}

func TestUsersRepositoryInTransaction(t *testing.T) {
	db := setupTestDB(t)
	manager := auth.NewRepositoryManager(db)
	require.NoError(t, manager.Validate())
	ctx := context.Background()

	err := manager.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := manager.Users().InsertTx(ctx, tx, "a@x.com", "hash"); err != nil {
			return err
		}
		return manager.Users().MarkConfirmedTx(ctx, tx, "a@x.com")
	})
	require.NoError(t, err)

	found, err := manager.Users().FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, found.Confirmed)

	err = manager.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := manager.Users().InsertTx(ctx, tx, "b@x.com", "hash"); err != nil {
			return err
		}
		return auth.ErrUserVanished
	})
	require.Error(t, err)

	_, err = manager.Users().FindByEmail(ctx, "b@x.com")
	assert.True(t, auth.IsUserNotFound(err), "rolled back insert is not visible")
}

func TestRepositoryManagerValidate(t *testing.T) {
	manager := auth.NewRepositoryManager(nil)
	assert.Error(t, manager.Validate())
	assert.Panics(t, manager.MustValidate)

	manager = auth.NewRepositoryManager(setupTestDB(t))
	assert.NotPanics(t, manager.MustValidate)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := manager.RunInTx(ctx, nil, func(context.Context, bun.Tx) error {
		t.Fatal("must not run with a cancelled context")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMigrateIsRepeatable(t *testing.T) {
	db := setupTestDB(t)

	group, err := auth.Migrate(context.Background(), db)
	require.NoError(t, err)
	assert.True(t, group.IsZero(), "nothing left to apply")
}
