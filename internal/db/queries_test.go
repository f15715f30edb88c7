package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/stocker/internal/errors"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestGetValue_Missing(t *testing.T) {
	database := setupTestDB(t)

	value, ok, err := GetValue(context.Background(), database, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestSetValue_InsertAndReplace(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, SetValue(ctx, database, "k", "one"))
	require.NoError(t, SetValue(ctx, database, "k", "two"))

	value, ok, err := GetValue(ctx, database, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "two", value)

	var count int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM kv").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestDeleteValue(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, SetValue(ctx, database, "k", "v"))
	require.NoError(t, DeleteValue(ctx, database, "k"))
	require.NoError(t, DeleteValue(ctx, database, "k"), "deleting a missing key is a no-op")

	_, ok, err := GetValue(ctx, database, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestImages_RoundTrip(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	data := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
	require.NoError(t, PutImage(ctx, database, "a", data))

	got, err := GetImage(ctx, database, "a")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, PutImage(ctx, database, "a", []byte("replaced")))
	got, err = GetImage(ctx, database, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("replaced"), got)
}

func TestGetImage_MissingReturnsNil(t *testing.T) {
	database := setupTestDB(t)

	got, err := GetImage(context.Background(), database, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPutImage_EmptyBlob(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, PutImage(ctx, database, "empty", nil))

	got, err := GetImage(ctx, database, "empty")
	require.NoError(t, err)
	assert.NotNil(t, got, "an empty stored image is distinct from a missing one")
	assert.Len(t, got, 0)
}

func TestDeleteImage(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, PutImage(ctx, database, "a", []byte("x")))
	require.NoError(t, DeleteImage(ctx, database, "a"))
	require.NoError(t, DeleteImage(ctx, database, "a"))

	got, err := GetImage(ctx, database, "a")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListImageIDs(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	ids, err := ListImageIDs(ctx, database)
	require.NoError(t, err)
	assert.Empty(t, ids)

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, PutImage(ctx, database, id, []byte(id)))
	}

	ids, err = ListImageIDs(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestQueries_ClosedDatabaseIsStorageFailure(t *testing.T) {
	database, err := Init(t.TempDir())
	require.NoError(t, err)
	database.Close()

	ctx := context.Background()

	_, _, err = GetValue(ctx, database, "k")
	assert.True(t, errors.Is(err, errors.ErrStorageFailure), "GetValue: %v", err)

	err = SetValue(ctx, database, "k", "v")
	assert.True(t, errors.Is(err, errors.ErrStorageFailure), "SetValue: %v", err)

	_, err = GetImage(ctx, database, "a")
	assert.True(t, errors.Is(err, errors.ErrStorageFailure), "GetImage: %v", err)
}
