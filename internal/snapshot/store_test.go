package snapshot_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripweaver/tripweaver/internal/snapshot"
	"github.com/tripweaver/tripweaver/internal/trip"
)

func exerciseStore(t *testing.T, store snapshot.Store) {
	t.Helper()
	ctx := context.Background()
	key := snapshot.Key("session-" + time.Now().Format("150405.000000"))

	_, err := store.Load(ctx, key)
	assert.ErrorIs(t, err, snapshot.ErrNotFound)

	require.NoError(t, store.Save(ctx, key, []byte(`{"v":1}`)))
	require.NoError(t, store.Save(ctx, key, []byte(`{"v":2}`)))

	data, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(data))

	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key), "deleting a missing key is not an error")

	_, err = store.Load(ctx, key)
	assert.ErrorIs(t, err, snapshot.ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, snapshot.NewMemoryStore())
}

func TestMemoryStore_CopiesData(t *testing.T) {
	store := snapshot.NewMemoryStore()
	data := []byte(`{"v":1}`)
	require.NoError(t, store.Save(context.Background(), "k", data))
	data[0] = 'X'

	got, err := store.Load(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, string(got))
}

func TestFileStore(t *testing.T) {
	store, err := snapshot.NewFileStore(t.TempDir())
	require.NoError(t, err)
	exerciseStore(t, store)
}

func TestFileStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := snapshot.NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), snapshot.Key("abc"), []byte(`{}`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "trip_abc.json", entries[0].Name())

	info, err := os.Stat(filepath.Join(dir, "trip_abc.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	client, err := snapshot.NewRedisClient(url)
	require.NoError(t, err)
	defer client.Close()

	exerciseStore(t, snapshot.NewRedisStore(client, time.Minute))
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	defer pool.Close()

	store := snapshot.NewPostgresStore(pool)
	require.NoError(t, store.EnsureSchema(context.Background()))
	exerciseStore(t, store)
}

func TestQuotaStore_RejectsOversized(t *testing.T) {
	inner := snapshot.NewMemoryStore()
	store := snapshot.NewQuotaStore(inner, 16)

	require.NoError(t, store.Save(context.Background(), "small", []byte(`{"a":1}`)))

	err := store.Save(context.Background(), "big", []byte(strings.Repeat("x", 17)))
	assert.ErrorIs(t, err, trip.ErrPersistence)
	assert.ErrorIs(t, err, snapshot.ErrTooLarge)
	assert.Equal(t, 1, inner.Len())
}

func TestQuotaStore_DefaultLimit(t *testing.T) {
	store := snapshot.NewQuotaStore(snapshot.NewMemoryStore(), 0)
	assert.NoError(t, store.Save(context.Background(), "k", make([]byte, snapshot.DefaultQuotaBytes)))
	assert.Error(t, store.Save(context.Background(), "k", make([]byte, snapshot.DefaultQuotaBytes+1)))
}
