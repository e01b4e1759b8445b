package session

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord() Record {
	return Record{
		Token: "tok-1",
		UserData: map[string]any{
			"id":       "42",
			"uid":      "simplelogin:42",
			"provider": "password",
			"email":    "a@b.com",
			"meta":     map[string]any{"n": json.Number("3")},
		},
	}
}

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, "test", "slot", ttl), mr
}

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "session.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoresRoundTrip(t *testing.T) {
	redisStore, _ := newRedisStore(t, 0)
	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  redisStore,
		"sqlite": newSQLiteStore(t),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Load(ctx)
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Save(ctx, testRecord()))
			got, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, testRecord(), got)

			replacement := Record{Token: "tok-2", UserData: map[string]any{"provider": "anonymous"}}
			require.NoError(t, store.Save(ctx, replacement))
			got, err = store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, replacement, got)

			require.NoError(t, store.Clear(ctx))
			require.NoError(t, store.Clear(ctx))
			_, err = store.Load(ctx)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoresReportCorruptRecords(t *testing.T) {
	ctx := context.Background()

	mem := NewMemoryStore()
	mem.SetRaw([]byte("{not json"))
	_, err := mem.Load(ctx)
	assert.ErrorIs(t, err, ErrCorruptRecord)

	sqlStore := newSQLiteStore(t)
	require.NoError(t, sqlStore.SetRaw(ctx, []byte("[1,2]")))
	_, err = sqlStore.Load(ctx)
	assert.ErrorIs(t, err, ErrCorruptRecord)

	redisStore, mr := newRedisStore(t, 0)
	require.NoError(t, mr.Set("test:slot", "garbage"))
	_, err = redisStore.Load(ctx)
	assert.ErrorIs(t, err, ErrCorruptRecord)
}

func TestRedisStoreTTL(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testRecord()))
	assert.Equal(t, time.Minute, mr.TTL("test:slot"))

	mr.FastForward(2 * time.Minute)
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	store := NewRedisStore(rdb, "", "", 0)
	mr.Close()

	err = store.Save(context.Background(), testRecord())
	assert.ErrorIs(t, err, ErrRedisUnavailable)
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	_, err := OpenSQLite("  ", "")
	assert.Error(t, err)
}

func TestRecordHelpers(t *testing.T) {
	r := testRecord()
	p, ok := r.Provider()
	assert.True(t, ok)
	assert.Equal(t, "password", p)

	clone := r.Clone()
	clone.UserData["meta"].(map[string]any)["n"] = json.Number("9")
	assert.Equal(t, json.Number("3"), r.UserData["meta"].(map[string]any)["n"])

	_, ok = Record{}.Provider()
	assert.False(t, ok)
}

func TestDecodeKeepsLargeNumbers(t *testing.T) {
	r, err := Decode([]byte(`{"token":"t","userData":{"id":1234567890123456789,"provider":"twitter"}}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("1234567890123456789"), r.UserData["id"])

	data, err := Encode(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"t","userData":{"id":1234567890123456789,"provider":"twitter"}}`, string(data))
	assert.Contains(t, string(data), "1234567890123456789")

	_, err = Decode([]byte(`{"token":"t"}garbage`))
	assert.ErrorIs(t, err, ErrCorruptRecord)
}

func TestEncodeShape(t *testing.T) {
	data, err := Encode(Record{Token: "t", UserData: map[string]any{"uid": "u"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"t","userData":{"uid":"u"}}`, string(data))
}
