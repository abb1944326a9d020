package kv

import (
	"context"
	"fmt"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/tgvault/pkg/configs"
)

func TestRegisteredKVTypes(t *testing.T) {
	types := GetRegisteredKVTypes()

	assert.Contains(t, types, KVTypeMemory)
	assert.Contains(t, types, KVTypeRedis)
	assert.Contains(t, types, KVTypeNATS)

	_, err := NewKVStore(context.Background(), "groupcache", configs.KVConfig{})
	require.Error(t, err)
}

func TestNewKVClientDefaultsToMemory(t *testing.T) {
	c, err := NewKVClient(context.Background(), configs.KVConfig{})
	require.NoError(t, err)

	assert.Equal(t, KVTypeMemory, c.Type())
	require.NoError(t, c.Close())
}

func TestMemoryKV(t *testing.T) {
	ctx := context.Background()

	now := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	m := newMemoryKV(16, time.Hour, func() time.Time { return now })

	_, err := m.Get(ctx, "file:2025/3/4/a")
	require.ErrorIs(t, err, ErrKeyNotFound)

	value := []byte("record")
	require.NoError(t, m.Set(ctx, "file:2025/3/4/a", value, time.Minute))
	require.NoError(t, m.Set(ctx, "file:2025/3/4/b", []byte("forever"), 0))
	require.NoError(t, m.Set(ctx, "other", []byte("x"), 0))

	value[0] = 'R'

	got, err := m.Get(ctx, "file:2025/3/4/a")
	require.NoError(t, err)
	assert.Equal(t, []byte("record"), got)

	keys, err := m.Keys(ctx, "file:*")
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"file:2025/3/4/a", "file:2025/3/4/b"}, keys)

	now = now.Add(time.Minute)

	ok, err := m.Exists(ctx, "file:2025/3/4/a")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.Exists(ctx, "file:2025/3/4/b")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, m.Delete(ctx, "file:2025/3/4/b"))
	require.NoError(t, m.Delete(ctx, "missing"))

	keys, err = m.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, keys)
}

func TestMemoryKVBoundedSize(t *testing.T) {
	ctx := context.Background()
	m := newMemoryKV(2, time.Hour, time.Now)

	for _, k := range []string{"file:a", "file:b", "file:c"} {
		require.NoError(t, m.Set(ctx, k, []byte(k), time.Minute))
	}

	assert.Equal(t, 2, m.Len())

	_, err := m.Get(ctx, "file:a")
	require.ErrorIs(t, err, ErrKeyNotFound)

	got, err := m.Get(ctx, "file:c")
	require.NoError(t, err)
	assert.Equal(t, []byte("file:c"), got)
}

func TestMemoryKVEvictsExpiredWithoutReads(t *testing.T) {
	ctx := context.Background()
	m := newMemoryKV(1000, 100*time.Millisecond, time.Now)

	for i := range 500 {
		require.NoError(t, m.Set(ctx, fmt.Sprintf("file:2025/3/4/%d", i), []byte("r"), 0))
	}

	require.Equal(t, 500, m.Len())

	assert.Eventually(t, func() bool { return m.Len() == 0 }, 3*time.Second, 20*time.Millisecond)
}

func TestTTLEnvelope(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	raw, err := encodeWithTTL([]byte("v"), 0, now)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), raw)

	wrapped, err := encodeWithTTL([]byte("v"), time.Second, now)
	require.NoError(t, err)

	val, expired, err := decodeWithTTL(wrapped, now)
	require.NoError(t, err)
	assert.False(t, expired)
	assert.Equal(t, []byte("v"), val)

	_, expired, err = decodeWithTTL(wrapped, now.Add(time.Second))
	require.NoError(t, err)
	assert.True(t, expired)

	_, _, err = decodeWithTTL([]byte(ttlMagic+"{"), now)
	require.Error(t, err)
}

func TestNATSKey(t *testing.T) {
	assert.Equal(t, "file.2025/3/4/abc", natsKey("file:2025/3/4/abc"))
}

// TestRedisKV 需要 TGVAULT_TEST_REDIS_ADDR 指向可用的 Redis.
func TestRedisKV(t *testing.T) {
	addr := os.Getenv("TGVAULT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TGVAULT_TEST_REDIS_ADDR to enable")
	}

	store, err := NewKVStore(context.Background(), KVTypeRedis, configs.KVConfig{
		Redis: configs.RedisKVConfig{Addr: addr},
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = store.Close() })

	roundTrip(t, store)
}

// TestNATSKV 需要 TGVAULT_TEST_NATS_URL 指向启用 JetStream 的 NATS.
func TestNATSKV(t *testing.T) {
	url := os.Getenv("TGVAULT_TEST_NATS_URL")
	if url == "" {
		t.Skip("set TGVAULT_TEST_NATS_URL to enable")
	}

	store, err := NewKVStore(context.Background(), KVTypeNATS, configs.KVConfig{
		NATS: configs.NATSKVConfig{URL: url, Bucket: "tgvault-test"},
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = store.Close() })

	roundTrip(t, store)
}

func roundTrip(t *testing.T, store KVStore) {
	t.Helper()

	ctx := context.Background()
	key := "file:2025/3/4/" + t.Name()

	require.NoError(t, store.Set(ctx, key, []byte("v"), time.Minute))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, store.Delete(ctx, key))

	_, err = store.Get(ctx, key)
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMatchKey(t *testing.T) {
	assert.True(t, matchKey("", "a"))
	assert.True(t, matchKey("file:*", "file:2025/3/4/a"))
	assert.True(t, matchKey("file:*/4/*", "file:2025/3/4/a"))
	assert.True(t, matchKey("exact", "exact"))
	assert.False(t, matchKey("exact", "exactly"))
	assert.False(t, matchKey("file:*/5/*", "file:2025/3/4/a"))
}
