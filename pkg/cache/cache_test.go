package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/tgvault/pkg/cache"
	"github.com/yeisme/tgvault/pkg/configs"
	"github.com/yeisme/tgvault/pkg/internal/model"
	"github.com/yeisme/tgvault/pkg/internal/storage/kv"
)

// failingKV 所有操作都失败的 KV.
type failingKV struct{ kv.KVStore }

func (failingKV) Get(context.Context, string) ([]byte, error) { return nil, errors.New("down") }

func (failingKV) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}

func newCache(t *testing.T) *cache.Cache {
	t.Helper()

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, configs.KVConfig{})
	require.NoError(t, err)

	return cache.NewCache(store)
}

func TestGetSet(t *testing.T) {
	ctx := context.Background()
	c := newCache(t)

	_, err := cache.Get[model.FileRecord](ctx, c, "file:2025/3/4/a")
	require.ErrorIs(t, err, cache.ErrMiss)

	rec := model.FileRecord{ID: 7, Filename: "a.txt", UUID: "a", Year: 2025, Month: 3, Day: 4}
	require.NoError(t, cache.Set(ctx, c, "file:2025/3/4/a", rec, time.Minute))

	got, err := cache.Get[model.FileRecord](ctx, c, "file:2025/3/4/a")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Filename, got.Filename)

	ok, err := c.Exists(ctx, "file:2025/3/4/a")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "file:2025/3/4/a"))

	ok, err = c.Exists(ctx, "file:2025/3/4/a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetOrSet(t *testing.T) {
	ctx := context.Background()
	c := newCache(t)

	calls := 0
	getter := func() (model.FileRecord, error) {
		calls++

		return model.FileRecord{ID: 1, UUID: "u"}, nil
	}

	for range 3 {
		got, err := cache.GetOrSet(ctx, c, "file:u", getter, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.ID)
	}

	assert.Equal(t, 1, calls)
}

func TestGetOrSetGetterError(t *testing.T) {
	ctx := context.Background()
	c := newCache(t)

	boom := errors.New("boom")

	_, err := cache.GetOrSet(ctx, c, "k", func() (int, error) { return 0, boom }, 0)
	require.ErrorIs(t, err, boom)

	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetOrSetKVFailureFallsBack(t *testing.T) {
	c := cache.NewCache(failingKV{})

	got, err := cache.GetOrSet(context.Background(), c, "k", func() (string, error) { return "v", nil }, 0)
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	c := newCache(t)

	require.NoError(t, cache.Set(ctx, c, "file:a", 1, 0))
	require.NoError(t, cache.Set(ctx, c, "file:b", 2, 0))
	require.NoError(t, cache.Set(ctx, c, "keep", 3, 0))

	require.NoError(t, c.Clear(ctx, "file:*"))

	ok, err := c.Exists(ctx, "file:a")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.Exists(ctx, "keep")
	require.NoError(t, err)
	assert.True(t, ok)
}
