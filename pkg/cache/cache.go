// Package cache 提供基于键值存储的泛型缓存，值使用 sonic 序列化.
//
// 基本用法:
//
//	c := cache.NewCache(kvStore)
//
//	rec, err := cache.GetOrSet(ctx, c, "file:2025/3/4/uuid", func() (model.FileRecord, error) {
//		return loadFromDB(ctx)
//	}, 10*time.Minute)
//
// 缓存未命中返回 ErrMiss；KV 读写失败时 GetOrSet 退化为直接调用 getter.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/tgvault/pkg/internal/storage/kv"
	nlog "github.com/yeisme/tgvault/pkg/log"
	"github.com/yeisme/tgvault/pkg/metrics"
)

// ErrMiss 缓存未命中.
var ErrMiss = kv.ErrKeyNotFound

// Cache 基于KV存储的缓存实现.
type Cache struct {
	kvStore kv.KVStore
}

// NewCache 创建一个新的缓存实例.
func NewCache(kvStore kv.KVStore) *Cache {
	return &Cache{kvStore: kvStore}
}

// Get 泛型获取缓存值.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T

	data, err := c.kvStore.Get(ctx, key)
	if err != nil {
		return zero, err
	}

	var value T
	if err := sonic.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 泛型设置缓存值.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.kvStore.Set(ctx, key, data, ttl)
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.kvStore.Delete(ctx, key)
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.kvStore.Exists(ctx, key)
}

// GetOrSet 获取缓存值，未命中时调用 getter 并写回.
// getter 的错误原样返回且不写缓存；写缓存失败只记录日志.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	value, err := Get[T](ctx, c, key)
	if err == nil {
		metrics.RecordCache.WithLabelValues("hit").Inc()

		return value, nil
	}

	if errors.Is(err, ErrMiss) {
		metrics.RecordCache.WithLabelValues("miss").Inc()
	} else {
		metrics.RecordCache.WithLabelValues("error").Inc()
		nlog.Logger().Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	value, err = getter()
	if err != nil {
		var zero T

		return zero, err
	}

	if err := Set(ctx, c, key, value, ttl); err != nil {
		nlog.Logger().Warn().Err(err).Str("key", key).Msg("cache write failed")
	}

	return value, nil
}

// Clear 删除匹配模式的全部键.
func (c *Cache) Clear(ctx context.Context, pattern string) error {
	keys, err := c.kvStore.Keys(ctx, pattern)
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := c.kvStore.Delete(ctx, key); err != nil {
			return err
		}
	}

	return nil
}
