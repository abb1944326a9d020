package kv

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/yeisme/tgvault/pkg/configs"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryKV 基于 expirable LRU 的进程内 KV 实现.
// 容量由 kv.memory.size 限制，所有条目最长存活 kv.record_ttl，过期条目由 LRU 后台清理.
// Set 传入更短的 ttl 时在读取时按条目自身的过期时间判断.
type MemoryKV struct {
	lru *expirable.LRU[string, memoryEntry]
	now func() time.Time
}

// NewMemoryKV 创建内存 KV 实例.
func NewMemoryKV(_ context.Context, cfg configs.KVConfig) (KVStore, error) {
	return newMemoryKV(cfg.Memory.Size, cfg.RecordTTL, time.Now), nil
}

func newMemoryKV(size int, maxTTL time.Duration, now func() time.Time) *MemoryKV {
	if size <= 0 {
		size = configs.DefaultKVMemorySize
	}

	return &MemoryKV{
		lru: expirable.NewLRU[string, memoryEntry](size, nil, maxTTL),
		now: now,
	}
}

func (m *MemoryKV) load(key string) (memoryEntry, bool) {
	e, ok := m.lru.Get(key)
	if !ok {
		return memoryEntry{}, false
	}

	if e.expired(m.now()) {
		m.lru.Remove(key)

		return memoryEntry{}, false
	}

	return e, true
}

// Get 获取键的值.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := m.load(key)
	if !ok {
		return nil, ErrKeyNotFound
	}

	result := make([]byte, len(e.value))
	copy(result, e.value)

	return result, nil
}

// Set 设置键的值，容量已满时淘汰最久未使用的键.
func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: make([]byte, len(value))}
	copy(e.value, value)

	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}

	m.lru.Add(key, e)

	return nil
}

// Delete 删除键.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.lru.Remove(key)

	return nil
}

// Exists 检查键是否存在.
func (m *MemoryKV) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.load(key)

	return ok, nil
}

// Keys 获取匹配模式的键.
func (m *MemoryKV) Keys(_ context.Context, pattern string) ([]string, error) {
	keys := make([]string, 0)

	for _, k := range m.lru.Keys() {
		if _, live := m.load(k); live && matchKey(pattern, k) {
			keys = append(keys, k)
		}
	}

	return keys, nil
}

// Len 当前持有的条目数，包含尚未清理的过期条目.
func (m *MemoryKV) Len() int {
	return m.lru.Len()
}

// Close 清空缓存.
func (m *MemoryKV) Close() error {
	m.lru.Purge()

	return nil
}

func init() {
	RegisterKVFactory(KVTypeMemory, NewMemoryKV)
}
