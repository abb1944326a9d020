package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultKVType       = "memory"         // 默认进程内缓存
	DefaultKVRecordTTL  = 10 * time.Minute // 记录缓存默认 TTL
	DefaultKVMemorySize = 10000            // 内存缓存默认容量
)

// KVConfig 键值存储配置，用于缓存 /find 路径到文件记录的映射.
type KVConfig struct {
	Enabled   bool           `mapstructure:"enabled"`
	Type      string         `mapstructure:"type"       rule:"oneof=memory redis nats"`
	RecordTTL time.Duration  `mapstructure:"record_ttl"`
	Memory    MemoryKVConfig `mapstructure:"memory"`
	Redis     RedisKVConfig  `mapstructure:"redis"`
	NATS      NATSKVConfig   `mapstructure:"nats"`
}

// MemoryKVConfig 内存 KV 配置.
type MemoryKVConfig struct {
	Size int `mapstructure:"size" rule:"min=0"`
}

// RedisKVConfig Redis KV 配置.
type RedisKVConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password" json:"-"`
	DB       int    `mapstructure:"db"       rule:"min=0,max=15"`
}

// NATSKVConfig NATS KV 配置.
type NATSKVConfig struct {
	URL      string `mapstructure:"url"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password" json:"-"`
	Bucket   string `mapstructure:"bucket"   rule:"required"`
}

// GetKVType 返回当前配置的 KV 类型.
func (c *KVConfig) GetKVType() string {
	return c.Type
}

// setDefaults 设置 KV 配置的默认值.
func (c *KVConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("kv.enabled", true)
	v.SetDefault("kv.type", DefaultKVType)
	v.SetDefault("kv.record_ttl", DefaultKVRecordTTL)

	v.SetDefault("kv.memory.size", DefaultKVMemorySize)

	// Redis 默认值
	v.SetDefault("kv.redis.addr", "localhost:6379")
	v.SetDefault("kv.redis.password", "")
	v.SetDefault("kv.redis.db", 0)

	// NATS 默认值
	v.SetDefault("kv.nats.url", "nats://localhost:4222")
	v.SetDefault("kv.nats.user", "")
	v.SetDefault("kv.nats.password", "")
	v.SetDefault("kv.nats.bucket", "tgvault-kv")
}
