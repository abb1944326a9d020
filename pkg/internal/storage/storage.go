// Package storage 聚合服务依赖的存储资源：元数据数据库、记录缓存、事件队列与 Telegram 中继.
//
// Example:
//
//	mgr, err := storage.NewManager(ctx, configs.GetConfig())
//	if err != nil {
//		return err
//	}
//	defer mgr.Close()
//
//	records, err := mgr.GetStore().ListAll(ctx)
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yeisme/tgvault/pkg/configs"
	"github.com/yeisme/tgvault/pkg/internal/relay"
	dbc "github.com/yeisme/tgvault/pkg/internal/storage/db"
	kvc "github.com/yeisme/tgvault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/tgvault/pkg/internal/storage/mq"
	"github.com/yeisme/tgvault/pkg/internal/store"
	nlog "github.com/yeisme/tgvault/pkg/log"
)

// Manager 聚合所有存储资源.
// KV 在 kv.enabled 为 false 时为 nil，MQ 在 events.enabled 为 false 时为 nil.
type Manager struct {
	DB    *dbc.Client
	Store *store.Store
	KV    *kvc.Client
	MQ    *mqc.Client
	Relay *relay.Client

	closeOnce sync.Once
}

var (
	mgr     *Manager
	mgrErr  error
	mgrOnce sync.Once
)

// Init 使用全局配置初始化默认 Manager，重复调用返回同一实例.
func Init(ctx context.Context) (*Manager, error) {
	mgrOnce.Do(func() {
		mgr, mgrErr = NewManager(ctx, configs.GetConfig())
	})

	return mgr, mgrErr
}

// NewManager 按配置创建 Manager 并初始化元数据表结构.
// 中继未配置时只记录警告，相关请求在调用时失败.
func NewManager(ctx context.Context, cfg *configs.AppConfig) (*Manager, error) {
	m := &Manager{}

	dbClient, err := dbc.New(ctx, cfg.DB, cfg.Metrics.Enabled)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}

	m.DB = dbClient
	m.Store = store.New(dbClient)

	if err := m.Store.Init(ctx); err != nil {
		_ = m.Close()

		return nil, fmt.Errorf("init store: %w", err)
	}

	if cfg.KV.Enabled {
		kvClient, err := kvc.NewKVClient(ctx, cfg.KV)
		if err != nil {
			_ = m.Close()

			return nil, fmt.Errorf("init kv: %w", err)
		}

		m.KV = kvClient
	}

	if cfg.Events.Enabled {
		mqClient, err := mqc.New(ctx, cfg.MQ)
		if err != nil {
			_ = m.Close()

			return nil, fmt.Errorf("init mq: %w", err)
		}

		m.MQ = mqClient
	}

	m.Relay = relay.New(cfg.Relay, relay.WithBreaker(cfg.CircuitBreaker))
	if !m.Relay.Configured() {
		nlog.Logger().Warn().Msg("relay token or chat id not set, upload/delete/updates will fail")
	}

	nlog.Logger().Info().
		Str("db", string(dbClient.Type())).
		Bool("kv", m.KV != nil).
		Bool("mq", m.MQ != nil).
		Msg("storage manager initialized")

	return m, nil
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetStore 获取元数据存储.
func (m *Manager) GetStore() *store.Store {
	return m.Store
}

// GetKVClient 获取 KV 客户端，未启用时为 nil.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// GetMQClient 获取 MQ 客户端，未启用时为 nil.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// GetRelayClient 获取中继客户端.
func (m *Manager) GetRelayClient() *relay.Client {
	return m.Relay
}

// Close 释放所有资源，可重复调用.
func (m *Manager) Close() error {
	var errs []error

	m.closeOnce.Do(func() {
		if m.MQ != nil {
			errs = append(errs, m.MQ.Close())
		}

		if m.KV != nil {
			errs = append(errs, m.KV.Close())
		}

		if m.DB != nil {
			errs = append(errs, m.DB.Close())
		}
	})

	return errors.Join(errs...)
}
