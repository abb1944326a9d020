// Package service 实现文件上传、查询、获取与删除的业务流程，组合元数据存储、Telegram 中继、记录缓存与事件发布.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yeisme/tgvault/pkg/cache"
	"github.com/yeisme/tgvault/pkg/configs"
	ctxPkg "github.com/yeisme/tgvault/pkg/context"
	"github.com/yeisme/tgvault/pkg/internal/relay"
	"github.com/yeisme/tgvault/pkg/internal/storage"
	"github.com/yeisme/tgvault/pkg/internal/storage/mq"
	"github.com/yeisme/tgvault/pkg/internal/store"
)

// DefaultFilename multipart 字段没有文件名时使用的名称.
const DefaultFilename = "uploaded_file"

// ErrNotFound 记录不存在.
var ErrNotFound = store.ErrNotFound

// RelayFailure 上传到中继失败，Err 为原始错误.
type RelayFailure struct {
	Err error
}

func (e *RelayFailure) Error() string {
	return e.Err.Error()
}

func (e *RelayFailure) Unwrap() error {
	return e.Err
}

// Options 服务行为配置.
type Options struct {
	Public    configs.PublicConfig
	RecordTTL time.Duration
	Events    configs.EventsConfig
	Reconcile configs.ReconcileConfig
}

// OptionsFromConfig 从应用配置提取服务配置.
func OptionsFromConfig(cfg *configs.AppConfig) Options {
	return Options{
		Public:    cfg.Public,
		RecordTTL: cfg.KV.RecordTTL,
		Events:    cfg.Events,
		Reconcile: cfg.Reconcile,
	}
}

// FileService 文件业务服务.
type FileService struct {
	store *store.Store
	relay *relay.Client
	cache *cache.Cache
	mq    *mq.Client
	opts  Options

	now     func() time.Time
	newUUID func() string
}

// NewFileService 从上下文中的存储管理器与全局配置创建服务.
func NewFileService(c context.Context) *FileService {
	return New(ctxPkg.GetManager(c), OptionsFromConfig(configs.GetConfig()))
}

// New 基于存储管理器创建服务，mgr 的 KV 与 MQ 可以为空.
func New(mgr *storage.Manager, opts Options) *FileService {
	fs := &FileService{
		opts:    opts,
		now:     time.Now,
		newUUID: func() string { return uuid.NewString() },
	}

	if mgr == nil {
		return fs
	}

	fs.store = mgr.GetStore()
	fs.relay = mgr.GetRelayClient()
	fs.mq = mgr.GetMQClient()

	if kvc := mgr.GetKVClient(); kvc != nil {
		fs.cache = cache.NewCache(kvc)
	}

	return fs
}

// SetClock 替换时间源，用于测试跨天场景.
func (fs *FileService) SetClock(now func() time.Time) {
	fs.now = now
}

func (fs *FileService) ready() error {
	if fs.store == nil || fs.relay == nil {
		return errors.New("storage manager not initialized")
	}

	return nil
}

// recordKey 记录缓存键.
func recordKey(year, month, day int, id string) string {
	return fmt.Sprintf("file:%d/%d/%d/%s", year, month, day, id)
}

// tombstoneKey 已删除记录的墓碑键.
func tombstoneKey(key string) string {
	return "gone:" + key
}
