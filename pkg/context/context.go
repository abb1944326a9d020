// Package context 拓展上下文功能，将存储资源与追踪信息集成到上下文中，方便在应用程序各处传递和使用.
package context

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/tgvault/pkg/internal/relay"
	"github.com/yeisme/tgvault/pkg/internal/storage"
	dbc "github.com/yeisme/tgvault/pkg/internal/storage/db"
	kvc "github.com/yeisme/tgvault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/tgvault/pkg/internal/storage/mq"
	"github.com/yeisme/tgvault/pkg/internal/store"
	"github.com/yeisme/tgvault/pkg/scheduler"
)

type ContextKey string

const (
	StorageManagerKey ContextKey = "storageManager"
	SchedulerKey      ContextKey = "scheduler"
)

// WithStorageManager 将 Manager 存储到 context 中.
func WithStorageManager(ctx context.Context, mgr *storage.Manager) context.Context {
	return context.WithValue(ctx, StorageManagerKey, mgr)
}

// GetManager 从 context 中获取 Manager.
func GetManager(ctx context.Context) *storage.Manager {
	if mgr, ok := ctx.Value(StorageManagerKey).(*storage.Manager); ok {
		return mgr
	}

	return nil
}

// GetDBClient 从 context 中获取 DB 客户端.
func GetDBClient(ctx context.Context) *dbc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetDBClient()
	}

	return nil
}

// GetStore 从 context 中获取元数据存储.
func GetStore(ctx context.Context) *store.Store {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetStore()
	}

	return nil
}

// GetMQClient 从 context 中获取 MQ 客户端.
func GetMQClient(ctx context.Context) *mqc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetMQClient()
	}

	return nil
}

// GetKVClient 从 context 中获取 KV 客户端.
func GetKVClient(ctx context.Context) *kvc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetKVClient()
	}

	return nil
}

// GetRelayClient 从 context 中获取中继客户端.
func GetRelayClient(ctx context.Context) *relay.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetRelayClient()
	}

	return nil
}

// WithScheduler 将调度器存储到 context 中.
func WithScheduler(ctx context.Context, sched *scheduler.Scheduler) context.Context {
	return context.WithValue(ctx, SchedulerKey, sched)
}

// GetScheduler 从 context 中获取调度器，未启用补偿任务时为 nil.
func GetScheduler(ctx context.Context) *scheduler.Scheduler {
	if sched, ok := ctx.Value(SchedulerKey).(*scheduler.Scheduler); ok {
		return sched
	}

	return nil
}

// WithTraceContext 创建带有追踪上下文的logger.
func WithTraceContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return logger.With().
			Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String()).
			Logger()
	}

	return logger
}
