// Package middleware 提供 gin 中间件：跨域、日志、指标、追踪、限流以及把存储管理器与调度器注入请求上下文.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/tgvault/pkg/context"
	"github.com/yeisme/tgvault/pkg/internal/storage"
	"github.com/yeisme/tgvault/pkg/scheduler"
)

// StorageMiddleware 将存储管理器注入请求上下文，文件与健康检查处理器从中取得 store、relay、KV 与 MQ.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	return inject(func(c *gin.Context) {
		c.Request = c.Request.WithContext(context.WithStorageManager(c.Request.Context(), manager))
	})
}

// SchedulerMiddleware 将补偿任务调度器注入请求上下文，供 /scheduler 路由使用.
func SchedulerMiddleware(sched *scheduler.Scheduler) gin.HandlerFunc {
	return inject(func(c *gin.Context) {
		c.Request = c.Request.WithContext(context.WithScheduler(c.Request.Context(), sched))
	})
}

func inject(set func(*gin.Context)) gin.HandlerFunc {
	return func(c *gin.Context) {
		set(c)
		c.Next()
	}
}
