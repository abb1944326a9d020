// Package api 汇总 HTTP 路由，供 app 挂载到 gin 引擎.
package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/tgvault/pkg/configs"
	"github.com/yeisme/tgvault/pkg/internal/router"
	"github.com/yeisme/tgvault/pkg/middleware"
)

// RegisterGroup 注册全部路由到传入的 gin 引擎，上传接口挂载限流中间件.
// withScheduler 为 true 时同时注册调度器路由.
func RegisterGroup(ctx context.Context, e *gin.Engine, cfg *configs.AppConfig, withScheduler bool) *gin.Engine {
	root := e.Group("")

	router.RegisterFileRoutes(root, middleware.RateLimitMiddleware(ctx, cfg.RateLimit))
	router.RegisterHealthCheckRoute(root)

	if withScheduler {
		router.RegisterSchedulerRoutes(root)
	}

	return e
}
