package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/tgvault/pkg/configs"
)

const corsMaxAge = 12 * time.Hour

// CORSMiddleware CORS中间件.
// cors_origins 为空时回显任意请求来源，否则只允许列表中的来源；两种情况都允许携带凭证.
func CORSMiddleware(cfg configs.ServerConfig) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(cfg.CORSOrigins))
	for _, o := range cfg.CORSOrigins {
		allowed[strings.TrimRight(strings.ToLower(o), "/")] = struct{}{}
	}

	config := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "X-Requested-With", "If-None-Match"},
		ExposeHeaders:    []string{"Content-Disposition", "ETag"},
		AllowCredentials: true,
		MaxAge:           corsMaxAge,
		AllowOriginFunc: func(origin string) bool {
			if len(allowed) == 0 {
				return true
			}

			_, ok := allowed[strings.TrimRight(strings.ToLower(origin), "/")]

			return ok
		},
	}

	return cors.New(config)
}
