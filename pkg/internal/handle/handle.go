// Package handle 提供 HTTP 请求处理器，负责参数绑定、调用 service 以及把错误映射为状态码.
package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/tgvault/pkg/internal/types"
	"github.com/yeisme/tgvault/pkg/log"
)

// Index 根路径.
func Index(c *gin.Context) {
	c.String(http.StatusOK, "Hello world!")
}

// abortError 记录错误并以 {error} 响应.
func abortError(c *gin.Context, status int, err error) {
	ev := log.Logger().Warn()
	if status >= http.StatusInternalServerError {
		ev = log.Logger().Error()
	}

	ev.Err(err).Str("path", c.Request.URL.Path).Int("status", status).Msg("request failed")

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, types.ErrorResponse{Error: err.Error()})
}
