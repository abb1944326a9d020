// Package router 管理路由配置，把 handle 包中的处理器绑定到 gin 路由组.
package router

import (
	"slices"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/tgvault/pkg/internal/handle"
)

// RegisterFileRoutes 注册文件相关路由，upload 为仅作用于上传接口的中间件（如限流）：
//
//	GET    /                             -> Index
//	GET    /getUpdates                   -> GetUpdates
//	POST   /upload                       -> UploadFile
//	GET    /files                        -> ListFiles（gzip）
//	GET    /find/:year/:month/:day/:uuid -> FindFile
//	DELETE /del/:id                      -> DeleteFile
func RegisterFileRoutes(g *gin.RouterGroup, upload ...gin.HandlerFunc) {
	g.GET("/", handle.Index)
	g.GET("/getUpdates", handle.GetUpdates)
	g.POST("/upload", append(slices.Clone(upload), handle.UploadFile)...)
	g.GET("/files", gzip.Gzip(gzip.DefaultCompression), handle.ListFiles)
	g.GET("/find/:year/:month/:day/:uuid", handle.FindFile)
	g.DELETE("/del/:id", handle.DeleteFile)
}
