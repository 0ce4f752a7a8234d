package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crystal-preschool/backend/internal/api/handler"
	"crystal-preschool/backend/internal/api/middleware"
	"crystal-preschool/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(h *handler.Handler, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	r.Use(middleware.BodyLimit(1 << 20))
	r.Use(middleware.RateLimit(rdb, 20, time.Minute))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── 动作网关 ──
	// 鉴权逐动作执行（分发表声明级别），不走路由组中间件
	r.GET("/api/backend", h.Gateway.Handle)
	r.POST("/api/backend", h.Gateway.Handle)

	return r
}
