package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crystal-preschool/backend/pkg/response"
)

// Recovery 最外层兜底：捕获未处理 panic，记录诊断并返回通用错误信封
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("未处理的请求异常",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("action", c.Request.URL.Query().Get("action")),
		)
		response.FailStatus(c, http.StatusInternalServerError, "An error occurred")
		c.Abort()
	})
}
