package middleware

import (
	"condo-http-service/internal/error/response"
	"condo-http-service/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery 捕获处理函数中的 panic，返回统一的 500 响应
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic_recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"),
				)
				metrics.ErrorCount.WithLabelValues("recovery", "panic").Inc()
				response.ServerError(c)
				c.Abort()
			}
		}()
		c.Next()
	}
}
