package controllers

import (
	"context"
	"time"

	"condo-http-service/internal/error/code"
	"condo-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// DBChecker 数据库健康检查，由 database.ConnectionPool 实现
type DBChecker interface {
	HealthCheck(ctx context.Context) error
	Stats() (map[string]interface{}, error)
}

// HealthCheckController 健康检查控制器
type HealthCheckController struct {
	db    DBChecker
	redis *redis.Client
}

// NewHealthCheckController 创建健康检查控制器实例，redisClient 可以为 nil
func NewHealthCheckController(db DBChecker, redisClient *redis.Client) *HealthCheckController {
	return &HealthCheckController{db: db, redis: redisClient}
}

// Ping 健康检查端点
// @Summary      Ping
// @Tags         Health
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /ping [get]
func (h *HealthCheckController) Ping(c *gin.Context) {
	response.Success(c, gin.H{
		"status":  "healthy",
		"message": "pong",
	})
}

// Health 检查数据库和缓存状态
// @Summary      服务状态
// @Description  数据库不可用时返回 503，缓存不可用只记录为 degraded
// @Tags         Health
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      503  {object}  ErrorResponse
// @Router       /health [get]
func (h *HealthCheckController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := gin.H{"status": "healthy"}

	if err := h.db.HealthCheck(ctx); err != nil {
		status["status"] = "unhealthy"
		status["database"] = err.Error()
		response.Fail(c, code.ErrServiceUnavailable, status)
		return
	}
	if stats, err := h.db.Stats(); err == nil {
		status["database"] = stats
	}

	switch {
	case h.redis == nil:
		status["redis"] = "disabled"
	case h.redis.Ping(ctx).Err() != nil:
		status["redis"] = "degraded"
	default:
		status["redis"] = "ok"
	}

	response.Success(c, status)
}
