package controllers

import (
	"errors"
	"strconv"

	"condo-http-service/internal/app/middleware"
	"condo-http-service/internal/domain/access"
	"condo-http-service/internal/domain/services"
	"condo-http-service/internal/domain/services/container"
	"condo-http-service/internal/error/code"
	"condo-http-service/internal/error/response"
	"condo-http-service/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse 表示错误响应
type ErrorResponse struct {
	Code    int         `json:"code" example:"100003"`
	Message string      `json:"message" example:"request validation failed"`
	Data    interface{} `json:"data"`
}

// authorize 按动作执行请求级权限检查，未通过时写入 401/403 响应
func authorize(ctx *gin.Context, rules access.Rules, action access.Action) (access.Actor, bool) {
	actor := middleware.ActorFrom(ctx)
	if err := rules.Check(actor, action); err != nil {
		writeAccessError(ctx, err)
		return actor, false
	}
	return actor, true
}

func writeAccessError(ctx *gin.Context, err error) {
	if errors.Is(err, access.ErrUnauthenticated) {
		response.Unauthorized(ctx)
		return
	}
	response.Forbidden(ctx)
}

// handleError 把服务层错误映射为统一响应；未知错误记录日志后按数据库错误返回
func handleError(ctx *gin.Context, container *container.ServiceContainer, handler string, err error) {
	var domainErr *services.DomainError
	switch {
	case errors.As(err, &domainErr):
		response.FailWithMessage(ctx, domainErr.Code, domainErr.Msg, nil)
	case errors.Is(err, access.ErrUnauthenticated), errors.Is(err, access.ErrForbidden):
		writeAccessError(ctx, err)
	default:
		container.GetLogger().Error("request failed",
			zap.String("handler", handler),
			zap.String("path", ctx.Request.URL.Path),
			zap.Error(err),
		)
		metrics.ErrorCount.WithLabelValues(handler, "database").Inc()
		response.Fail(ctx, code.ErrDatabase, nil)
	}
}

// bindJSON 绑定并校验请求体
func bindJSON(ctx *gin.Context, dst interface{}) bool {
	if err := ctx.ShouldBindJSON(dst); err != nil {
		response.FailWithMessage(ctx, code.ErrBind, middleware.ValidationMessage(err), nil)
		return false
	}
	return true
}

// parseID 解析路径中的正整数ID
func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.ParamError(ctx, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// pageParams 读取分页参数，page_size 默认取配置值并限制上限
func pageParams(ctx *gin.Context, container *container.ServiceContainer) (int, int) {
	cfg := container.GetConfig()
	defaultSize, maxSize := cfg.PageSize, cfg.MaxPageSize
	if defaultSize < 1 {
		defaultSize = 5
	}
	if maxSize < 1 {
		maxSize = 50
	}

	page, err := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(ctx.Query("page_size"))
	if err != nil || pageSize < 1 {
		pageSize = defaultSize
	}
	if pageSize > maxSize {
		pageSize = maxSize
	}
	return page, pageSize
}

// invalidMethod 未注册的处理方法
func invalidMethod(ctx *gin.Context) {
	response.FailWithMessage(ctx, code.ErrBind, "invalid method", nil)
}
