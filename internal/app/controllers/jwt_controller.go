package controllers

import (
	"errors"

	"condo-http-service/internal/domain/services"
	"condo-http-service/internal/domain/services/container"
	"condo-http-service/internal/error/response"
	"condo-http-service/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InterfaceJWTController 定义认证控制器接口
type InterfaceJWTController interface {
	Login()
}

// JWTController 处理身份验证请求
type JWTController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewJWTController 创建一个新的认证控制器
func NewJWTController(ctx *gin.Context, container *container.ServiceContainer) *JWTController {
	return &JWTController{
		Ctx:       ctx,
		Container: container,
	}
}

// LoginRequest 表示登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"admin"`
	Password string `json:"password" binding:"required" example:"admin123"`
}

// HandleJWTFunc 返回一个处理JWT认证请求的Gin处理函数
func HandleJWTFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewJWTController(ctx, container)

		switch method {
		case "login":
			controller.Login()
		default:
			invalidMethod(ctx)
		}
	}
}

// Login 处理用户登录
// @Summary      User Login
// @Description  Verify username and password and return a JWT token. Disabled accounts cannot log in.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login request parameters"
// @Success      200  {object}  response.Response{data=services.LoginResult}
// @Failure      400  {object}  ErrorResponse  "Bad request"
// @Failure      401  {object}  ErrorResponse  "Invalid credentials or disabled account"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /auth/login [post]
func (c *JWTController) Login() {
	var req LoginRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	jwtService := c.Container.GetService("jwt").(services.InterfaceJWTService)
	result, err := jwtService.Login(c.Ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUserPasswordIncorrect) || errors.Is(err, services.ErrUserInactive) {
			c.Container.GetLogger().Warn("login rejected",
				zap.String("username", req.Username),
				zap.String("client_ip", c.Ctx.ClientIP()),
				zap.String("reason", err.Error()),
			)
			metrics.ErrorCount.WithLabelValues("login", "rejected").Inc()
		}
		handleError(c.Ctx, c.Container, "login", err)
		return
	}

	response.Success(c.Ctx, result)
}
