package middleware

import (
	"errors"
	"strings"

	"condo-http-service/internal/domain/access"
	"condo-http-service/internal/domain/services"
	"condo-http-service/internal/error/code"
	"condo-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// actorKey gin 上下文中保存调用者的键
const actorKey = "actor"

// extractToken 从授权头中提取token
func extractToken(authHeader string) (string, bool) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// Identify 解析可选的 Bearer 令牌。没有授权头时按匿名用户继续，
// 令牌无效或账户已停用时直接返回 401。权限由各控制器按动作检查。
func Identify(jwtService services.InterfaceJWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := access.Anonymous()

		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			tokenString, ok := extractToken(authHeader)
			if !ok {
				response.FailWithMessage(c, code.ErrTokenInvalid, "Authorization header format must be Bearer {token}", nil)
				c.Abort()
				return
			}

			identified, err := jwtService.Identify(c.Request.Context(), tokenString)
			if err != nil {
				if errors.Is(err, services.ErrUserInactive) {
					response.Fail(c, code.ErrUserInactive, nil)
				} else {
					response.Fail(c, code.ErrTokenInvalid, nil)
				}
				c.Abort()
				return
			}
			actor = identified
		}

		c.Set(actorKey, actor)
		c.Request = c.Request.WithContext(access.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// ActorFrom 返回当前请求的调用者，未经过 Identify 时为匿名用户
func ActorFrom(c *gin.Context) access.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(access.Actor); ok {
			return actor
		}
	}
	return access.FromContext(c.Request.Context())
}
