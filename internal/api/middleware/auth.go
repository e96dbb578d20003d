package middleware

import (
	"context"

	"galleria-go/internal/api/response"

	"github.com/gin-gonic/gin"
)

// SessionCookieName 管理员会话 Cookie 名
const SessionCookieName = "admin_session"

// SessionVerifier 校验会话令牌的函数类型（由 AuthService 提供）
type SessionVerifier func(ctx context.Context, token string) error

// AdminRequired 管理员认证中间件
// 所有写目录的接口都必须携带有效的 HTTP-only 会话 Cookie
func AdminRequired(verify SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookieName)
		if err != nil || token == "" {
			response.Unauthorized(c, "需要管理员登录")
			c.Abort()
			return
		}

		if err := verify(c.Request.Context(), token); err != nil {
			response.Unauthorized(c, "会话无效或已过期")
			c.Abort()
			return
		}

		c.Next()
	}
}
