package middleware

import (
	"BuzzDaddy/internal/pkg/response"
	"BuzzDaddy/internal/pkg/security"
	"strings"

	"github.com/gin-gonic/gin"
)

// UserIDKey gin.Context 中保存当前用户的 key
const UserIDKey = "user_id"

// AuthMiddleware 负责验证 JWT 并将用户身份信息注入 Context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			response.Fail(c, response.Unauthorized, "missing or malformed token")
			c.Abort()
			return
		}

		claims, err := security.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			response.Fail(c, response.Unauthorized, "token is invalid or expired")
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Next()
	}
}
