package middleware

import (
	"BuzzDaddy/internal/api/dto"
	"crypto/subtle"
	log "log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CronAuthMiddleware 校验定时触发器携带的 Bearer 密钥，未配置密钥时拒绝全部请求
func CronAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			log.WarnContext(c.Request.Context(), "cron endpoint called but server.cron_secret is empty")
			abortUnauthorized(c)
			return
		}

		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			abortUnauthorized(c)
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Response{
		Code:    http.StatusUnauthorized,
		Message: "unauthorized",
	})
}
