package middleware

import (
	"BuzzDaddy/internal/pkg/logger"

	"github.com/gin-gonic/gin"
)

func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := logger.WithTraceID(c.Request.Context(), "", c.GetHeader("X-Trace-ID"))
		traceID := logger.TraceID(ctx)

		c.Set(logger.TraceIDKey, traceID)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Trace-ID", traceID)
		c.Next()
	}
}
