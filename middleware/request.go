package middleware

import (
	"time"

	"bookdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestLogger tags each request with an id and a child logger, and logs
// the outcome once the handler chain returns.
func RequestLogger(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(utils.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		logger := base.With(zap.String("requestID", requestID))
		c.Set(utils.RequestIDContextKey, requestID)
		c.Set(utils.LoggerContextKey, logger)
		c.Header(utils.RequestIDHeader, requestID)

		start := time.Now()
		c.Next()

		utils.RequestLogger(c).Info("Request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", getClientIP(c)),
		)
	}
}
