package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/supportbot/docclassify/internal/metrics"
)

// Track 记录请求耗时、状态码并输出访问日志
func Track(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := c.Writer.Status()

		metrics.RequestDuration.WithLabelValues(endpoint, c.Request.Method).Observe(duration.Seconds())
		metrics.ResponseCodes.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()

		logger.Info("end_of_request",
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status_code", status),
			zap.Duration("duration", duration),
			zap.String("client_ip", c.ClientIP()))
	}
}
