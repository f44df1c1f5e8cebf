package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger is the donor's logger.Named("LoggingInterceptor") pattern: logs
// one line per request after the handler returns, with method, path,
// query, status and elapsed time.
func Logger(base *zap.Logger) gin.HandlerFunc {
	log := base.Named("LoggingInterceptor")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		elapsed := time.Since(start)
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", elapsed),
		)
	}
}
