package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/inkpress/backend/blog-service/pkg/logger"
	"github.com/inkpress/inkpress/backend/blog-service/pkg/metrics"
)

// unmatched requests share one label so scanners can't blow up cardinality
const unmatchedRoute = "unmatched"

func route(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return unmatchedRoute
}

// RequestLogger logs one line per request through pkg/logger.
// Server errors log at error level, client errors at warn.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		format := "%s %s -> %d (%s, %s)"
		args := []interface{}{c.Request.Method, c.Request.URL.Path, status, time.Since(start), c.ClientIP()}
		switch {
		case status >= 500:
			logger.Errorf(format, args...)
		case status >= 400:
			logger.Warnf(format, args...)
		default:
			logger.Debugf(format, args...)
		}
	}
}

// RequestMetrics records request latency by method, route and status.
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.RequestDuration.
			WithLabelValues(c.Request.Method, route(c), strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
