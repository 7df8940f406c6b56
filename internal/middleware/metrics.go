package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"panelix-setup/services"
)

/**
 * HTTP请求统计中间件
 * @description
 * - Counts requests per endpoint and records handling time
 * - Requests with status >= 400 are additionally counted as errors
 * - Feeds the counters exposed by the health endpoint
 */
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}

		services.IncrementRequestCount(endpoint)
		services.RecordRequestDuration(endpoint, duration)

		if c.Writer.Status() >= 400 {
			services.IncrementErrorCount(endpoint)
		}
	}
}

// GetTotalRequests returns the total request count for the health endpoint.
func GetTotalRequests() int64 {
	return services.GetTotalRequestCount()
}

// GetErrorRequests returns the failed request count for the health endpoint.
func GetErrorRequests() int64 {
	return services.GetTotalErrorCount()
}
