package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/investorcrm/backend/internal/infrastructure/telemetry"
)

const unmatchedRoute = "unmatched"

// HTTPMetrics records request count, latency and in-flight requests by route pattern.
// A nil metrics registry disables the middleware.
func HTTPMetrics(metrics *telemetry.Metrics) gin.HandlerFunc {
	if metrics == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		done := metrics.HTTPStarted()

		c.Next()

		done(c.Request.Method, routePattern(c), c.Writer.Status(), time.Since(start))
	}
}

// routePattern keeps label cardinality bounded: raw paths with ids are never used
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}
