package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// GinMiddleware records latency, totals and in-flight requests per route
// template. Paths passed in skip are not measured, which keeps probe and
// scrape traffic out of the API series. Unmatched routes share the
// "unknown" label.
func GinMiddleware(skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if _, ok := skipped[route]; ok {
			c.Next()
			return
		}
		if route == "" {
			route = "unknown"
		}

		HTTPRequestsInFlight.Inc()
		start := time.Now()
		c.Next()
		HTTPRequestsInFlight.Dec()

		status := strconv.Itoa(c.Writer.Status())
		HTTPRequestDuration.WithLabelValues(route, c.Request.Method, status).Observe(time.Since(start).Seconds())
		HTTPRequestsTotal.WithLabelValues(route, c.Request.Method, status).Inc()
	}
}
