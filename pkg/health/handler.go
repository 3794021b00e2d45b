package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// LivenessHandler answers 200 while the process is serving requests.
func LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusOK, gin.H{"status": StatusUp})
	}
}

// ReadinessHandler runs the registry under timeout. Any failing check turns
// the probe into a 503 and is logged with its message.
func ReadinessHandler(registry *Registry, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		response := registry.CheckAll(ctx)

		c.Header("Cache-Control", "no-store")
		if response.Status == StatusUp {
			c.JSON(http.StatusOK, response)
			return
		}

		for _, check := range response.Checks {
			if check.Status == StatusDown {
				slog.WarnContext(ctx, "Readiness check failed",
					"check", check.Name,
					"message", check.Message)
			}
		}
		c.JSON(http.StatusServiceUnavailable, response)
	}
}
