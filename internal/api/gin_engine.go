package api

import (
	"ReelMarket/pkg/logger"
	"ReelMarket/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// NewGinEngine logs request bodies except for the webhook route, whose raw
// payload carries card metadata. Probes and scrapes are not measured.
func NewGinEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(
		logger.CorrelationMiddleware(),
		metrics.GinMiddleware("/metrics", "/health/live", "/health/ready"),
		logger.RequestLogger("/webhooks/payments"),
		gin.Recovery(),
	)
	return engine
}
