package api

import (
	"ReelMarket/internal/api/auth"
	"ReelMarket/internal/api/domain/actor"
	"ReelMarket/internal/api/handlers"
	"ReelMarket/pkg/health"
	"ReelMarket/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	order          *handlers.OrderHandler
	payment        *handlers.PaymentHandler
	wallet         *handlers.WalletHandler
	webhook        *handlers.WebhookHandler
	tokens         *auth.TokenManager
	healthRegistry *health.Registry
}

func (r *Router) SetUp(engine *gin.Engine) {
	// Health checks (Kubernetes-style)
	engine.GET("/health/live", health.LivenessHandler())
	engine.GET("/health/ready", health.ReadinessHandler(r.healthRegistry, health.DefaultTimeout))

	// Prometheus metrics
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	// Gateway callbacks authenticate by signature, not by token
	engine.POST("/webhooks/payments", r.webhook.Payments)

	authed := engine.Group("/", auth.Middleware(r.tokens))
	customer := auth.RequireRole(actor.RoleCustomer)
	restaurant := auth.RequireRole(actor.RoleRestaurant)

	authed.POST("/orders", customer, r.order.Create)
	authed.GET("/orders", r.order.Filter)
	authed.GET("/orders/events", r.order.GetEvents)
	authed.GET("/orders/:order_id", r.order.Get)
	authed.POST("/orders/:order_id/accept", restaurant, r.order.Accept)
	authed.POST("/orders/:order_id/preparing", restaurant, r.order.StartPreparing)
	authed.POST("/orders/:order_id/ready", restaurant, r.order.MarkReady)
	authed.POST("/orders/:order_id/complete", customer, r.order.Complete)
	authed.POST("/orders/:order_id/cancel", r.order.Cancel)

	authed.POST("/orders/:order_id/payments/wallet", customer, r.payment.PayWithWallet)
	authed.POST("/orders/:order_id/payments/card", customer, r.payment.StartCard)
	authed.POST("/payments/confirm", customer, r.payment.Confirm)

	authed.GET("/wallet", r.wallet.Get)
	authed.GET("/wallet/transactions", r.wallet.Transactions)
	authed.POST("/wallet/topups", customer, r.payment.TopUp)
}

func NewRouter(
	order *handlers.OrderHandler,
	payment *handlers.PaymentHandler,
	wallet *handlers.WalletHandler,
	webhook *handlers.WebhookHandler,
	tokens *auth.TokenManager,
	healthRegistry *health.Registry,
) *Router {
	return &Router{
		order:          order,
		payment:        payment,
		wallet:         wallet,
		webhook:        webhook,
		tokens:         tokens,
		healthRegistry: healthRegistry,
	}
}
