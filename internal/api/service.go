package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"ReelMarket/config"
	"ReelMarket/internal/api/auth"
	"ReelMarket/internal/api/domain/order"
	"ReelMarket/internal/api/domain/payment"
	"ReelMarket/internal/api/domain/wallet"
	"ReelMarket/internal/api/external/kafka"
	"ReelMarket/internal/api/external/opensearch"
	"ReelMarket/internal/api/external/stripe"
	"ReelMarket/internal/api/notification"
	ledger_repo "ReelMarket/internal/api/repo/ledger"
	order_repo "ReelMarket/internal/api/repo/order"
	reel_repo "ReelMarket/internal/api/repo/reel"
	"ReelMarket/pkg/postgres"

	"github.com/google/uuid"
)

// Services is the dependency graph shared by the HTTP server, the Kafka
// workers and opsctl.
type Services struct {
	Orders   *order.OrderService
	Payments *payment.PaymentService
	Wallet   *wallet.WalletService
	Tokens   *auth.TokenManager
	Gateway  *stripe.Client

	// Indexer is nil unless OPENSEARCH_URLS is set.
	Indexer *opensearch.NotificationIndexer

	closers []func() error
}

// Close releases the publishers opened by BuildServices.
func (s *Services) Close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			slog.Warn("Close service dependency", slog.Any("error", err))
		}
	}
}

func BuildServices(ctx context.Context, cfg config.Config, pg *postgres.Postgres) (*Services, error) {
	escrowID, err := uuid.Parse(cfg.EscrowAccountID)
	if err != nil {
		return nil, fmt.Errorf("parse escrow account id: %w", err)
	}

	s := &Services{
		Tokens: auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer),
		Gateway: stripe.New(stripe.Config{
			BaseURL:          cfg.StripeBaseURL,
			SecretKey:        cfg.StripeSecretKey,
			WebhookSecret:    cfg.StripeWebhookSecret,
			WebhookTolerance: cfg.StripeWebhookTolerance,
		}, &http.Client{Timeout: cfg.HTTPGatewayClientTimeout}),
	}

	notifier, err := s.buildNotifier(ctx, cfg)
	if err != nil {
		s.Close()
		return nil, err
	}

	ledgerRepo := ledger_repo.NewPgLedgerRepo(pg)
	s.Wallet = wallet.NewWalletService(ledgerRepo, escrowID, cfg.Currency)

	orderRepo := order_repo.NewPgOrderRepo(pg)
	reels := reel_repo.NewPgReelRepo(pg.Pool, pg.Builder)
	s.Orders = order.NewOrderService(orderRepo, reels, s.Wallet, notifier, cfg.Currency)

	s.Payments = payment.NewPaymentService(s.Orders, s.Wallet, s.Gateway, cfg.Currency)
	return s, nil
}

func (s *Services) buildNotifier(ctx context.Context, cfg config.Config) (order.Notifier, error) {
	sinks := []notification.Sink{{Name: "log", Notifier: notification.Logging{}}}

	if cfg.KafkaEnabled() {
		pub := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaNotificationsTopic)
		s.closers = append(s.closers, pub.Close)
		sinks = append(sinks, notification.Sink{Name: "kafka", Notifier: notification.NewKafkaNotifier(pub)})
	}

	if len(cfg.OpensearchUrls) > 0 {
		indexer, err := opensearch.NewNotificationIndexer(ctx, cfg.OpensearchUrls, cfg.OpensearchIndexOrders)
		if err != nil {
			return nil, fmt.Errorf("create notification indexer: %w", err)
		}
		s.Indexer = indexer
		sinks = append(sinks, notification.Sink{Name: "opensearch", Notifier: indexer})
	}

	return notification.NewFanout(sinks...), nil
}
