package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ReelMarket/config"
	"ReelMarket/internal/api/external/kafka"
	"ReelMarket/internal/api/handlers"
	"ReelMarket/internal/api/webhook"
	"ReelMarket/pkg/health"
	"ReelMarket/pkg/logger"
	"ReelMarket/pkg/postgres"
)

const shutdownTimeout = 10 * time.Second

func Run(cfg config.Config) error {
	logger.Setup(logger.Options{
		Level:   cfg.LogLevel,
		Console: cfg.LogFormat == "console",
		Service: "reelmarket-api",
	})

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := postgres.New(cfg.PgURL, postgres.MaxPoolSize(cfg.PgPoolMax))
	if err != nil {
		return fmt.Errorf("api - Run - postgres.New: %w", err)
	}
	defer pool.Close()

	if err := ApplyMigrations(cfg.PgURL, MigrationFS); err != nil {
		return fmt.Errorf("api - Run - ApplyMigrations: %w", err)
	}

	services, err := BuildServices(ctx, cfg, pool)
	if err != nil {
		return fmt.Errorf("api - Run - BuildServices: %w", err)
	}
	defer services.Close()

	healthRegistry := health.NewRegistry(health.NewPostgresChecker(pool.Pool, cfg.EscrowAccountID, cfg.Currency))

	var processor webhook.Processor
	switch cfg.WebhookMode {
	case "kafka":
		if !cfg.KafkaEnabled() {
			return fmt.Errorf("api - Run: WEBHOOK_MODE=kafka requires KAFKA_BROKERS")
		}
		slog.Info("Webhook mode: kafka - verified events go through the payments topic")
		pub := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaPaymentsTopic)
		defer pub.Close()
		processor = webhook.NewAsyncProcessor(services.Gateway, pub)
		StartWorkers(ctx, cfg, services.Payments)
	case "sync", "":
		slog.Info("Webhook mode: sync - events are applied in the request")
		processor = webhook.NewSyncProcessor(services.Payments)
	default:
		return fmt.Errorf("api - Run: unknown WEBHOOK_MODE %q", cfg.WebhookMode)
	}
	if cfg.KafkaEnabled() {
		topics := []string{cfg.KafkaNotificationsTopic}
		if cfg.WebhookMode == "kafka" {
			topics = append(topics, cfg.KafkaPaymentsTopic, cfg.KafkaPaymentsDLQTopic)
		}
		healthRegistry.Register(health.NewKafkaChecker(cfg.KafkaBrokers, topics...))
	}

	engine := NewGinEngine()
	router := NewRouter(
		handlers.NewOrderHandler(services.Orders),
		handlers.NewPaymentHandler(services.Payments),
		handlers.NewWalletHandler(services.Wallet),
		handlers.NewWebhookHandler(processor),
		services.Tokens,
		healthRegistry,
	)
	router.SetUp(engine)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Start HTTP server in a goroutine
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Starting API HTTP server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("api - Run - ListenAndServe: %w", err)
		}
	}

	slog.Info("Shutting down API service gracefully...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api - Run - Shutdown: %w", err)
	}
	return nil
}
