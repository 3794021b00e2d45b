package api

import (
	"context"
	"log/slog"

	"ReelMarket/config"
	"ReelMarket/internal/api/consumers"
	"ReelMarket/internal/api/external/kafka"
	"ReelMarket/internal/api/messaging"
)

// StartWorkers starts the payment event consumer. It runs in a separate
// goroutine and stops when ctx is cancelled.
func StartWorkers(ctx context.Context, cfg config.Config, payments consumers.PaymentEventApplier) {
	dlqPub := kafka.NewDLQPublisher(cfg.KafkaBrokers, cfg.KafkaPaymentsDLQTopic)

	// Payment events consumer with metrics + retry + DLQ middleware
	controller := consumers.NewPaymentEventController(payments)
	handler := messaging.WithMetrics(
		cfg.KafkaPaymentsTopic,
		cfg.KafkaPaymentsConsumerGroup,
		messaging.WithDLQ(
			messaging.WithRetry(controller.HandleMessage, messaging.DefaultRetryConfig()),
			dlqPub,
		),
	)
	consumer := kafka.NewConsumer(
		cfg.KafkaBrokers,
		cfg.KafkaPaymentsTopic,
		cfg.KafkaPaymentsConsumerGroup,
	)
	runner := messaging.NewRunner([]messaging.Worker{consumer}, handler)

	go func() {
		defer dlqPub.Close()

		slog.Info("Starting payment events consumer",
			"topic", cfg.KafkaPaymentsTopic,
			"group", cfg.KafkaPaymentsConsumerGroup)
		if err := runner.Start(ctx); err != nil {
			slog.Error("Payment events runner failed", slog.Any("error", err))
		}
	}()
}
