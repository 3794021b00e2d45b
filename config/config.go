package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port      int    `env:"PORT" envDefault:"3000"`
	PgURL     string `env:"PG_URL,required"`
	PgPoolMax int    `env:"PG_POOL_MAX" envDefault:"10"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Settlement currency of the deployment, ISO 4217.
	Currency        string `env:"CURRENCY" envDefault:"USD"`
	EscrowAccountID string `env:"ESCROW_ACCOUNT_ID" envDefault:"00000000-0000-0000-0000-0000000e5c00"`

	JWTSecret string `env:"JWT_SECRET,required"`
	JWTIssuer string `env:"JWT_ISSUER" envDefault:"reelmarket-identity"`

	StripeBaseURL            string        `env:"STRIPE_BASE_URL" envDefault:"https://api.stripe.com"`
	StripeSecretKey          string        `env:"STRIPE_SECRET_KEY,required"`
	StripeWebhookSecret      string        `env:"STRIPE_WEBHOOK_SECRET,required"`
	StripeWebhookTolerance   time.Duration `env:"STRIPE_WEBHOOK_TOLERANCE" envDefault:"5m"`
	HTTPGatewayClientTimeout time.Duration `env:"HTTP_GATEWAY_CLIENT_TIMEOUT" envDefault:"20s"`

	// Notifications are indexed into OpenSearch only when URLs are set.
	OpensearchUrls        []string `env:"OPENSEARCH_URLS" envSeparator:","`
	OpensearchIndexOrders string   `env:"OPENSEARCH_INDEX_ORDERS" envDefault:"order-notifications"`

	// Webhook processing mode: "sync" (direct) or "kafka" (async via Kafka)
	WebhookMode string `env:"WEBHOOK_MODE" envDefault:"sync"`

	KafkaBrokers               []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaPaymentsTopic         string   `env:"KAFKA_PAYMENTS_TOPIC" envDefault:"payments.events"`
	KafkaPaymentsConsumerGroup string   `env:"KAFKA_PAYMENTS_CONSUMER_GROUP" envDefault:"reelmarket-payments"`
	KafkaPaymentsDLQTopic      string   `env:"KAFKA_PAYMENTS_DLQ_TOPIC" envDefault:"payments.events.dlq"`
	KafkaNotificationsTopic    string   `env:"KAFKA_NOTIFICATIONS_TOPIC" envDefault:"notifications.orders"`
}

func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func New() (Config, error) {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}

	return c, nil
}
