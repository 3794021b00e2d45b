//go:build integration

package api_test

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"ReelMarket/config"
	"ReelMarket/internal/api"
	"ReelMarket/internal/api/domain/actor"
	"ReelMarket/internal/api/domain/order"
	"ReelMarket/internal/api/domain/wallet"
	"ReelMarket/internal/api/external/kafka"
	"ReelMarket/internal/api/external/stripe"
	"ReelMarket/internal/api/webhook"
	"ReelMarket/internal/testinfra"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var suite *testinfra.TestSuite

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	suite, err = testinfra.NewTestSuite(ctx, testinfra.SuiteOptions{WithKafka: true})
	if err != nil {
		log.Fatalf("start test suite: %v", err)
	}

	code := m.Run()
	suite.Cleanup(ctx)
	os.Exit(code)
}

func testConfig() config.Config {
	return config.Config{
		PgURL:                      suite.Postgres.DSN,
		Currency:                   "USD",
		EscrowAccountID:            testinfra.EscrowAccountID,
		JWTSecret:                  "integration-secret",
		JWTIssuer:                  "reelmarket-test",
		StripeBaseURL:              suite.Stripe.URL(),
		StripeSecretKey:            testinfra.StripeSecretKey,
		StripeWebhookSecret:        testinfra.StripeWebhookSecret,
		StripeWebhookTolerance:     5 * time.Minute,
		HTTPGatewayClientTimeout:   5 * time.Second,
		WebhookMode:                "sync",
		KafkaPaymentsTopic:         suite.Kafka.PaymentsTopic,
		KafkaPaymentsConsumerGroup: suite.Kafka.PaymentsGroup,
		KafkaPaymentsDLQTopic:      suite.Kafka.PaymentsDLQTopic,
		KafkaNotificationsTopic:    suite.Kafka.NotificationsTopic,
	}
}

type fixture struct {
	services   *api.Services
	customer   actor.Actor
	restaurant actor.Actor
	reelID     uuid.UUID
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, suite.Postgres.Truncate(ctx))

	services, err := api.BuildServices(ctx, testConfig(), suite.Postgres.Pool)
	require.NoError(t, err)
	t.Cleanup(services.Close)

	f := fixture{
		services:   services,
		customer:   actor.New(uuid.New(), actor.RoleCustomer),
		restaurant: actor.New(uuid.New(), actor.RoleRestaurant),
		reelID:     uuid.New(),
	}
	_, err = suite.Postgres.Pool.Pool.Exec(ctx,
		`INSERT INTO reels (id, restaurant_id, dish_name, price, currency, is_active) VALUES ($1, $2, 'Birria tacos', 12.00, 'USD', TRUE)`,
		f.reelID, f.restaurant.ID)
	require.NoError(t, err)
	return f
}

func (f fixture) fundCustomer(t *testing.T, amount string) {
	t.Helper()
	_, err := f.services.Wallet.CreditWalletAfterPayment(context.Background(), f.customer.ID, decimal.RequireFromString(amount), "seed-"+uuid.NewString())
	require.NoError(t, err)
}

func (f fixture) balance(t *testing.T, id uuid.UUID) string {
	t.Helper()
	acc, err := f.services.Wallet.GetBalance(context.Background(), id)
	require.NoError(t, err)
	return acc.Balance.StringFixed(2)
}

func (f fixture) createOrder(t *testing.T, method order.PaymentMethod, quantity int) order.Order {
	t.Helper()
	res, err := f.services.Orders.CreateOrder(context.Background(), f.customer, order.CreateOrderRequest{
		ReelID:        f.reelID,
		Quantity:      quantity,
		PaymentMethod: method,
	})
	require.NoError(t, err)
	return res.Order
}

func (f fixture) refunds(t *testing.T, id uuid.UUID) []wallet.Transaction {
	t.Helper()
	txs, err := f.services.Wallet.GetTransactions(context.Background(), wallet.TransactionQuery{
		AccountID: f.customer.ID,
		Types:     []wallet.TransactionType{wallet.TypeRefund},
		OrderIDs:  []string{id.String()},
	})
	require.NoError(t, err)
	return txs
}

func eventKinds(t *testing.T, f fixture, id uuid.UUID) []order.OrderEventKind {
	t.Helper()
	page, err := f.services.Orders.GetEvents(context.Background(), f.customer, order.OrderEventQuery{
		OrderIDs: []uuid.UUID{id},
		Limit:    100,
		SortAsc:  true,
	})
	require.NoError(t, err)
	kinds := make([]order.OrderEventKind, 0, len(page.Items))
	for _, e := range page.Items {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func TestWalletOrder_FullLifecycle(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	escrow := uuid.MustParse(testinfra.EscrowAccountID)

	// given
	f.fundCustomer(t, "50.00")
	o := f.createOrder(t, order.PaymentWallet, 2)
	require.Equal(t, order.StatusPendingPayment, o.Status)

	// when
	_, err := f.services.Payments.PayWithWallet(ctx, f.customer, o.ID)
	require.NoError(t, err)

	// then
	assert.Equal(t, "26.00", f.balance(t, f.customer.ID))
	assert.Equal(t, "24.00", f.balance(t, escrow))

	// when
	_, err = f.services.Orders.Accept(ctx, o.ID, f.restaurant)
	require.NoError(t, err)
	_, err = f.services.Orders.StartPreparing(ctx, o.ID, f.restaurant, order.StartPreparingRequest{})
	require.NoError(t, err)
	_, err = f.services.Orders.MarkReady(ctx, o.ID, f.restaurant, order.MarkReadyRequest{})
	require.NoError(t, err)
	res, err := f.services.Orders.Complete(ctx, o.ID, f.customer)
	require.NoError(t, err)

	// then
	assert.Equal(t, order.StatusCompleted, res.Order.Status)
	assert.Equal(t, order.PaymentPaid, res.Order.PaymentStatus)
	assert.Equal(t, "24.00", f.balance(t, f.restaurant.ID))
	assert.Equal(t, "0.00", f.balance(t, escrow))
	assert.Subset(t, eventKinds(t, f, o.ID), []order.OrderEventKind{
		order.OrderEventCreated, order.OrderEventPaid, order.OrderEventAccepted,
		order.OrderEventSettled, order.OrderEventCompleted,
	})
}

func TestWalletOrder_InsufficientFundsLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	// given
	f.fundCustomer(t, "10.00")
	o := f.createOrder(t, order.PaymentWallet, 1)

	// when
	_, err := f.services.Payments.PayWithWallet(ctx, f.customer, o.ID)

	// then
	require.Error(t, err)
	assert.Equal(t, "10.00", f.balance(t, f.customer.ID))
	stored, err := f.services.Orders.GetOrderByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPendingPayment, stored.Status)
	assert.Equal(t, order.PaymentUnpaid, stored.PaymentStatus)
}

func TestWalletOrder_CancelRefundsFromEscrow(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	escrow := uuid.MustParse(testinfra.EscrowAccountID)

	// given
	f.fundCustomer(t, "30.00")
	o := f.createOrder(t, order.PaymentWallet, 2)
	_, err := f.services.Payments.PayWithWallet(ctx, f.customer, o.ID)
	require.NoError(t, err)

	// when
	res, err := f.services.Orders.Cancel(ctx, o.ID, f.customer, order.CancelRequest{Reason: "changed my mind"})

	// then
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, res.Order.Status)
	assert.Equal(t, order.PaymentRefunded, res.Order.PaymentStatus)
	assert.Equal(t, "30.00", f.balance(t, f.customer.ID))
	assert.Equal(t, "0.00", f.balance(t, escrow))

	// when cancelled again
	_, err = f.services.Orders.Cancel(ctx, o.ID, f.customer, order.CancelRequest{})

	// then
	assert.ErrorIs(t, err, order.ErrInFinalStatus)
	assert.Equal(t, "30.00", f.balance(t, f.customer.ID))
}

func TestWalletOrder_CancelAfterAcceptClawsBackFromRestaurant(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	escrow := uuid.MustParse(testinfra.EscrowAccountID)

	// given
	f.fundCustomer(t, "50.00")
	o := f.createOrder(t, order.PaymentWallet, 2)
	_, err := f.services.Payments.PayWithWallet(ctx, f.customer, o.ID)
	require.NoError(t, err)
	_, err = f.services.Orders.Accept(ctx, o.ID, f.restaurant)
	require.NoError(t, err)
	require.Equal(t, "24.00", f.balance(t, f.restaurant.ID))

	// when
	res, err := f.services.Orders.Cancel(ctx, o.ID, f.customer, order.CancelRequest{Reason: "running late"})

	// then
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, res.Order.Status)
	assert.Equal(t, order.PaymentRefunded, res.Order.PaymentStatus)
	assert.Len(t, f.refunds(t, o.ID), 1)
	assert.Equal(t, "50.00", f.balance(t, f.customer.ID))
	assert.Equal(t, "0.00", f.balance(t, f.restaurant.ID))
	assert.Equal(t, "0.00", f.balance(t, escrow))
}

func TestWalletOrder_ConcurrentCancelsRefundOnce(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name   string
		accept bool
	}{
		{name: "pending order refunded from escrow"},
		{name: "accepted order refunded from restaurant", accept: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			f := setup(t)
			f.fundCustomer(t, "24.00")
			o := f.createOrder(t, order.PaymentWallet, 2)
			_, err := f.services.Payments.PayWithWallet(ctx, f.customer, o.ID)
			require.NoError(t, err)
			if tc.accept {
				_, err = f.services.Orders.Accept(ctx, o.ID, f.restaurant)
				require.NoError(t, err)
			}
			customerBefore := f.balance(t, f.customer.ID)

			// when
			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				successes int
				failures  []error
			)
			for _, act := range []actor.Actor{f.customer, f.restaurant, f.customer, f.restaurant} {
				wg.Add(1)
				go func(act actor.Actor) {
					defer wg.Done()
					_, err := f.services.Orders.Cancel(ctx, o.ID, act, order.CancelRequest{Reason: "race"})
					mu.Lock()
					defer mu.Unlock()
					if err == nil {
						successes++
						return
					}
					failures = append(failures, err)
				}(act)
			}
			wg.Wait()

			// then
			assert.Equal(t, 1, successes)
			for _, err := range failures {
				assert.True(t,
					errors.Is(err, order.ErrStatusConflict) || errors.Is(err, order.ErrInFinalStatus) ||
						errors.Is(err, order.ErrInvalidTransition),
					"unexpected error: %v", err)
			}
			stored, err := f.services.Orders.GetOrderByID(ctx, o.ID)
			require.NoError(t, err)
			assert.Equal(t, order.PaymentRefunded, stored.PaymentStatus)
			assert.Len(t, f.refunds(t, o.ID), 1)
			assert.Equal(t, "0.00", customerBefore)
			assert.Equal(t, "24.00", f.balance(t, f.customer.ID))
			assert.Equal(t, "0.00", f.balance(t, f.restaurant.ID))
		})
	}
}

func TestAccept_ConcurrentRestaurantsSettleOnce(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	// given
	f.fundCustomer(t, "12.00")
	o := f.createOrder(t, order.PaymentWallet, 1)
	_, err := f.services.Payments.PayWithWallet(ctx, f.customer, o.ID)
	require.NoError(t, err)

	// when
	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.services.Orders.Accept(ctx, o.ID, f.restaurant)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			failures = append(failures, err)
		}()
	}
	wg.Wait()

	// then
	assert.Equal(t, 1, successes)
	for _, err := range failures {
		assert.True(t,
			errors.Is(err, order.ErrStatusConflict) || errors.Is(err, order.ErrInvalidTransition),
			"unexpected error: %v", err)
	}
	assert.Equal(t, "12.00", f.balance(t, f.restaurant.ID))
	assert.Equal(t, "0.00", f.balance(t, f.customer.ID))
}

func TestCardOrder_WebhookIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	signer := func(at time.Time, payload []byte) string {
		return stripe.SignatureHeader(testinfra.StripeWebhookSecret, at, payload)
	}

	// given
	o := f.createOrder(t, order.PaymentCard, 1)
	card, err := f.services.Payments.StartCardPayment(ctx, f.customer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentPending, card.Order.PaymentStatus)

	again, err := f.services.Payments.StartCardPayment(ctx, f.customer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, card.PaymentIntentID, again.PaymentIntentID)

	suite.Stripe.SetStatus(card.PaymentIntentID, "succeeded")
	payload, sig := suite.Stripe.Webhook("evt_1", "payment_intent.succeeded", card.PaymentIntentID, signer)
	processor := webhook.NewSyncProcessor(f.services.Payments)

	// when
	require.NoError(t, processor.Process(ctx, payload, sig))
	require.NoError(t, processor.Process(ctx, payload, sig))

	// then
	stored, err := f.services.Orders.GetOrderByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, stored.Status)
	assert.Equal(t, order.PaymentPaid, stored.PaymentStatus)

	paid := 0
	for _, k := range eventKinds(t, f, o.ID) {
		if k == order.OrderEventPaid {
			paid++
		}
	}
	assert.Equal(t, 1, paid)

	// when the client confirms after the webhook
	conf, err := f.services.Payments.ConfirmPayment(ctx, f.customer, card.PaymentIntentID)

	// then
	require.NoError(t, err)
	assert.False(t, conf.Applied)
}

func TestCardOrder_KafkaWebhookMode(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := setup(t)

	cfg := testConfig()
	cfg.KafkaBrokers = suite.Kafka.Brokers
	cfg.WebhookMode = "kafka"
	api.StartWorkers(ctx, cfg, f.services.Payments)

	pub := kafka.NewPublisher(suite.Kafka.Brokers, suite.Kafka.PaymentsTopic)
	defer pub.Close()
	processor := webhook.NewAsyncProcessor(f.services.Gateway, pub)

	// given
	o := f.createOrder(t, order.PaymentCard, 1)
	card, err := f.services.Payments.StartCardPayment(ctx, f.customer, o.ID)
	require.NoError(t, err)
	suite.Stripe.SetStatus(card.PaymentIntentID, "succeeded")
	payload, sig := suite.Stripe.Webhook("evt_kafka", "payment_intent.succeeded", card.PaymentIntentID,
		func(at time.Time, payload []byte) string {
			return stripe.SignatureHeader(testinfra.StripeWebhookSecret, at, payload)
		})

	// when
	require.NoError(t, processor.Process(ctx, payload, sig))

	// then
	require.Eventually(t, func() bool {
		stored, err := f.services.Orders.GetOrderByID(ctx, o.ID)
		return err == nil && stored.PaymentStatus == order.PaymentPaid
	}, 30*time.Second, 250*time.Millisecond)
}
