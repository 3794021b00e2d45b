package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ReelMarket/internal/api/domain/actor"
	"ReelMarket/internal/api/domain/gateway"
	"ReelMarket/internal/api/domain/order"
	"ReelMarket/internal/api/domain/wallet"
	"ReelMarket/pkg/metrics"

	"github.com/google/uuid"
)

const defaultReconcileBatch = 100

// PaymentService reconciles wallet charges, client confirmations and gateway
// webhooks against orders. Every path ends in order.MarkPaid.
type PaymentService struct {
	orders   Orders
	wallet   Wallet
	gateway  gateway.Provider
	currency string
}

func NewPaymentService(orders Orders, wallet Wallet, provider gateway.Provider, currency string) *PaymentService {
	return &PaymentService{
		orders:   orders,
		wallet:   wallet,
		gateway:  provider,
		currency: currency,
	}
}

// PayWithWallet charges the customer's wallet inside the mark-paid transaction.
func (s *PaymentService) PayWithWallet(ctx context.Context, act actor.Actor, orderID uuid.UUID) (order.Result, error) {
	if !act.Is(actor.RoleCustomer) {
		return order.Result{}, fmt.Errorf("%w: only customers pay for orders", order.ErrForbidden)
	}

	o, err := s.orders.GetOrderForActor(ctx, orderID, act)
	if err != nil {
		return order.Result{}, err
	}
	if o.PaymentMethod != order.PaymentWallet {
		return order.Result{}, fmt.Errorf("%w: order is paid by %s", order.ErrInvalidInput, o.PaymentMethod)
	}

	res, err := s.orders.MarkPaid(ctx, order.MarkPaidCommand{
		OrderID: o.ID,
		Source:  SourceWallet,
		Charge: func(ctx context.Context, o order.Order) error {
			_, err := s.wallet.Pay(ctx, wallet.PayRequest{
				CustomerID: o.CustomerID,
				OrderID:    o.ID.String(),
				Amount:     o.TotalPrice,
			})
			return err
		},
	})
	s.record(ctx, SourceWallet, "charge", err)
	return res, err
}

// StartCardPayment creates (or reuses) a gateway intent for a card order and
// marks the order payment pending. A gateway failure leaves the order untouched.
func (s *PaymentService) StartCardPayment(ctx context.Context, act actor.Actor, orderID uuid.UUID) (CardPayment, error) {
	if !act.Is(actor.RoleCustomer) {
		return CardPayment{}, fmt.Errorf("%w: only customers pay for orders", order.ErrForbidden)
	}

	o, err := s.orders.GetOrderForActor(ctx, orderID, act)
	if err != nil {
		return CardPayment{}, err
	}
	if o.PaymentMethod != order.PaymentCard {
		return CardPayment{}, fmt.Errorf("%w: order is paid by %s", order.ErrInvalidInput, o.PaymentMethod)
	}
	if o.Status.IsTerminal() {
		return CardPayment{}, fmt.Errorf("%w: order is %s", order.ErrInFinalStatus, o.Status)
	}
	if o.Status != order.StatusPendingPayment || o.PaymentStatus.Settled() {
		return CardPayment{}, fmt.Errorf("%w: order does not await payment", order.ErrInvalidTransition)
	}

	key := "order:" + o.ID.String() + ":intent"
	if o.PaymentIntentID != nil {
		current, err := s.gateway.GetIntent(ctx, *o.PaymentIntentID)
		if err != nil {
			return CardPayment{}, fmt.Errorf("get payment intent: %w", err)
		}
		if current.Status.Reusable() {
			return CardPayment{
				Order:           o,
				PaymentIntentID: current.ID,
				ClientSecret:    current.ClientSecret,
				Status:          current.Status,
			}, nil
		}
		if current.Status == gateway.IntentSucceeded {
			return CardPayment{}, fmt.Errorf("%w: intent %s already succeeded, confirm it instead", order.ErrInvalidTransition, current.ID)
		}
		key += ":after:" + current.ID
	}

	intent, err := s.gateway.CreateIntent(ctx, gateway.IntentRequest{
		Amount:         o.TotalPrice,
		Currency:       o.Currency,
		PayerRef:       o.CustomerID.String(),
		Purpose:        gateway.PurposeOrderPayment,
		OrderID:        o.ID.String(),
		Description:    fmt.Sprintf("%d x %s", o.Quantity, o.DishName),
		IdempotencyKey: key,
	})
	if err != nil {
		return CardPayment{}, fmt.Errorf("create payment intent: %w", err)
	}

	res, err := s.orders.AttachPaymentIntent(ctx, o.ID, intent.ID)
	if err != nil {
		return CardPayment{}, fmt.Errorf("attach payment intent: %w", err)
	}

	slog.InfoContext(ctx, "Card payment started",
		"order_id", o.ID,
		"payment_intent_id", intent.ID)

	return CardPayment{
		Order:           res.Order,
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Status:          intent.Status,
	}, nil
}

// ConfirmPayment is the client-side confirmation. The intent state is always
// read from the gateway, never taken from the client.
func (s *PaymentService) ConfirmPayment(ctx context.Context, act actor.Actor, intentID string) (Confirmation, error) {
	if !act.Is(actor.RoleCustomer) {
		return Confirmation{}, fmt.Errorf("%w: only customers confirm payments", order.ErrForbidden)
	}
	if strings.TrimSpace(intentID) == "" {
		return Confirmation{}, fmt.Errorf("%w: payment_intent_id is required", order.ErrInvalidInput)
	}

	intent, err := s.gateway.GetIntent(ctx, intentID)
	if err != nil {
		return Confirmation{}, fmt.Errorf("get payment intent: %w", err)
	}
	if intent.PayerRef != act.ID.String() {
		return Confirmation{}, fmt.Errorf("%w: payment intent belongs to another customer", order.ErrForbidden)
	}

	conf, err := s.applyIntent(ctx, SourceConfirm, "", intent)
	s.record(ctx, SourceConfirm, string(intent.Status), err)
	return conf, err
}

// HandleWebhook authenticates a raw gateway notification and applies it.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		s.record(ctx, SourceWebhook, "unverified", err)
		return fmt.Errorf("verify webhook: %w", err)
	}
	return s.ApplyEvent(ctx, ev)
}

// ApplyEvent applies a verified gateway event. Events for orders this
// deployment does not know are acknowledged and logged.
func (s *PaymentService) ApplyEvent(ctx context.Context, ev gateway.Event) error {
	var err error
	switch ev.Kind {
	case gateway.EventPaymentSucceeded:
		if ev.Intent.Status == "" {
			ev.Intent.Status = gateway.IntentSucceeded
		}
		_, err = s.applyIntent(ctx, SourceWebhook, ev.ID, ev.Intent)
	case gateway.EventPaymentFailed, gateway.EventPaymentCanceled:
		_, err = s.applyFailure(ctx, ev.ID, ev.Intent, failureReason(ev))
	default:
		err = fmt.Errorf("%w: %s", gateway.ErrUnknownEventKind, ev.Kind)
	}

	if errors.Is(err, order.ErrNotFound) {
		slog.WarnContext(ctx, "Payment event for unknown order acknowledged",
			"event_id", ev.ID,
			"payment_intent_id", ev.Intent.ID)
		err = nil
	}
	s.record(ctx, SourceWebhook, string(ev.Kind), err)
	return err
}

// StartTopUp creates a gateway intent that credits the wallet on success.
func (s *PaymentService) StartTopUp(ctx context.Context, act actor.Actor, req TopUpRequest) (TopUp, error) {
	if !act.Is(actor.RoleCustomer) {
		return TopUp{}, fmt.Errorf("%w: only customers top up wallets", order.ErrForbidden)
	}
	if err := wallet.ValidateAmount(req.Amount); err != nil {
		return TopUp{}, fmt.Errorf("%w: %s", ErrInvalidTopUp, err.Error())
	}
	if req.Amount.LessThan(MinTopUp) || req.Amount.GreaterThan(MaxTopUp) {
		return TopUp{}, fmt.Errorf("%w: must be between %s and %s", ErrInvalidTopUp, MinTopUp.StringFixed(2), MaxTopUp.StringFixed(2))
	}

	ref := req.IdempotencyKey
	if ref == "" {
		ref = uuid.NewString()
	}

	intent, err := s.gateway.CreateIntent(ctx, gateway.IntentRequest{
		Amount:         req.Amount,
		Currency:       s.currency,
		PayerRef:       act.ID.String(),
		Purpose:        gateway.PurposeWalletTopUp,
		Description:    "Wallet top-up",
		IdempotencyKey: "wallet:" + act.ID.String() + ":topup:" + ref,
	})
	if err != nil {
		return TopUp{}, fmt.Errorf("create payment intent: %w", err)
	}

	return TopUp{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          intent.Amount,
		Currency:        intent.Currency,
		Status:          intent.Status,
	}, nil
}

// ReconcilePending re-reads card intents the platform still considers pending
// and applies whatever the gateway reports. Errors on single orders are
// counted and do not stop the sweep.
func (s *PaymentService) ReconcilePending(ctx context.Context, limit int) (ReconcileReport, error) {
	if limit <= 0 || limit > order.MaxPageSize {
		limit = defaultReconcileBatch
	}

	query, err := order.NewOrdersQueryBuilder().
		WithPaymentMethods(order.PaymentCard).
		WithPaymentStatuses(order.PaymentPending).
		WithSort("updated_at", "asc").
		WithPagination(order.Pagination{PageSize: limit, PageNumber: 1}).
		Build()
	if err != nil {
		return ReconcileReport{}, err
	}

	orders, err := s.orders.FindOrders(ctx, *query)
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("find pending orders: %w", err)
	}

	var report ReconcileReport
	for _, o := range orders {
		report.Scanned++
		if o.PaymentIntentID == nil {
			report.Pending++
			continue
		}

		intent, err := s.gateway.GetIntent(ctx, *o.PaymentIntentID)
		if err != nil {
			report.Errors++
			slog.ErrorContext(ctx, "Reconcile: failed to read payment intent",
				"order_id", o.ID,
				"payment_intent_id", *o.PaymentIntentID,
				slog.Any("error", err))
			continue
		}

		switch {
		case intent.Status == gateway.IntentSucceeded:
			_, err = s.applyIntent(ctx, SourceReconcile, "", intent)
			if err == nil {
				report.Paid++
			}
		case intent.Status == gateway.IntentCanceled:
			_, err = s.applyFailure(ctx, "reconcile:"+intent.ID, intent, "intent canceled or expired")
			if err == nil {
				report.Failed++
			}
		default:
			report.Pending++
		}

		s.record(ctx, SourceReconcile, string(intent.Status), err)
		if err != nil {
			report.Errors++
			slog.ErrorContext(ctx, "Reconcile: failed to apply payment intent",
				"order_id", o.ID,
				"payment_intent_id", intent.ID,
				slog.Any("error", err))
		}
	}

	slog.InfoContext(ctx, "Reconciled pending card payments",
		"scanned", report.Scanned,
		"paid", report.Paid,
		"failed", report.Failed,
		"pending", report.Pending,
		"errors", report.Errors)
	return report, nil
}

// applyIntent dispatches on intent status, then on purpose.
func (s *PaymentService) applyIntent(ctx context.Context, source, eventID string, intent gateway.Intent) (Confirmation, error) {
	switch intent.Status {
	case gateway.IntentSucceeded:
		return s.applySuccess(ctx, source, eventID, intent)
	case gateway.IntentCanceled:
		return s.applyFailure(ctx, eventID, intent, "intent canceled")
	case gateway.IntentRequiresPaymentMethod, gateway.IntentRequiresConfirmation,
		gateway.IntentRequiresAction, gateway.IntentProcessing:
		return Confirmation{Purpose: intent.Purpose, Status: intent.Status}, nil
	default:
		return Confirmation{}, fmt.Errorf("%w: intent status %q", gateway.ErrMalformedEvent, intent.Status)
	}
}

func (s *PaymentService) applySuccess(ctx context.Context, source, eventID string, intent gateway.Intent) (Confirmation, error) {
	conf := Confirmation{Purpose: intent.Purpose, Status: intent.Status}

	switch intent.Purpose {
	case gateway.PurposeOrderPayment:
		o, err := s.orderForIntent(ctx, intent)
		if err != nil {
			return Confirmation{}, err
		}

		res, err := s.orders.MarkPaid(ctx, order.MarkPaidCommand{
			OrderID:         o.ID,
			PaymentIntentID: intent.ID,
			Source:          source,
			ProviderEventID: eventID,
			Charge:          verifyCapture(intent),
		})
		if errors.Is(err, order.ErrIntentMismatch) {
			return s.creditStrayCapture(ctx, o, intent)
		}
		if err != nil {
			return Confirmation{}, fmt.Errorf("mark order paid: %w", err)
		}
		conf.Order = &res.Order
		conf.Applied = res.Notify
		return conf, nil

	case gateway.PurposeWalletTopUp:
		payer, err := uuid.Parse(intent.PayerRef)
		if err != nil {
			return Confirmation{}, fmt.Errorf("%w: payer %q", gateway.ErrMalformedEvent, intent.PayerRef)
		}
		res, err := s.wallet.CreditWalletAfterPayment(ctx, payer, intent.Amount, intent.ID)
		if err != nil {
			return Confirmation{}, fmt.Errorf("credit wallet: %w", err)
		}
		conf.Wallet = &res
		conf.Applied = !res.Replayed
		return conf, nil

	default:
		return Confirmation{}, fmt.Errorf("%w: %q", gateway.ErrUnknownPurpose, intent.Purpose)
	}
}

func (s *PaymentService) applyFailure(ctx context.Context, eventID string, intent gateway.Intent, reason string) (Confirmation, error) {
	conf := Confirmation{Purpose: intent.Purpose, Status: intent.Status}

	switch intent.Purpose {
	case gateway.PurposeOrderPayment:
		o, err := s.orderForIntent(ctx, intent)
		if err != nil {
			return Confirmation{}, err
		}
		res, err := s.orders.MarkPaymentFailed(ctx, order.PaymentFailedCommand{
			OrderID:         o.ID,
			PaymentIntentID: intent.ID,
			ProviderEventID: eventID,
			Reason:          reason,
		})
		if err != nil {
			return Confirmation{}, fmt.Errorf("mark payment failed: %w", err)
		}
		conf.Order = &res.Order
		conf.Applied = res.Notify
		return conf, nil

	case gateway.PurposeWalletTopUp:
		slog.InfoContext(ctx, "Wallet top-up failed",
			"payment_intent_id", intent.ID,
			"payer", intent.PayerRef,
			"reason", reason)
		return conf, nil

	default:
		return Confirmation{}, fmt.Errorf("%w: %q", gateway.ErrUnknownPurpose, intent.Purpose)
	}
}

// creditStrayCapture handles a capture on an intent the order no longer holds.
// The customer was charged twice, so the second capture becomes store credit.
func (s *PaymentService) creditStrayCapture(ctx context.Context, o order.Order, intent gateway.Intent) (Confirmation, error) {
	res, err := s.wallet.CreditWalletAfterPayment(ctx, o.CustomerID, intent.Amount, intent.ID)
	if err != nil {
		return Confirmation{}, fmt.Errorf("credit superseded capture: %w", err)
	}
	slog.WarnContext(ctx, "Capture on superseded payment intent credited to wallet",
		"order_id", o.ID,
		"payment_intent_id", intent.ID,
		"replayed", res.Replayed)
	return Confirmation{
		Purpose: intent.Purpose,
		Status:  intent.Status,
		Order:   &o,
		Wallet:  &res,
		Applied: !res.Replayed,
	}, nil
}

func (s *PaymentService) orderForIntent(ctx context.Context, intent gateway.Intent) (order.Order, error) {
	if intent.OrderID != "" {
		id, err := uuid.Parse(intent.OrderID)
		if err != nil {
			return order.Order{}, fmt.Errorf("%w: order id %q", gateway.ErrMalformedEvent, intent.OrderID)
		}
		return s.orders.GetOrderByID(ctx, id)
	}
	return s.orders.GetOrderByPaymentIntent(ctx, intent.ID)
}

// verifyCapture checks the intent against the order inside the mark-paid transaction.
func verifyCapture(intent gateway.Intent) order.ChargeFunc {
	return func(_ context.Context, o order.Order) error {
		if intent.Status != gateway.IntentSucceeded {
			return fmt.Errorf("%w: intent %s is %s", ErrPaymentNotSucceeded, intent.ID, intent.Status)
		}
		if !intent.Amount.Equal(o.TotalPrice) || !strings.EqualFold(intent.Currency, o.Currency) {
			return fmt.Errorf("%w: captured %s %s, order total %s %s", ErrAmountMismatch,
				intent.Amount.StringFixed(2), intent.Currency, o.TotalPrice.StringFixed(2), o.Currency)
		}
		return nil
	}
}

func failureReason(ev gateway.Event) string {
	if ev.Intent.LastError != "" {
		return ev.Intent.LastError
	}
	return string(ev.Kind)
}

func (s *PaymentService) record(ctx context.Context, source, kind string, err error) {
	metrics.PaymentEventsTotal.WithLabelValues(source, kind, metrics.Outcome(err)).Inc()
	if err != nil {
		slog.WarnContext(ctx, "Payment event not applied",
			"source", source,
			"kind", kind,
			slog.Any("error", err))
	}
}
