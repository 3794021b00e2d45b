package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"ReelMarket/internal/api/domain/actor"
	"ReelMarket/internal/api/domain/wallet"
	"ReelMarket/pkg/metrics"

	"github.com/google/uuid"
)

type OrderService struct {
	repo     OrderRepo
	catalog  Catalog
	ledger   Ledger
	notifier Notifier
	currency string
	now      func() time.Time
}

func NewOrderService(repo OrderRepo, catalog Catalog, ledger Ledger, notifier Notifier, currency string) *OrderService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &OrderService{
		repo:     repo,
		catalog:  catalog,
		ledger:   ledger,
		notifier: notifier,
		currency: currency,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Result is what every lifecycle operation returns. Notify is true exactly
// when a state change committed; Notifications were already dispatched.
type Result struct {
	Order         Order          `json:"order"`
	Notify        bool           `json:"-"`
	Notifications []Notification `json:"-"`
}

// ChargeFunc collects or verifies the money for an order inside the
// mark-paid transaction. An error aborts the transition.
type ChargeFunc func(ctx context.Context, o Order) error

// MarkPaidCommand is produced by every payment confirmation path.
type MarkPaidCommand struct {
	OrderID         uuid.UUID
	PaymentIntentID string
	Source          string
	ProviderEventID string
	Charge          ChargeFunc
}

type PaymentFailedCommand struct {
	OrderID         uuid.UUID
	PaymentIntentID string
	ProviderEventID string
	Reason          string
}

// effect is one history entry a transition writes, optionally announced.
type effect struct {
	kind            OrderEventKind
	providerEventID string
	data            map[string]any
	notify          NotificationKind
}

type applyFunc func(ctx context.Context, o Order, upd *OrderUpdate) ([]effect, error)

func (s *OrderService) CreateOrder(ctx context.Context, act actor.Actor, req CreateOrderRequest) (Result, error) {
	if !act.Is(actor.RoleCustomer) {
		return Result{}, fmt.Errorf("%w: only customers place orders", ErrForbidden)
	}

	reel, err := s.catalog.GetReel(ctx, req.ReelID)
	if err != nil {
		return Result{}, fmt.Errorf("get reel: %w", err)
	}

	o, err := NewOrder(act, reel, req, s.currency, s.now())
	if err != nil {
		return Result{}, err
	}

	var res Result
	err = s.repo.InTransaction(ctx, func(ctx context.Context, tx TxOrderRepo) error {
		if err := tx.CreateOrder(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		created := effect{
			kind: OrderEventCreated,
			data: map[string]any{
				"payment_method": o.PaymentMethod,
				"total_price":    o.TotalPrice.StringFixed(2),
			},
		}
		if err := s.appendEvent(ctx, tx, o, act, created); err != nil {
			return err
		}

		res = Result{
			Order:         o,
			Notify:        true,
			Notifications: []Notification{NewNotification(NotifyPlaced, o, o.CreatedAt)},
		}
		return nil
	})
	s.observe(ctx, "create", o.ID, res.Notify, err)
	if err != nil {
		return Result{}, err
	}

	s.dispatch(ctx, res.Notifications)
	return res, nil
}

// Accept moves the order to ACCEPTED. Wallet orders are settled to the
// restaurant in the same transaction.
func (s *OrderService) Accept(ctx context.Context, id uuid.UUID, act actor.Actor) (Result, error) {
	return s.transition(ctx, id, act, ActionAccept, func(ctx context.Context, o Order, upd *OrderUpdate) ([]effect, error) {
		now := upd.UpdatedAt
		upd.AcceptedAt = &now

		settled, err := s.settle(ctx, o)
		if err != nil {
			return nil, err
		}
		return append([]effect{{kind: OrderEventAccepted, notify: NotifyAccepted}}, settled...), nil
	})
}

// StartPreparing also covers the PENDING skip, which implies acceptance.
func (s *OrderService) StartPreparing(ctx context.Context, id uuid.UUID, act actor.Actor, req StartPreparingRequest) (Result, error) {
	if m := req.EstimatedPrepMinutes; m != nil && (*m < MinPrepMinutes || *m > MaxPrepMinutes) {
		return Result{}, fmt.Errorf("%w: estimated preparation must be between %d and %d minutes", ErrInvalidInput, MinPrepMinutes, MaxPrepMinutes)
	}

	return s.transition(ctx, id, act, ActionStartPreparing, func(ctx context.Context, o Order, upd *OrderUpdate) ([]effect, error) {
		now := upd.UpdatedAt
		upd.PreparingAt = &now
		upd.EstimatedPrepMinutes = req.EstimatedPrepMinutes

		effects := []effect{{kind: OrderEventPreparing, notify: NotifyPreparing}}
		if o.Status != StatusPending {
			return effects, nil
		}

		upd.AcceptedAt = &now
		settled, err := s.settle(ctx, o)
		if err != nil {
			return nil, err
		}
		return append([]effect{{kind: OrderEventAccepted}}, append(settled, effects...)...), nil
	})
}

func (s *OrderService) MarkReady(ctx context.Context, id uuid.UUID, act actor.Actor, req MarkReadyRequest) (Result, error) {
	var instructions *string
	if req.PickupInstructions != nil {
		trimmed := strings.TrimSpace(*req.PickupInstructions)
		if len(trimmed) > maxNoteLength {
			return Result{}, fmt.Errorf("%w: pickup instructions exceed %d characters", ErrInvalidInput, maxNoteLength)
		}
		if trimmed != "" {
			instructions = &trimmed
		}
	}

	return s.transition(ctx, id, act, ActionMarkReady, func(ctx context.Context, o Order, upd *OrderUpdate) ([]effect, error) {
		now := upd.UpdatedAt
		upd.ReadyAt = &now
		upd.PickupInstructions = instructions
		return []effect{{kind: OrderEventReady, notify: NotifyReady}}, nil
	})
}

// Complete closes the order. Cash is collected at pickup, so cash orders
// become paid here.
func (s *OrderService) Complete(ctx context.Context, id uuid.UUID, act actor.Actor) (Result, error) {
	return s.transition(ctx, id, act, ActionComplete, func(ctx context.Context, o Order, upd *OrderUpdate) ([]effect, error) {
		now := upd.UpdatedAt
		upd.CompletedAt = &now

		effects := []effect{{kind: OrderEventCompleted, notify: NotifyCompleted}}
		if o.PaymentMethod == PaymentCash && o.PaymentStatus.CanBeUpdatedTo(PaymentPaid) {
			expected, paid := o.PaymentStatus, PaymentPaid
			upd.ExpectedPaymentStatus = &expected
			upd.PaymentStatus = &paid
			effects = append(effects, effect{kind: OrderEventPaid, data: map[string]any{"source": "cash"}})
		}
		return effects, nil
	})
}

// Cancel picks the cancellation action from the actor's role.
func (s *OrderService) Cancel(ctx context.Context, id uuid.UUID, act actor.Actor, req CancelRequest) (Result, error) {
	switch act.Role {
	case actor.RoleCustomer:
		return s.CancelByCustomer(ctx, id, act, req.Reason)
	case actor.RoleRestaurant:
		return s.CancelByRestaurant(ctx, id, act, req.Reason)
	default:
		return Result{}, fmt.Errorf("%w: %s cannot cancel orders", ErrForbidden, act.Role)
	}
}

func (s *OrderService) CancelByCustomer(ctx context.Context, id uuid.UUID, act actor.Actor, reason string) (Result, error) {
	return s.cancel(ctx, id, act, ActionCancelByCustomer, reason)
}

func (s *OrderService) CancelByRestaurant(ctx context.Context, id uuid.UUID, act actor.Actor, reason string) (Result, error) {
	return s.cancel(ctx, id, act, ActionCancelByRestaurant, reason)
}

// cancel refunds paid orders inside the cancelling transaction. A failed
// refund does not block the cancellation; the order is left refund_failed
// for RetryRefund.
func (s *OrderService) cancel(ctx context.Context, id uuid.UUID, act actor.Actor, action Action, reason string) (Result, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) > maxNoteLength {
		return Result{}, fmt.Errorf("%w: cancellation reason exceeds %d characters", ErrInvalidInput, maxNoteLength)
	}

	return s.transition(ctx, id, act, action, func(ctx context.Context, o Order, upd *OrderUpdate) ([]effect, error) {
		now := upd.UpdatedAt
		role := act.Role
		upd.CancelledAt = &now
		upd.CancelledBy = &role
		if reason != "" {
			upd.CancellationReason = &reason
		}

		expected := o.PaymentStatus
		upd.ExpectedPaymentStatus = &expected

		effects := []effect{{kind: OrderEventCancelled, data: map[string]any{"reason": reason}, notify: NotifyCancelled}}
		switch o.PaymentStatus {
		case PaymentPaid:
			next, refunded := s.refund(ctx, o)
			upd.PaymentStatus = &next
			effects = append(effects, refunded)
		case PaymentUnpaid, PaymentPending, PaymentFailed:
			next := PaymentCancelled
			upd.PaymentStatus = &next
		case PaymentRefunded, PaymentRefundFailed, PaymentCancelled:
		}
		return effects, nil
	})
}

// RetryRefund re-runs a refund that failed during cancellation.
func (s *OrderService) RetryRefund(ctx context.Context, id uuid.UUID) (Result, error) {
	var res Result
	err := s.repo.InTransaction(ctx, func(ctx context.Context, tx TxOrderRepo) error {
		o, err := getOrderByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if o.Status != StatusCancelled || o.PaymentStatus != PaymentRefundFailed {
			return fmt.Errorf("%w: refund retry needs a cancelled order with a failed refund, got %s/%s",
				ErrInvalidTransition, o.Status, o.PaymentStatus)
		}

		refund, err := s.ledger.RefundOrder(ctx, refundRequest(o))
		if err != nil {
			return fmt.Errorf("refund order: %w", err)
		}

		expected, refunded := PaymentRefundFailed, PaymentRefunded
		upd := OrderUpdate{
			ID:                    o.ID,
			ExpectedStatus:        StatusCancelled,
			ExpectedPaymentStatus: &expected,
			PaymentStatus:         &refunded,
			UpdatedAt:             s.now(),
		}
		res, err = s.commit(ctx, tx, upd, actor.System(), []effect{refundedEffect(o, refund)})
		return err
	})
	s.observe(ctx, "retry_refund", id, res.Notify, err)
	if err != nil {
		return Result{}, err
	}

	s.dispatch(ctx, res.Notifications)
	return res, nil
}

// RefundSweep summarizes one RetryFailedRefunds run.
type RefundSweep struct {
	Scanned  int `json:"scanned"`
	Refunded int `json:"refunded"`
	Errors   int `json:"errors"`
}

// RetryFailedRefunds retries the oldest failed refunds. A failing order is
// counted and left in refund_failed for the next run.
func (s *OrderService) RetryFailedRefunds(ctx context.Context, limit int) (RefundSweep, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}

	query, err := NewOrdersQueryBuilder().
		WithStatuses(StatusCancelled).
		WithPaymentStatuses(PaymentRefundFailed).
		WithSort("updated_at", "asc").
		WithPagination(Pagination{PageSize: limit, PageNumber: 1}).
		Build()
	if err != nil {
		return RefundSweep{}, err
	}

	orders, err := s.FindOrders(ctx, *query)
	if err != nil {
		return RefundSweep{}, err
	}

	var sweep RefundSweep
	for _, o := range orders {
		sweep.Scanned++
		if _, err := s.RetryRefund(ctx, o.ID); err != nil {
			sweep.Errors++
			slog.ErrorContext(ctx, "Refund retry failed",
				"order_id", o.ID,
				slog.Any("error", err))
			continue
		}
		sweep.Refunded++
	}
	return sweep, nil
}

// MarkPaid moves a prepaid order out of PENDING_PAYMENT. Orders that are
// already paid are returned unchanged with Notify=false, which makes every
// confirmation path safe to replay.
func (s *OrderService) MarkPaid(ctx context.Context, cmd MarkPaidCommand) (Result, error) {
	var res Result
	err := s.repo.InTransaction(ctx, func(ctx context.Context, tx TxOrderRepo) error {
		o, err := getOrderByID(ctx, tx, cmd.OrderID)
		if err != nil {
			return err
		}

		if o.PaymentStatus.Settled() {
			res = Result{Order: o}
			return nil
		}
		if cmd.PaymentIntentID != "" && o.PaymentIntentID != nil && *o.PaymentIntentID != cmd.PaymentIntentID {
			return fmt.Errorf("%w: order holds %s, confirmation is for %s", ErrIntentMismatch, *o.PaymentIntentID, cmd.PaymentIntentID)
		}
		if o.Status == StatusCancelled && o.PaymentMethod == PaymentCard && cmd.PaymentIntentID != "" {
			res, err = s.creditLatePayment(ctx, tx, o, cmd)
			return err
		}

		t, err := CheckTransition(o, ActionMarkPaid, actor.System())
		if err != nil {
			return err
		}
		if !o.PaymentStatus.CanBeUpdatedTo(PaymentPaid) {
			return fmt.Errorf("%w: payment status %s cannot become paid", ErrInvalidTransition, o.PaymentStatus)
		}

		if cmd.Charge != nil {
			if err := cmd.Charge(ctx, o); err != nil {
				return fmt.Errorf("charge order: %w", err)
			}
		}

		expected, paid := o.PaymentStatus, PaymentPaid
		upd := OrderUpdate{
			ID:                    o.ID,
			ExpectedStatus:        o.Status,
			ExpectedPaymentStatus: &expected,
			Status:                &t.To,
			PaymentStatus:         &paid,
			UpdatedAt:             s.now(),
		}
		if cmd.PaymentIntentID != "" && o.PaymentIntentID == nil {
			upd.PaymentIntentID = &cmd.PaymentIntentID
		}

		res, err = s.commit(ctx, tx, upd, actor.System(), []effect{{
			kind: OrderEventPaid,
			data: map[string]any{
				"source":            cmd.Source,
				"payment_intent_id": cmd.PaymentIntentID,
				"provider_event_id": cmd.ProviderEventID,
			},
			notify: NotifyPaid,
		}})
		return err
	})
	if errors.Is(err, ErrStatusConflict) {
		// Another confirmation won the compare-and-set.
		if current, readErr := getOrderByID(ctx, s.repo, cmd.OrderID); readErr == nil && current.PaymentStatus.Settled() {
			res, err = Result{Order: current}, nil
		}
	}
	s.observe(ctx, string(ActionMarkPaid), cmd.OrderID, res.Notify, err)
	if err != nil {
		return Result{}, err
	}

	s.dispatch(ctx, res.Notifications)
	return res, nil
}

// creditLatePayment handles a card capture that lands after the order was
// cancelled: the captured amount is returned to the customer as store credit.
func (s *OrderService) creditLatePayment(ctx context.Context, tx TxOrderRepo, o Order, cmd MarkPaidCommand) (Result, error) {
	if cmd.Charge != nil {
		if err := cmd.Charge(ctx, o); err != nil {
			return Result{}, fmt.Errorf("charge order: %w", err)
		}
	}

	req := refundRequest(o)
	req.Funding = wallet.FundingExternal
	refund, err := s.ledger.RefundOrder(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("credit late payment: %w", err)
	}
	if refund.Replayed {
		return Result{Order: o}, nil
	}

	slog.WarnContext(ctx, "Payment captured for cancelled order, credited to wallet",
		"order_id", o.ID,
		"payment_intent_id", cmd.PaymentIntentID)

	e := effect{
		kind: OrderEventLateCredit,
		data: map[string]any{
			"payment_intent_id": cmd.PaymentIntentID,
			"transaction_id":    refund.Transaction.ID,
		},
	}
	if err := s.appendEvent(ctx, tx, o, actor.System(), e); err != nil {
		return Result{}, err
	}
	return Result{
		Order:         o,
		Notify:        true,
		Notifications: []Notification{NewNotification(NotifyRefunded, o, s.now())},
	}, nil
}

// AttachPaymentIntent binds a gateway intent to a card order and marks the
// payment pending. Attaching the same intent twice is a no-op.
func (s *OrderService) AttachPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) (Result, error) {
	if intentID == "" {
		return Result{}, fmt.Errorf("%w: payment intent id is required", ErrInvalidInput)
	}

	var res Result
	err := s.repo.InTransaction(ctx, func(ctx context.Context, tx TxOrderRepo) error {
		o, err := getOrderByID(ctx, tx, id)
		if err != nil {
			return err
		}

		if o.PaymentMethod != PaymentCard {
			return fmt.Errorf("%w: order is paid by %s", ErrInvalidInput, o.PaymentMethod)
		}
		if o.PaymentStatus == PaymentPending && o.PaymentIntentID != nil && *o.PaymentIntentID == intentID {
			res = Result{Order: o}
			return nil
		}
		if o.Status.IsTerminal() {
			return fmt.Errorf("%w: order is %s", ErrInFinalStatus, o.Status)
		}
		if o.Status != StatusPendingPayment {
			return fmt.Errorf("%w: order in %s does not await payment", ErrInvalidTransition, o.Status)
		}
		if o.PaymentStatus != PaymentPending && !o.PaymentStatus.CanBeUpdatedTo(PaymentPending) {
			return fmt.Errorf("%w: payment status %s cannot become pending", ErrInvalidTransition, o.PaymentStatus)
		}

		expected, pending := o.PaymentStatus, PaymentPending
		upd := OrderUpdate{
			ID:                    o.ID,
			ExpectedStatus:        o.Status,
			ExpectedPaymentStatus: &expected,
			PaymentStatus:         &pending,
			PaymentIntentID:       &intentID,
			UpdatedAt:             s.now(),
		}
		res, err = s.commit(ctx, tx, upd, actor.System(), []effect{{
			kind:            OrderEventIntentAttached,
			providerEventID: string(OrderEventIntentAttached) + ":" + intentID,
			data:            map[string]any{"payment_intent_id": intentID},
		}})
		return err
	})
	s.observe(ctx, "attach_intent", id, res.Notify, err)
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// MarkPaymentFailed records a failed or cancelled card attempt. The order
// stays in PENDING_PAYMENT so the customer can retry.
func (s *OrderService) MarkPaymentFailed(ctx context.Context, cmd PaymentFailedCommand) (Result, error) {
	var res Result
	err := s.repo.InTransaction(ctx, func(ctx context.Context, tx TxOrderRepo) error {
		o, err := getOrderByID(ctx, tx, cmd.OrderID)
		if err != nil {
			return err
		}

		if o.PaymentStatus.Settled() || o.Status.IsTerminal() || o.PaymentStatus == PaymentFailed {
			res = Result{Order: o}
			return nil
		}
		if cmd.PaymentIntentID != "" && o.PaymentIntentID != nil && *o.PaymentIntentID != cmd.PaymentIntentID {
			// A superseded intent failing does not affect the current attempt.
			slog.InfoContext(ctx, "Ignoring failure of superseded payment intent",
				"order_id", o.ID,
				"payment_intent_id", cmd.PaymentIntentID)
			res = Result{Order: o}
			return nil
		}
		if !o.PaymentStatus.CanBeUpdatedTo(PaymentFailed) {
			return fmt.Errorf("%w: payment status %s cannot become failed", ErrInvalidTransition, o.PaymentStatus)
		}

		dedupe := cmd.ProviderEventID
		if dedupe == "" {
			dedupe = cmd.PaymentIntentID
		}

		expected, failed := o.PaymentStatus, PaymentFailed
		upd := OrderUpdate{
			ID:                    o.ID,
			ExpectedStatus:        o.Status,
			ExpectedPaymentStatus: &expected,
			PaymentStatus:         &failed,
			UpdatedAt:             s.now(),
		}
		res, err = s.commit(ctx, tx, upd, actor.System(), []effect{{
			kind:            OrderEventPaymentFailed,
			providerEventID: string(OrderEventPaymentFailed) + ":" + dedupe,
			data:            map[string]any{"payment_intent_id": cmd.PaymentIntentID, "reason": cmd.Reason},
			notify:          NotifyPaymentFailed,
		}})
		return err
	})
	s.observe(ctx, "mark_payment_failed", cmd.OrderID, res.Notify, err)
	if err != nil {
		return Result{}, err
	}

	s.dispatch(ctx, res.Notifications)
	return res, nil
}

func (s *OrderService) GetOrderByID(ctx context.Context, id uuid.UUID) (Order, error) {
	return getOrderByID(ctx, s.repo, id)
}

func getOrderByID(ctx context.Context, repo TxOrderRepo, id uuid.UUID) (Order, error) {
	query, _ := NewOrdersQueryBuilder().
		WithIDs(id).
		Build()

	orders, err := repo.GetOrders(ctx, query)
	if err != nil {
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	if len(orders) == 0 {
		return Order{}, ErrNotFound
	}
	return orders[0], nil
}

// GetOrderForActor returns the order only to its customer, its restaurant or the system.
func (s *OrderService) GetOrderForActor(ctx context.Context, id uuid.UUID, act actor.Actor) (Order, error) {
	o, err := s.GetOrderByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !o.VisibleTo(act) {
		return Order{}, ErrForbidden
	}
	return o, nil
}

func (s *OrderService) GetOrderByPaymentIntent(ctx context.Context, intentID string) (Order, error) {
	query, _ := NewOrdersQueryBuilder().
		WithPaymentIntentIDs(intentID).
		Build()

	orders, err := s.repo.GetOrders(ctx, query)
	if err != nil {
		return Order{}, fmt.Errorf("get order by payment intent: %w", err)
	}
	if len(orders) == 0 {
		return Order{}, ErrNotFound
	}
	return orders[0], nil
}

// FindOrders runs an unscoped query. Ops tooling only.
func (s *OrderService) FindOrders(ctx context.Context, query OrdersQuery) ([]Order, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, err.Error())
	}

	orders, err := s.repo.GetOrders(ctx, &query)
	if err != nil {
		return nil, fmt.Errorf("filter orders: %w", err)
	}
	return orders, nil
}

// GetOrders narrows the query to the actor's own orders.
func (s *OrderService) GetOrders(ctx context.Context, act actor.Actor, query OrdersQuery) ([]Order, error) {
	switch act.Role {
	case actor.RoleCustomer:
		query.CustomerIDs = []uuid.UUID{act.ID}
	case actor.RoleRestaurant:
		query.RestaurantIDs = []uuid.UUID{act.ID}
	case actor.RoleSystem:
	default:
		return nil, ErrForbidden
	}
	if query.Pagination == nil {
		query.Pagination = &Pagination{PageSize: DefaultPageSize, PageNumber: 1}
	}

	return s.FindOrders(ctx, query)
}

// GetEvents returns the order history. Non-system actors must name the orders
// and be a party of each.
func (s *OrderService) GetEvents(ctx context.Context, act actor.Actor, query OrderEventQuery) (OrderEventPage, error) {
	if !act.Is(actor.RoleSystem) {
		if len(query.OrderIDs) == 0 {
			return OrderEventPage{}, fmt.Errorf("%w: order_ids is required", ErrInvalidQuery)
		}
		for _, id := range query.OrderIDs {
			if _, err := s.GetOrderForActor(ctx, id, act); err != nil {
				return OrderEventPage{}, err
			}
		}
	}

	page, err := s.repo.GetOrderEvents(ctx, query)
	if err != nil {
		return OrderEventPage{}, fmt.Errorf("get order events: %w", err)
	}
	return page, nil
}

// transition runs the guarded read-check-write cycle shared by the lifecycle
// actions. apply performs side effects and fills in the update.
func (s *OrderService) transition(ctx context.Context, id uuid.UUID, act actor.Actor, action Action, apply applyFunc) (Result, error) {
	var res Result
	err := s.repo.InTransaction(ctx, func(ctx context.Context, tx TxOrderRepo) error {
		o, err := getOrderByID(ctx, tx, id)
		if err != nil {
			return err
		}

		t, err := CheckTransition(o, action, act)
		if err != nil {
			return err
		}

		upd := OrderUpdate{
			ID:             o.ID,
			ExpectedStatus: o.Status,
			Status:         &t.To,
			UpdatedAt:      s.now(),
		}
		effects, err := apply(ctx, o, &upd)
		if err != nil {
			return err
		}

		res, err = s.commit(ctx, tx, upd, act, effects)
		return err
	})
	s.observe(ctx, string(action), id, res.Notify, err)
	if err != nil {
		return Result{}, err
	}

	s.dispatch(ctx, res.Notifications)
	return res, nil
}

func (s *OrderService) commit(ctx context.Context, tx TxOrderRepo, upd OrderUpdate, act actor.Actor, effects []effect) (Result, error) {
	updated, err := tx.UpdateOrder(ctx, upd)
	if err != nil {
		return Result{}, fmt.Errorf("update order: %w", err)
	}

	var notes []Notification
	for _, e := range effects {
		if err := s.appendEvent(ctx, tx, updated, act, e); err != nil {
			return Result{}, err
		}
		if e.notify != "" {
			notes = append(notes, NewNotification(e.notify, updated, upd.UpdatedAt))
		}
	}

	return Result{Order: updated, Notify: true, Notifications: notes}, nil
}

func (s *OrderService) appendEvent(ctx context.Context, tx TxOrderRepo, o Order, act actor.Actor, e effect) error {
	data := map[string]any{
		"status":         o.Status,
		"payment_status": o.PaymentStatus,
		"actor":          act.String(),
	}
	maps.Copy(data, e.data)

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	providerEventID := e.providerEventID
	if providerEventID == "" {
		providerEventID = string(e.kind)
	}

	_, err = tx.CreateOrderEvent(ctx, NewOrderEvent{
		OrderID:         o.ID,
		Kind:            e.kind,
		ProviderEventID: providerEventID,
		Data:            raw,
		CreatedAt:       o.UpdatedAt,
	})
	if errors.Is(err, ErrEventAlreadyStored) {
		slog.DebugContext(ctx, "Order event already stored", "order_id", o.ID, "provider_event_id", providerEventID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("store order event: %w", err)
	}
	return nil
}

func (s *OrderService) settle(ctx context.Context, o Order) ([]effect, error) {
	if o.PaymentMethod != PaymentWallet {
		return nil, nil
	}

	res, err := s.ledger.SettleOrder(ctx, wallet.SettleRequest{
		CustomerID:   o.CustomerID,
		RestaurantID: o.RestaurantID,
		OrderID:      o.ID.String(),
		Amount:       o.TotalPrice,
	})
	if errors.Is(err, wallet.ErrAlreadySettled) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("settle order: %w", err)
	}

	return []effect{{
		kind: OrderEventSettled,
		data: map[string]any{
			"amount":         o.TotalPrice.StringFixed(2),
			"transaction_id": res.Credit.ID,
			"replayed":       res.Replayed,
		},
	}}, nil
}

func (s *OrderService) refund(ctx context.Context, o Order) (PaymentStatus, effect) {
	res, err := s.ledger.RefundOrder(ctx, refundRequest(o))
	if err != nil {
		slog.ErrorContext(ctx, "Refund failed, order cancelled with refund_failed",
			"order_id", o.ID,
			slog.Any("error", err))
		return PaymentRefundFailed, effect{
			kind:   OrderEventRefundFailed,
			data:   map[string]any{"error": err.Error()},
			notify: NotifyRefundFailed,
		}
	}
	return PaymentRefunded, refundedEffect(o, res)
}

func refundRequest(o Order) wallet.RefundRequest {
	funding := wallet.FundingExternal
	if o.PaymentMethod == PaymentWallet {
		funding = wallet.FundingWallet
	}
	return wallet.RefundRequest{
		CustomerID:   o.CustomerID,
		RestaurantID: o.RestaurantID,
		OrderID:      o.ID.String(),
		Amount:       o.TotalPrice,
		Funding:      funding,
	}
}

func refundedEffect(o Order, res wallet.Result) effect {
	return effect{
		kind: OrderEventRefunded,
		data: map[string]any{
			"amount":         o.TotalPrice.StringFixed(2),
			"transaction_id": res.Transaction.ID,
			"replayed":       res.Replayed,
		},
		notify: NotifyRefunded,
	}
}

// dispatch is best-effort: a failed notification never undoes a committed change.
func (s *OrderService) dispatch(ctx context.Context, notes []Notification) {
	for _, n := range notes {
		if err := s.notifier.Notify(ctx, n); err != nil {
			metrics.NotificationsFailedTotal.WithLabelValues("dispatch").Inc()
			slog.ErrorContext(ctx, "Failed to dispatch order notification",
				"order_id", n.OrderID,
				"kind", n.Kind,
				slog.Any("error", err))
		}
	}
}

func (s *OrderService) observe(ctx context.Context, action string, id uuid.UUID, changed bool, err error) {
	result := metrics.Outcome(err)
	if err == nil && !changed {
		result = metrics.ResultNoop
	}
	metrics.OrderTransitionsTotal.WithLabelValues(action, result).Inc()

	if err != nil {
		slog.WarnContext(ctx, "Order operation rejected", "action", action, "order_id", id, slog.Any("error", err))
		return
	}
	slog.InfoContext(ctx, "Order operation applied", "action", action, "order_id", id, "changed", changed)
}
