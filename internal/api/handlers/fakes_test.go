package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ReelMarket/internal/api/auth"
	"ReelMarket/internal/api/domain/actor"
	"ReelMarket/internal/api/domain/order"
	"ReelMarket/internal/api/domain/payment"
	"ReelMarket/internal/api/domain/wallet"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeOrders struct {
	create     func(act actor.Actor, req order.CreateOrderRequest) (order.Result, error)
	get        func(id uuid.UUID, act actor.Actor) (order.Order, error)
	list       func(act actor.Actor, q order.OrdersQuery) ([]order.Order, error)
	events     func(act actor.Actor, q order.OrderEventQuery) (order.OrderEventPage, error)
	transition func(action string, id uuid.UUID, act actor.Actor) (order.Result, error)
	cancel     func(id uuid.UUID, act actor.Actor, req order.CancelRequest) (order.Result, error)
	prepare    func(id uuid.UUID, act actor.Actor, req order.StartPreparingRequest) (order.Result, error)
}

func (f *fakeOrders) CreateOrder(_ context.Context, act actor.Actor, req order.CreateOrderRequest) (order.Result, error) {
	return f.create(act, req)
}

func (f *fakeOrders) GetOrderForActor(_ context.Context, id uuid.UUID, act actor.Actor) (order.Order, error) {
	return f.get(id, act)
}

func (f *fakeOrders) GetOrders(_ context.Context, act actor.Actor, q order.OrdersQuery) ([]order.Order, error) {
	return f.list(act, q)
}

func (f *fakeOrders) GetEvents(_ context.Context, act actor.Actor, q order.OrderEventQuery) (order.OrderEventPage, error) {
	return f.events(act, q)
}

func (f *fakeOrders) Accept(_ context.Context, id uuid.UUID, act actor.Actor) (order.Result, error) {
	return f.transition("accept", id, act)
}

func (f *fakeOrders) StartPreparing(_ context.Context, id uuid.UUID, act actor.Actor, req order.StartPreparingRequest) (order.Result, error) {
	return f.prepare(id, act, req)
}

func (f *fakeOrders) MarkReady(_ context.Context, id uuid.UUID, act actor.Actor, _ order.MarkReadyRequest) (order.Result, error) {
	return f.transition("ready", id, act)
}

func (f *fakeOrders) Complete(_ context.Context, id uuid.UUID, act actor.Actor) (order.Result, error) {
	return f.transition("complete", id, act)
}

func (f *fakeOrders) Cancel(_ context.Context, id uuid.UUID, act actor.Actor, req order.CancelRequest) (order.Result, error) {
	return f.cancel(id, act, req)
}

type fakePayments struct {
	wallet  func(act actor.Actor, id uuid.UUID) (order.Result, error)
	card    func(act actor.Actor, id uuid.UUID) (payment.CardPayment, error)
	confirm func(act actor.Actor, intentID string) (payment.Confirmation, error)
	topUp   func(act actor.Actor, req payment.TopUpRequest) (payment.TopUp, error)
}

func (f *fakePayments) PayWithWallet(_ context.Context, act actor.Actor, id uuid.UUID) (order.Result, error) {
	return f.wallet(act, id)
}

func (f *fakePayments) StartCardPayment(_ context.Context, act actor.Actor, id uuid.UUID) (payment.CardPayment, error) {
	return f.card(act, id)
}

func (f *fakePayments) ConfirmPayment(_ context.Context, act actor.Actor, intentID string) (payment.Confirmation, error) {
	return f.confirm(act, intentID)
}

func (f *fakePayments) StartTopUp(_ context.Context, act actor.Actor, req payment.TopUpRequest) (payment.TopUp, error) {
	return f.topUp(act, req)
}

type fakeWallet struct {
	balance      func(userID uuid.UUID) (wallet.Account, error)
	transactions func(q wallet.TransactionQuery) ([]wallet.Transaction, error)
}

func (f *fakeWallet) GetBalance(_ context.Context, userID uuid.UUID) (wallet.Account, error) {
	return f.balance(userID)
}

func (f *fakeWallet) GetTransactions(_ context.Context, q wallet.TransactionQuery) ([]wallet.Transaction, error) {
	return f.transactions(q)
}

type fakeProcessor struct {
	process func(payload []byte, sig string) error
}

func (f *fakeProcessor) Process(_ context.Context, payload []byte, sig string) error {
	return f.process(payload, sig)
}

// asActor stands in for auth.Middleware in handler tests.
func asActor(act *actor.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		if act != nil {
			auth.SetActor(c, *act)
		}
		c.Next()
	}
}

func perform(t *testing.T, engine *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}
