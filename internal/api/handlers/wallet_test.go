package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"ReelMarket/internal/api/domain/actor"
	"ReelMarket/internal/api/domain/wallet"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walletEngine(svc WalletService, act *actor.Actor) *gin.Engine {
	h := NewWalletHandler(svc)
	engine := gin.New()
	engine.Use(asActor(act))
	engine.GET("/wallet", h.Get)
	engine.GET("/wallet/transactions", h.Transactions)
	return engine
}

func TestWalletHandler_Get(t *testing.T) {
	customer := actor.New(uuid.New(), actor.RoleCustomer)

	t.Run("should return own balance", func(t *testing.T) {
		// given
		svc := &fakeWallet{
			balance: func(userID uuid.UUID) (wallet.Account, error) {
				assert.Equal(t, customer.ID, userID)
				return wallet.Account{UserID: userID, Balance: decimal.RequireFromString("42.50"), Currency: "USD"}, nil
			},
		}

		// when
		w := perform(t, walletEngine(svc, &customer), http.MethodGet, "/wallet", "")

		// then
		require.Equal(t, http.StatusOK, w.Code)
		var acc wallet.Account
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &acc))
		assert.Equal(t, "42.5", acc.Balance.String())
	})

	t.Run("should answer 404 without account", func(t *testing.T) {
		// given
		svc := &fakeWallet{
			balance: func(uuid.UUID) (wallet.Account, error) {
				return wallet.Account{}, wallet.ErrAccountNotFound
			},
		}

		// when
		w := perform(t, walletEngine(svc, &customer), http.MethodGet, "/wallet", "")

		// then
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestWalletHandler_Transactions(t *testing.T) {
	customer := actor.New(uuid.New(), actor.RoleCustomer)
	orderID := uuid.NewString()

	t.Run("should scope history to the actor", func(t *testing.T) {
		// given
		svc := &fakeWallet{
			transactions: func(q wallet.TransactionQuery) ([]wallet.Transaction, error) {
				assert.Equal(t, customer.ID, q.AccountID)
				assert.Equal(t, []wallet.TransactionType{wallet.TypePayment, wallet.TypeRefund}, q.Types)
				assert.Equal(t, []string{orderID}, q.OrderIDs)
				assert.Equal(t, 10, q.Limit)
				assert.Equal(t, 20, q.Offset)
				return []wallet.Transaction{{ID: uuid.New(), Type: wallet.TypePayment}}, nil
			},
		}

		// when
		w := perform(t, walletEngine(svc, &customer), http.MethodGet,
			"/wallet/transactions?type=payment,refund&order_id="+orderID+"&limit=10&offset=20", "")

		// then
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"type":"payment"`)
	})

	t.Run("should reject negative offset", func(t *testing.T) {
		// when
		w := perform(t, walletEngine(&fakeWallet{}, &customer), http.MethodGet, "/wallet/transactions?offset=-1", "")

		// then
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
