package handlers

import (
	"context"
	"net/http"

	"ReelMarket/internal/api/domain/wallet"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type WalletService interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (wallet.Account, error)
	GetTransactions(ctx context.Context, query wallet.TransactionQuery) ([]wallet.Transaction, error)
}

type WalletHandler struct {
	service WalletService
}

func NewWalletHandler(s WalletService) *WalletHandler {
	return &WalletHandler{service: s}
}

// Get handles GET /wallet. Actors only ever see their own account.
func (h *WalletHandler) Get(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}

	acc, err := h.service.GetBalance(c.Request.Context(), act.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, acc)
}

type transactionsParams struct {
	Types    []string `form:"type"`
	OrderIDs []string `form:"order_id"`
	Limit    int      `form:"limit" binding:"omitempty,min=1"`
	Offset   int      `form:"offset" binding:"omitempty,min=0"`
}

// Transactions handles GET /wallet/transactions, newest first.
func (h *WalletHandler) Transactions(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}

	var params transactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	query := wallet.TransactionQuery{
		AccountID: act.ID,
		OrderIDs:  splitList(params.OrderIDs...),
		Limit:     params.Limit,
		Offset:    params.Offset,
	}
	for _, t := range splitList(params.Types...) {
		query.Types = append(query.Types, wallet.TransactionType(t))
	}

	txs, err := h.service.GetTransactions(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": txs})
}
