package order

import (
	"context"

	"ReelMarket/internal/api/domain/wallet"

	"github.com/google/uuid"
)

//go:generate mockgen -source ports.go -destination mock_ports.go -package order

// Catalog resolves the reel an order is placed from.
type Catalog interface {
	// GetReel returns ErrReelNotFound for unknown reels.
	GetReel(ctx context.Context, id uuid.UUID) (Reel, error)
}

// Ledger is the part of the wallet the lifecycle drives. Calls made with a
// transaction-bound context join that transaction.
type Ledger interface {
	SettleOrder(ctx context.Context, req wallet.SettleRequest) (wallet.TransferResult, error)
	RefundOrder(ctx context.Context, req wallet.RefundRequest) (wallet.Result, error)
}
