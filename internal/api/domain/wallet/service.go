package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ReelMarket/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// WalletService owns the ledger. Customer payments are parked in the escrow
// account until the order is settled to the restaurant or refunded.
type WalletService struct {
	repo     LedgerRepo
	escrowID uuid.UUID
	currency string
}

func NewWalletService(repo LedgerRepo, escrowID uuid.UUID, currency string) *WalletService {
	return &WalletService{
		repo:     repo,
		escrowID: escrowID,
		currency: currency,
	}
}

func (s *WalletService) EscrowAccountID() uuid.UUID {
	return s.escrowID
}

// Pay debits the customer for an order and parks the funds in escrow.
// Retried calls for the same order return the first result.
func (s *WalletService) Pay(ctx context.Context, req PayRequest) (Result, error) {
	if err := ValidateAmount(req.Amount); err != nil {
		return Result{}, err
	}
	key := PaymentKey(req.OrderID)
	orderID := req.OrderID

	var res Result
	err := s.repo.InTransaction(ctx, func(ctx context.Context, tx TxLedgerRepo) error {
		prior, err := replayResult(ctx, tx, key)
		if err != nil || prior != nil {
			if prior != nil {
				res = *prior
			}
			return err
		}

		if err := tx.EnsureAccount(ctx, req.CustomerID, s.currency); err != nil {
			return fmt.Errorf("ensure customer account: %w", err)
		}

		debit, err := tx.ApplyPosting(ctx, Posting{
			AccountID:      req.CustomerID,
			Direction:      Debit,
			Type:           TypePayment,
			Amount:         req.Amount,
			Currency:       s.currency,
			OrderID:        &orderID,
			IdempotencyKey: key,
			Description:    fmt.Sprintf("payment for order %s", orderID),
		})
		if err != nil {
			return fmt.Errorf("debit customer: %w", err)
		}

		_, err = tx.ApplyPosting(ctx, Posting{
			AccountID:      s.escrowID,
			Direction:      Credit,
			Type:           TypeTransfer,
			Amount:         req.Amount,
			Currency:       s.currency,
			OrderID:        &orderID,
			IdempotencyKey: escrowLeg(key),
			Description:    fmt.Sprintf("escrow hold for order %s", orderID),
		})
		if err != nil {
			return fmt.Errorf("credit escrow: %w", err)
		}

		res = Result{Transaction: debit, Balance: debit.BalanceAfter}
		return nil
	})
	res, err = s.resolveResult(ctx, key, res, err)
	s.record(ctx, "pay", res.Replayed, err)
	return res, err
}

// Transfer applies a debit on From and a credit on To in one transaction.
func (s *WalletService) Transfer(ctx context.Context, req TransferRequest) (TransferResult, error) {
	if err := ValidateAmount(req.Amount); err != nil {
		return TransferResult{}, err
	}
	if req.From == req.To {
		return TransferResult{}, fmt.Errorf("%w: source and destination are the same account", ErrInvalidTransfer)
	}
	if req.IdempotencyKey == "" {
		return TransferResult{}, fmt.Errorf("%w: idempotency key is required", ErrInvalidTransfer)
	}
	key := req.IdempotencyKey

	var res TransferResult
	err := s.repo.InTransaction(ctx, func(ctx context.Context, tx TxLedgerRepo) error {
		prior, err := replayTransfer(ctx, tx, key)
		if err != nil || prior != nil {
			if prior != nil {
				res = *prior
			}
			return err
		}

		if err := tx.EnsureAccount(ctx, req.To, s.currency); err != nil {
			return fmt.Errorf("ensure destination account: %w", err)
		}

		debit, err := tx.ApplyPosting(ctx, Posting{
			AccountID:      req.From,
			Direction:      Debit,
			Type:           TypeTransfer,
			Amount:         req.Amount,
			Currency:       s.currency,
			OrderID:        req.OrderID,
			IdempotencyKey: debitLeg(key),
			Description:    req.Memo,
		})
		if err != nil {
			return fmt.Errorf("debit source: %w", err)
		}

		credit, err := tx.ApplyPosting(ctx, Posting{
			AccountID:      req.To,
			Direction:      Credit,
			Type:           TypeTransfer,
			Amount:         req.Amount,
			Currency:       s.currency,
			OrderID:        req.OrderID,
			IdempotencyKey: creditLeg(key),
			Description:    req.Memo,
		})
		if err != nil {
			return fmt.Errorf("credit destination: %w", err)
		}

		res = TransferResult{
			Debit:              debit,
			Credit:             credit,
			SourceBalance:      debit.BalanceAfter,
			DestinationBalance: credit.BalanceAfter,
		}
		return nil
	})
	if errors.Is(err, ErrDuplicateTransaction) {
		res, err = s.replayTransferAfterRace(ctx, key)
	}
	s.record(ctx, "transfer", res.Replayed, err)
	return res, err
}

// SettleOrder releases an accepted order's escrowed payment to the restaurant.
func (s *WalletService) SettleOrder(ctx context.Context, req SettleRequest) (TransferResult, error) {
	orderID := req.OrderID
	return s.Transfer(ctx, TransferRequest{
		From:           s.escrowID,
		To:             req.RestaurantID,
		OrderID:        &orderID,
		Amount:         req.Amount,
		Memo:           fmt.Sprintf("settlement of order %s paid by %s", orderID, req.CustomerID),
		IdempotencyKey: SettlementKey(orderID),
	})
}

// RefundOrder credits the customer once per order. Wallet-funded refunds are
// drawn from escrow, or from the restaurant when the order was already
// settled. Card-funded refunds are issued as store credit.
func (s *WalletService) RefundOrder(ctx context.Context, req RefundRequest) (Result, error) {
	if err := ValidateAmount(req.Amount); err != nil {
		return Result{}, err
	}
	switch req.Funding {
	case FundingWallet, FundingExternal:
	default:
		return Result{}, fmt.Errorf("%w: unknown funding %q", ErrInvalidTransfer, req.Funding)
	}
	key := RefundKey(req.OrderID)
	orderID := req.OrderID

	var res Result
	err := s.repo.InTransaction(ctx, func(ctx context.Context, tx TxLedgerRepo) error {
		prior, err := replayResult(ctx, tx, key)
		if err != nil || prior != nil {
			if prior != nil {
				res = *prior
			}
			return err
		}

		if err := tx.EnsureAccount(ctx, req.CustomerID, s.currency); err != nil {
			return fmt.Errorf("ensure customer account: %w", err)
		}

		// Customer first, matching the lock order of Pay.
		credit, err := tx.ApplyPosting(ctx, Posting{
			AccountID:      req.CustomerID,
			Direction:      Credit,
			Type:           TypeRefund,
			Amount:         req.Amount,
			Currency:       s.currency,
			OrderID:        &orderID,
			IdempotencyKey: key,
			Description:    fmt.Sprintf("refund of order %s", orderID),
		})
		if err != nil {
			return fmt.Errorf("credit customer: %w", err)
		}

		if req.Funding == FundingWallet {
			source := s.escrowID
			settled, err := tx.GetTransactionByKey(ctx, creditLeg(SettlementKey(orderID)))
			if err != nil {
				return fmt.Errorf("lookup settlement: %w", err)
			}
			if settled != nil {
				source = req.RestaurantID
			}

			_, err = tx.ApplyPosting(ctx, Posting{
				AccountID:      source,
				Direction:      Debit,
				Type:           TypeTransfer,
				Amount:         req.Amount,
				Currency:       s.currency,
				OrderID:        &orderID,
				IdempotencyKey: sourceLeg(key),
				Description:    fmt.Sprintf("refund of order %s", orderID),
			})
			if err != nil {
				return fmt.Errorf("debit refund source: %w", err)
			}
		}

		res = Result{Transaction: credit, Balance: credit.BalanceAfter}
		return nil
	})
	res, err = s.resolveResult(ctx, key, res, err)
	s.record(ctx, "refund", res.Replayed, err)
	return res, err
}

// CreditWalletAfterPayment books a gateway-confirmed top-up, once per external reference.
func (s *WalletService) CreditWalletAfterPayment(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, externalRef string) (Result, error) {
	if err := ValidateAmount(amount); err != nil {
		return Result{}, err
	}
	if externalRef == "" {
		return Result{}, fmt.Errorf("%w: external reference is required", ErrInvalidTransfer)
	}
	key := TopUpKey(externalRef)

	var res Result
	err := s.repo.InTransaction(ctx, func(ctx context.Context, tx TxLedgerRepo) error {
		prior, err := replayResult(ctx, tx, key)
		if err != nil || prior != nil {
			if prior != nil {
				res = *prior
			}
			return err
		}

		if err := tx.EnsureAccount(ctx, customerID, s.currency); err != nil {
			return fmt.Errorf("ensure customer account: %w", err)
		}

		credit, err := tx.ApplyPosting(ctx, Posting{
			AccountID:       customerID,
			Direction:       Credit,
			Type:            TypeDeposit,
			Amount:          amount,
			Currency:        s.currency,
			PaymentIntentID: &externalRef,
			IdempotencyKey:  key,
			Description:     "wallet top-up",
		})
		if err != nil {
			return fmt.Errorf("credit customer: %w", err)
		}

		res = Result{Transaction: credit, Balance: credit.BalanceAfter}
		return nil
	})
	res, err = s.resolveResult(ctx, key, res, err)
	s.record(ctx, "topup", res.Replayed, err)
	return res, err
}

// GetBalance returns a zero balance for users that never had a ledger movement.
func (s *WalletService) GetBalance(ctx context.Context, userID uuid.UUID) (Account, error) {
	acct, err := s.repo.GetAccount(ctx, userID)
	if errors.Is(err, ErrAccountNotFound) {
		return Account{UserID: userID, Balance: decimal.Zero, Currency: s.currency}, nil
	}
	if err != nil {
		return Account{}, fmt.Errorf("get account: %w", err)
	}
	return acct, nil
}

func (s *WalletService) GetTransactions(ctx context.Context, query TransactionQuery) ([]Transaction, error) {
	if query.Limit <= 0 {
		query.Limit = defaultHistoryLimit
	}
	if query.Limit > maxHistoryLimit {
		query.Limit = maxHistoryLimit
	}
	if query.Offset < 0 {
		query.Offset = 0
	}

	txs, err := s.repo.GetTransactions(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get transactions: %w", err)
	}
	return txs, nil
}

// resolveResult turns an idempotency-key race lost to a concurrent writer
// into a replay of the winner's result.
func (s *WalletService) resolveResult(ctx context.Context, key string, res Result, err error) (Result, error) {
	if !errors.Is(err, ErrDuplicateTransaction) {
		return res, err
	}

	prior, rerr := replayResult(ctx, s.repo, key)
	if rerr != nil {
		return Result{}, rerr
	}
	if prior == nil {
		return Result{}, fmt.Errorf("%w: %s", ErrAlreadySettled, key)
	}
	return *prior, nil
}

func (s *WalletService) replayTransferAfterRace(ctx context.Context, key string) (TransferResult, error) {
	prior, err := replayTransfer(ctx, s.repo, key)
	if err != nil {
		return TransferResult{}, err
	}
	if prior == nil {
		return TransferResult{}, fmt.Errorf("%w: %s", ErrAlreadySettled, key)
	}
	return *prior, nil
}

func replayResult(ctx context.Context, repo TxLedgerRepo, key string) (*Result, error) {
	t, err := repo.GetTransactionByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("lookup transaction %s: %w", key, err)
	}
	if t == nil {
		return nil, nil
	}

	acct, err := repo.GetAccount(ctx, t.AccountID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &Result{Transaction: *t, Balance: acct.Balance, Replayed: true}, nil
}

func replayTransfer(ctx context.Context, repo TxLedgerRepo, key string) (*TransferResult, error) {
	debit, err := repo.GetTransactionByKey(ctx, debitLeg(key))
	if err != nil {
		return nil, fmt.Errorf("lookup transaction %s: %w", debitLeg(key), err)
	}
	if debit == nil {
		return nil, nil
	}

	credit, err := repo.GetTransactionByKey(ctx, creditLeg(key))
	if err != nil {
		return nil, fmt.Errorf("lookup transaction %s: %w", creditLeg(key), err)
	}
	if credit == nil {
		return nil, fmt.Errorf("transfer %s has a debit without a credit", key)
	}

	source, err := repo.GetAccount(ctx, debit.AccountID)
	if err != nil {
		return nil, fmt.Errorf("get source account: %w", err)
	}
	destination, err := repo.GetAccount(ctx, credit.AccountID)
	if err != nil {
		return nil, fmt.Errorf("get destination account: %w", err)
	}

	return &TransferResult{
		Debit:              *debit,
		Credit:             *credit,
		SourceBalance:      source.Balance,
		DestinationBalance: destination.Balance,
		Replayed:           true,
	}, nil
}

func (s *WalletService) record(ctx context.Context, op string, replayed bool, err error) {
	result := metrics.Outcome(err)
	if err == nil && replayed {
		result = metrics.ResultNoop
	}
	metrics.WalletOperationsTotal.WithLabelValues(op, result).Inc()

	switch {
	case err != nil:
		slog.WarnContext(ctx, "Wallet operation failed", "operation", op, slog.Any("error", err))
	case replayed:
		slog.InfoContext(ctx, "Wallet operation replayed", "operation", op)
	default:
		slog.DebugContext(ctx, "Wallet operation applied", "operation", op)
	}
}
