// Package ledger owns the wallet balance and its transaction history.
//
// The one rule here: no code path changes a balance without appending a
// matching wallet transaction in the same transaction scope. Everything
// else is plumbing around that rule.
package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/upland-labs/storefront/internal/domain"
	"github.com/upland-labs/storefront/internal/infra/sqlite"
)

// Service is the Wallet Ledger.
type Service struct {
	store *sqlite.DB
}

// New creates a ledger service on the given store handle.
func New(store *sqlite.DB) *Service {
	return &Service{store: store}
}

// Balance returns the session's wallet, materializing a zero-balance
// wallet on first sight. It never fails for a missing wallet.
func (s *Service) Balance(ctx context.Context, sessionID string) (domain.Wallet, error) {
	if sessionID == "" {
		return domain.Wallet{}, fmt.Errorf("%w: session id required", domain.ErrValidation)
	}
	return s.store.GetWallet(ctx, sessionID)
}

// Statement returns the wallet together with its transaction history,
// newest first.
func (s *Service) Statement(ctx context.Context, sessionID string) (domain.Wallet, []domain.WalletTransaction, error) {
	w, err := s.Balance(ctx, sessionID)
	if err != nil {
		return domain.Wallet{}, nil, err
	}
	txs, err := s.store.ListTransactions(ctx, sessionID)
	if err != nil {
		return domain.Wallet{}, nil, err
	}
	return w, txs, nil
}

// AddFunds deposits a positive amount into the session's wallet.
// Balance update and deposit row commit together or not at all.
func (s *Service) AddFunds(ctx context.Context, sessionID string, amount decimal.Decimal) (domain.WalletTransaction, error) {
	if sessionID == "" {
		return domain.WalletTransaction{}, fmt.Errorf("%w: session id required", domain.ErrValidation)
	}
	cents, err := domain.CentsFromDecimal(amount)
	if err != nil {
		return domain.WalletTransaction{}, err
	}
	if cents <= 0 {
		return domain.WalletTransaction{}, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}

	entry := domain.WalletTransaction{
		SessionID:   sessionID,
		Amount:      domain.DecimalFromCents(cents),
		Type:        domain.TxDeposit,
		Description: "Funds added to wallet",
	}
	err = s.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.store.EnsureWallet(ctx, tx, sessionID); err != nil {
			return err
		}
		if err := s.store.CreditWallet(ctx, tx, sessionID, cents); err != nil {
			return err
		}
		return s.store.InsertTransaction(ctx, tx, &entry)
	})
	if err != nil {
		return domain.WalletTransaction{}, err
	}
	return entry, nil
}

// DebitTx debits the wallet inside the caller's transaction, appending
// the paired purchase row. Returns domain.ErrInsufficientFunds (and
// leaves the balance untouched) when the wallet is short: the balance
// check and the decrement are one conditional UPDATE, so a concurrent
// debit cannot slip between them.
func (s *Service) DebitTx(ctx context.Context, tx sqlite.Queryer, sessionID string, amount decimal.Decimal, description string) error {
	cents, err := domain.CentsFromDecimal(amount)
	if err != nil {
		return err
	}
	if cents <= 0 {
		return fmt.Errorf("%w: debit amount must be positive", domain.ErrValidation)
	}
	if err := s.store.EnsureWallet(ctx, tx, sessionID); err != nil {
		return err
	}
	applied, err := s.store.DebitWallet(ctx, tx, sessionID, cents)
	if err != nil {
		return err
	}
	if !applied {
		return domain.ErrInsufficientFunds
	}
	entry := domain.WalletTransaction{
		SessionID:   sessionID,
		Amount:      domain.DecimalFromCents(-cents),
		Type:        domain.TxPurchase,
		Description: description,
	}
	return s.store.InsertTransaction(ctx, tx, &entry)
}

// RefundTx credits the wallet inside the caller's transaction, appending
// a refund row that references the order being unwound.
func (s *Service) RefundTx(ctx context.Context, tx sqlite.Queryer, sessionID string, amount decimal.Decimal, orderID int64, description string) error {
	cents, err := domain.CentsFromDecimal(amount)
	if err != nil {
		return err
	}
	if err := s.store.EnsureWallet(ctx, tx, sessionID); err != nil {
		return err
	}
	if err := s.store.CreditWallet(ctx, tx, sessionID, cents); err != nil {
		return err
	}
	entry := domain.WalletTransaction{
		SessionID:   sessionID,
		Amount:      domain.DecimalFromCents(cents),
		Type:        domain.TxRefund,
		OrderID:     &orderID,
		Description: description,
	}
	return s.store.InsertTransaction(ctx, tx, &entry)
}
