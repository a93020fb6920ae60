package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/upland-labs/storefront/internal/domain"
)

// ─── Wallet Operations ──────────────────────────────────────────────────────
// Balance mutations never appear here on their own: the ledger service
// pairs every balance change with an appended transaction row inside one
// WithTx scope. This file only provides the building blocks.

// EnsureWallet lazily materializes a zero-balance wallet row. Safe to call
// repeatedly; an existing wallet is left untouched.
func (d *DB) EnsureWallet(ctx context.Context, q Queryer, sessionID string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO wallets (session_id, balance_cents, updated_at)
		VALUES (?, 0, ?)
		ON CONFLICT(session_id) DO NOTHING
	`, sessionID, time.Now().UTC())
	return err
}

// GetWallet returns the session's wallet, creating it with a zero balance
// when absent. It never fails for a missing wallet.
func (d *DB) GetWallet(ctx context.Context, sessionID string) (domain.Wallet, error) {
	w := domain.Wallet{SessionID: sessionID}
	var balanceCents int64
	err := d.db.QueryRowContext(ctx, `
		SELECT balance_cents, updated_at FROM wallets WHERE session_id = ?
	`, sessionID).Scan(&balanceCents, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		if err := d.EnsureWallet(ctx, d.db, sessionID); err != nil {
			return domain.Wallet{}, err
		}
		w.Balance = domain.DecimalFromCents(0)
		w.UpdatedAt = time.Now().UTC()
		return w, nil
	}
	if err != nil {
		return domain.Wallet{}, err
	}
	w.Balance = domain.DecimalFromCents(balanceCents)
	return w, nil
}

// CreditWallet adds cents to the balance. The wallet must already exist
// (call EnsureWallet in the same transaction first).
func (d *DB) CreditWallet(ctx context.Context, q Queryer, sessionID string, cents int64) error {
	_, err := q.ExecContext(ctx, `
		UPDATE wallets SET balance_cents = balance_cents + ?, updated_at = ?
		WHERE session_id = ?
	`, cents, time.Now().UTC(), sessionID)
	return err
}

// DebitWallet decreases the balance by cents as a single conditional
// update. Returns false without touching the row when the balance is
// short — the check and the write are one atomic statement, so two
// concurrent debits can never both pass a stale balance check.
func (d *DB) DebitWallet(ctx context.Context, q Queryer, sessionID string, cents int64) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE wallets SET balance_cents = balance_cents - ?, updated_at = ?
		WHERE session_id = ? AND balance_cents >= ?
	`, cents, time.Now().UTC(), sessionID, cents)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// InsertTransaction appends a ledger row. Rows are immutable; there is no
// update or delete counterpart.
func (d *DB) InsertTransaction(ctx context.Context, q Queryer, t *domain.WalletTransaction) error {
	amountCents, err := domain.CentsFromDecimal(t.Amount)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	var orderID any
	if t.OrderID != nil {
		orderID = *t.OrderID
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO wallet_transactions (session_id, amount_cents, type, order_id, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.SessionID, amountCents, string(t.Type), orderID, t.Description, now)
	if err != nil {
		return err
	}
	t.ID, err = res.LastInsertId()
	t.CreatedAt = now
	return err
}

// ListTransactions returns the session's ledger history, newest first.
func (d *DB) ListTransactions(ctx context.Context, sessionID string) ([]domain.WalletTransaction, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, session_id, amount_cents, type, order_id, description, created_at
		FROM wallet_transactions
		WHERE session_id = ?
		ORDER BY id DESC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []domain.WalletTransaction
	for rows.Next() {
		var (
			t           domain.WalletTransaction
			amountCents int64
			orderID     sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.SessionID, &amountCents, &t.Type, &orderID, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Amount = domain.DecimalFromCents(amountCents)
		if orderID.Valid {
			id := orderID.Int64
			t.OrderID = &id
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// SumTransactions totals a session's ledger rows in cents. Exists for the
// balance == sum(transactions) invariant; nothing in the request path
// recomputes balances from history.
func (d *DB) SumTransactions(ctx context.Context, sessionID string) (int64, error) {
	var sum int64
	err := d.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM wallet_transactions WHERE session_id = ?
	`, sessionID).Scan(&sum)
	return sum, err
}
