// Package domain contains pure business types with ZERO infrastructure
// imports. This is the innermost ring — it depends on nothing but the
// decimal money representation.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Catalog ────────────────────────────────────────────────────────────────

// Product is a catalog entry. Price is fixed-point with two fraction digits.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ─── Cart ───────────────────────────────────────────────────────────────────

// CartItem is one (session, product) line. Quantity is always positive;
// a quantity update to zero or below deletes the row instead.
type CartItem struct {
	SessionID string `json:"session_id"`
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CartLine is a cart item denormalized with product fields for display.
type CartLine struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url,omitempty"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns price × quantity for the line.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartTotal sums the line subtotals.
func CartTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ─── Wallet Ledger ──────────────────────────────────────────────────────────

// TransactionType is the business reason for a ledger entry.
type TransactionType string

const (
	TxDeposit  TransactionType = "deposit"
	TxPurchase TransactionType = "purchase"
	TxRefund   TransactionType = "refund"
)

// Wallet holds one session's balance. Created lazily on first read or
// write, never deleted. Balance is non-negative at all times.
type Wallet struct {
	SessionID string          `json:"session_id"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// WalletTransaction is an immutable ledger row. Invariant: per session,
// the sum of transaction amounts equals the wallet balance at all times.
type WalletTransaction struct {
	ID          int64           `json:"id"`
	SessionID   string          `json:"session_id"`
	Amount      decimal.Decimal `json:"amount"` // signed
	Type        TransactionType `json:"type"`
	OrderID     *int64          `json:"order_id,omitempty"` // non-owning back reference
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ─── Orders ─────────────────────────────────────────────────────────────────

// OrderStatus is the order lifecycle state.
// placed → {cancelled, delivered}; delivered → returned.
type OrderStatus string

const (
	OrderPlaced    OrderStatus = "placed"
	OrderCancelled OrderStatus = "cancelled"
	OrderDelivered OrderStatus = "delivered"
	OrderReturned  OrderStatus = "returned"
)

// Terminal reports whether no further transition is legal from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderCancelled || s == OrderReturned
}

// Returnable reports whether an order in state s may be returned.
// Returning a placed order is allowed deliberately; only the terminal
// states are excluded.
func (s OrderStatus) Returnable() bool {
	return !s.Terminal()
}

// Order is created at checkout. Total is fixed at creation and never
// recomputed; only Status mutates afterwards.
type Order struct {
	ID             int64           `json:"id"`
	SessionID      string          `json:"session_id"`
	Total          decimal.Decimal `json:"total"`
	Status         OrderStatus     `json:"status"`
	IdempotencyKey string          `json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
}
