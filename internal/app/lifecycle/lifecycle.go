// Package lifecycle drives the order status state machine:
// placed → {cancelled, delivered}, delivered → returned. Cancelled and
// returned are terminal. Transitions that move money (checkout, cancel,
// return) run as single transactions through the ledger so an order row,
// its balance effect, and its ledger row are never observable apart.
package lifecycle

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/upland-labs/storefront/internal/app/ledger"
	"github.com/upland-labs/storefront/internal/domain"
	"github.com/upland-labs/storefront/internal/infra/sqlite"
)

// Service is the Order Lifecycle.
type Service struct {
	store  *sqlite.DB
	ledger *ledger.Service
}

// New creates a lifecycle service sharing the store handle with its ledger.
func New(store *sqlite.DB, lgr *ledger.Service) *Service {
	return &Service{store: store, ledger: lgr}
}

// Checkout settles the session's cart: debit the wallet for the cart
// total, create the order in placed, clear the cart — one transaction.
// If the debit fails with domain.ErrInsufficientFunds nothing else
// happens: no order row, cart intact.
//
// The total is computed server-side from the cart join inside the same
// transaction, so a concurrent cart edit cannot desync price and cart.
//
// idempotencyKey is optional. When a key has been used before, the
// original order is returned and no effects are applied.
func (s *Service) Checkout(ctx context.Context, sessionID, idempotencyKey string) (domain.Order, error) {
	if sessionID == "" {
		return domain.Order{}, fmt.Errorf("%w: session id required", domain.ErrValidation)
	}

	if idempotencyKey != "" {
		existing, err := s.store.GetOrderByIdempotencyKey(ctx, idempotencyKey)
		if err == nil {
			return existing, nil
		}
		if err != domain.ErrNotFound {
			return domain.Order{}, err
		}
	}

	order := domain.Order{SessionID: sessionID, IdempotencyKey: idempotencyKey}
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		lines, err := s.store.ListCartTx(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return fmt.Errorf("%w: cart is empty", domain.ErrValidation)
		}
		order.Total = domain.CartTotal(lines)

		if err := s.ledger.DebitTx(ctx, tx, sessionID, order.Total, "Order payment"); err != nil {
			return err
		}
		if err := s.store.InsertOrder(ctx, tx, &order); err != nil {
			return err
		}
		return s.store.ClearCartTx(ctx, tx, sessionID)
	})
	if err != nil {
		// Two concurrent checkouts with the same key race on the unique
		// index; the loser re-reads the winner's order.
		if idempotencyKey != "" && strings.Contains(err.Error(), "UNIQUE") {
			if existing, lookupErr := s.store.GetOrderByIdempotencyKey(ctx, idempotencyKey); lookupErr == nil {
				return existing, nil
			}
		}
		return domain.Order{}, err
	}
	return order, nil
}

// Cancel moves a placed order to cancelled and refunds its total.
// Legal only from placed; anything else is domain.ErrInvalidTransition.
func (s *Service) Cancel(ctx context.Context, orderID int64) (domain.Order, error) {
	return s.transition(ctx, orderID, domain.OrderCancelled,
		[]domain.OrderStatus{domain.OrderPlaced},
		func(o domain.Order) string { return fmt.Sprintf("Refund for cancelled order #%d", o.ID) })
}

// Deliver moves a placed order to delivered. No monetary effect.
func (s *Service) Deliver(ctx context.Context, orderID int64) (domain.Order, error) {
	return s.transition(ctx, orderID, domain.OrderDelivered,
		[]domain.OrderStatus{domain.OrderPlaced}, nil)
}

// Return moves an order to returned and refunds its total. Illegal only
// from the terminal states; returning a placed order is allowed.
func (s *Service) Return(ctx context.Context, orderID int64) (domain.Order, error) {
	return s.transition(ctx, orderID, domain.OrderReturned,
		[]domain.OrderStatus{domain.OrderPlaced, domain.OrderDelivered},
		func(o domain.Order) string { return fmt.Sprintf("Refund for returned order #%d", o.ID) })
}

// transition applies one state change, optionally with a refund, in a
// single transaction. The status move is a conditional UPDATE on the
// allowed prior states, so two racing transitions cannot both refund.
func (s *Service) transition(ctx context.Context, orderID int64, next domain.OrderStatus, from []domain.OrderStatus, refundDesc func(domain.Order) string) (domain.Order, error) {
	var order domain.Order
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		order, err = s.store.GetOrderTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		applied, err := s.store.TransitionOrder(ctx, tx, orderID, next, from...)
		if err != nil {
			return err
		}
		if !applied {
			return fmt.Errorf("%w: order %d is %s", domain.ErrInvalidTransition, orderID, order.Status)
		}
		order.Status = next

		if refundDesc == nil {
			return nil
		}
		return s.ledger.RefundTx(ctx, tx, order.SessionID, order.Total, order.ID, refundDesc(order))
	})
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// Order returns one order, or domain.ErrNotFound.
func (s *Service) Order(ctx context.Context, orderID int64) (domain.Order, error) {
	return s.store.GetOrder(ctx, orderID)
}

// Orders returns the session's orders, newest first.
func (s *Service) Orders(ctx context.Context, sessionID string) ([]domain.Order, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id required", domain.ErrValidation)
	}
	return s.store.ListOrders(ctx, sessionID)
}
