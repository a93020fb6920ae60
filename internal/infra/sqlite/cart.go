package sqlite

import (
	"context"

	"github.com/upland-labs/storefront/internal/domain"
)

// ─── Cart Operations ────────────────────────────────────────────────────────

// AddCartItem adds quantity to a session's cart line, creating the line
// on first add.
func (d *DB) AddCartItem(ctx context.Context, sessionID string, productID int64, quantity int) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO cart_items (session_id, product_id, quantity)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id, product_id) DO UPDATE SET
			quantity = quantity + excluded.quantity
	`, sessionID, productID, quantity)
	return err
}

// SetCartItemQuantity replaces a line's quantity; zero or below deletes
// the line. Returns domain.ErrNotFound when the line does not exist.
func (d *DB) SetCartItemQuantity(ctx context.Context, sessionID string, productID int64, quantity int) error {
	if quantity <= 0 {
		return d.RemoveCartItem(ctx, sessionID, productID)
	}
	res, err := d.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity = ? WHERE session_id = ? AND product_id = ?
	`, quantity, sessionID, productID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RemoveCartItem deletes one line. Returns domain.ErrNotFound for a
// missing line so the facade can answer 404 like the original did.
func (d *DB) RemoveCartItem(ctx context.Context, sessionID string, productID int64) error {
	res, err := d.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE session_id = ? AND product_id = ?
	`, sessionID, productID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ClearCart removes every line for the session. Clearing an already empty
// cart is not an error.
func (d *DB) ClearCart(ctx context.Context, sessionID string) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM cart_items WHERE session_id = ?`, sessionID)
	return err
}

// ClearCartTx is ClearCart against a live transaction (checkout).
func (d *DB) ClearCartTx(ctx context.Context, q Queryer, sessionID string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM cart_items WHERE session_id = ?`, sessionID)
	return err
}

// ListCart returns the session's cart denormalized with product fields.
func (d *DB) ListCart(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	return listCart(ctx, d.db, sessionID)
}

// ListCartTx is ListCart inside a transaction, so checkout prices the
// cart it is about to clear, not a concurrently mutated one.
func (d *DB) ListCartTx(ctx context.Context, q Queryer, sessionID string) ([]domain.CartLine, error) {
	return listCart(ctx, q, sessionID)
}

func listCart(ctx context.Context, q Queryer, sessionID string) ([]domain.CartLine, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT c.product_id, p.name, p.price_cents, p.image_url, c.quantity
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.session_id = ?
		ORDER BY c.product_id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var (
			l          domain.CartLine
			priceCents int64
		)
		if err := rows.Scan(&l.ProductID, &l.Name, &priceCents, &l.ImageURL, &l.Quantity); err != nil {
			return nil, err
		}
		l.Price = domain.DecimalFromCents(priceCents)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
