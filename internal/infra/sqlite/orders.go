package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/upland-labs/storefront/internal/domain"
)

// ─── Order Operations ───────────────────────────────────────────────────────

// InsertOrder creates an order in the placed state and fills in its ID.
func (d *DB) InsertOrder(ctx context.Context, q Queryer, o *domain.Order) error {
	totalCents, err := domain.CentsFromDecimal(o.Total)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	var key any
	if o.IdempotencyKey != "" {
		key = o.IdempotencyKey
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO orders (session_id, total_cents, status, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, o.SessionID, totalCents, string(domain.OrderPlaced), key, now)
	if err != nil {
		return err
	}
	o.ID, err = res.LastInsertId()
	o.Status = domain.OrderPlaced
	o.CreatedAt = now
	return err
}

func scanOrder(row *sql.Row) (domain.Order, error) {
	var (
		o          domain.Order
		totalCents int64
		key        sql.NullString
	)
	err := row.Scan(&o.ID, &o.SessionID, &totalCents, &o.Status, &key, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.Order{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	o.Total = domain.DecimalFromCents(totalCents)
	o.IdempotencyKey = key.String
	return o, nil
}

const orderColumns = `id, session_id, total_cents, status, idempotency_key, created_at`

// GetOrder returns one order, or domain.ErrNotFound.
func (d *DB) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	return scanOrder(d.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
}

// GetOrderTx is GetOrder against a live transaction.
func (d *DB) GetOrderTx(ctx context.Context, q Queryer, id int64) (domain.Order, error) {
	return scanOrder(q.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
}

// GetOrderByIdempotencyKey returns the order previously created under the
// key, or domain.ErrNotFound when the key is unused.
func (d *DB) GetOrderByIdempotencyKey(ctx context.Context, key string) (domain.Order, error) {
	return scanOrder(d.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE idempotency_key = ?`, key))
}

// ListOrders returns the session's orders, newest first.
func (d *DB) ListOrders(ctx context.Context, sessionID string) ([]domain.Order, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE session_id = ?
		ORDER BY created_at DESC, id DESC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var (
			o          domain.Order
			totalCents int64
			key        sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.SessionID, &totalCents, &o.Status, &key, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Total = domain.DecimalFromCents(totalCents)
		o.IdempotencyKey = key.String
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// TransitionOrder moves an order from one of the allowed prior statuses to
// next, as a single conditional update. Returns false when the order's
// current status is not in from — the caller distinguishes "missing" from
// "illegal transition" with a follow-up read in the same transaction.
func (d *DB) TransitionOrder(ctx context.Context, q Queryer, id int64, next domain.OrderStatus, from ...domain.OrderStatus) (bool, error) {
	query := `UPDATE orders SET status = ? WHERE id = ? AND status IN (?`
	args := []any{string(next), id, string(from[0])}
	for _, s := range from[1:] {
		query += `, ?`
		args = append(args, string(s))
	}
	query += `)`

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
