package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/upland-labs/storefront/internal/domain"
)

// ─── Catalog Operations ─────────────────────────────────────────────────────

// InsertProduct creates a catalog entry and fills in its assigned ID.
func (d *DB) InsertProduct(ctx context.Context, p *domain.Product) error {
	priceCents, err := domain.CentsFromDecimal(p.Price)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	res, err := d.db.ExecContext(ctx, `
		INSERT INTO products (name, description, price_cents, image_url, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.Name, p.Description, priceCents, p.ImageURL, now)
	if err != nil {
		return err
	}
	p.ID, err = res.LastInsertId()
	p.CreatedAt = now
	return err
}

// GetProduct returns one product, or domain.ErrNotFound.
func (d *DB) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	var (
		p          domain.Product
		priceCents int64
	)
	err := d.db.QueryRowContext(ctx, `
		SELECT id, name, description, price_cents, image_url, created_at
		FROM products WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Description, &priceCents, &p.ImageURL, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.Product{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	p.Price = domain.DecimalFromCents(priceCents)
	return p, nil
}

// ListProducts returns the whole catalog ordered by id.
func (d *DB) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, name, description, price_cents, image_url, created_at
		FROM products ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var (
			p          domain.Product
			priceCents int64
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &priceCents, &p.ImageURL, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Price = domain.DecimalFromCents(priceCents)
		products = append(products, p)
	}
	return products, rows.Err()
}

// CountProducts is used to decide whether the default catalog seed runs.
func (d *DB) CountProducts(ctx context.Context) (int, error) {
	var n int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	return n, err
}
