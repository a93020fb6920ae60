package sqlite

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/upland-labs/storefront/internal/domain"
)

// SeedDefaultCatalog inserts the demo catalog when the products table is
// empty. Returns the number of products inserted (0 when already seeded).
func (d *DB) SeedDefaultCatalog(ctx context.Context) (int, error) {
	n, err := d.CountProducts(ctx)
	if err != nil || n > 0 {
		return 0, err
	}

	defaults := []domain.Product{
		{Name: "Wireless Mouse", Description: "Compact 2.4GHz optical mouse", Price: decimal.New(2499, -2), ImageURL: "/img/mouse.png"},
		{Name: "Mechanical Keyboard", Description: "Tenkeyless, brown switches", Price: decimal.New(8900, -2), ImageURL: "/img/keyboard.png"},
		{Name: "USB-C Hub", Description: "7-in-1 with HDMI and card reader", Price: decimal.New(3450, -2), ImageURL: "/img/hub.png"},
		{Name: "Laptop Stand", Description: "Adjustable aluminium stand", Price: decimal.New(2000, -2), ImageURL: "/img/stand.png"},
		{Name: "Noise-Cancelling Headphones", Description: "Over-ear, 30h battery", Price: decimal.New(12999, -2), ImageURL: "/img/headphones.png"},
		{Name: "Webcam", Description: "1080p with privacy shutter", Price: decimal.New(4575, -2), ImageURL: "/img/webcam.png"},
	}
	for i := range defaults {
		if err := d.InsertProduct(ctx, &defaults[i]); err != nil {
			return i, err
		}
	}
	return len(defaults), nil
}
