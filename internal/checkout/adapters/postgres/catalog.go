package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techshop/checkout/internal/checkout/domain"
	"github.com/techshop/checkout/internal/checkout/ports"
)

// Catalog implements ports.ProductCatalog. Every read hits the database so
// cart stock checks see a live value, never a cached one.
type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

func (c *Catalog) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	query := `
		SELECT id, name, price, discount_price, stock_quantity, min_stock_level, active
		FROM products
		WHERE id = $1 AND active
	`

	var product domain.Product
	err := c.pool.QueryRow(ctx, query, productID).Scan(
		&product.ID,
		&product.Name,
		&product.Price,
		&product.DiscountPrice,
		&product.StockQuantity,
		&product.MinStockLevel,
		&product.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrProductNotFound
		}
		return nil, fmt.Errorf("select product: %w", err)
	}

	return &product, nil
}
