package domain

import "github.com/shopspring/decimal"

// Product is the stock-relevant slice of the catalog consumed by checkout.
// StockQuantity never goes below zero; operations that would drive it
// negative fail the whole transaction instead of clamping.
type Product struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price,omitempty"`
	StockQuantity int              `json:"stock_quantity"`
	MinStockLevel int              `json:"min_stock_level"`
	Active        bool             `json:"active"`
}

// EffectivePrice is the price a cart line snapshots: the discount price when
// one is set, otherwise the list price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice != nil && p.DiscountPrice.GreaterThan(decimal.Zero) {
		return *p.DiscountPrice
	}
	return p.Price
}

// BelowMinStock reports whether stock has fallen under the restock threshold.
func (p Product) BelowMinStock() bool {
	return p.StockQuantity < p.MinStockLevel
}
