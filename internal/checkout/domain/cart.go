package domain

import (
	"github.com/shopspring/decimal"
)

// CartLine is a single product entry in a cart. Name and unit price are
// snapshots taken when the line was added; quantity is always >= 1.
type CartLine struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

// TotalPrice returns unit price times quantity for the line.
func (l CartLine) TotalPrice() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds the lines of a single shopping session. It is a plain value
// passed in by the caller and keyed by a session identifier; it never reads
// ambient state. Stock validation happens in the application layer against a
// freshly read stock value, not here.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

// AddLine merges quantity into an existing line for the product or appends a
// new line. Snapshots are only taken for new lines; an existing line keeps
// the price it was added at.
func (c *Cart) AddLine(productID int64, productName string, unitPrice decimal.Decimal, quantity int) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity += quantity
			return
		}
	}
	c.Lines = append(c.Lines, CartLine{
		ProductID:   productID,
		ProductName: productName,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
	})
}

// SetLineQuantity replaces the stored quantity for a product. A quantity of
// zero or less removes the line instead of storing it.
func (c *Cart) SetLineQuantity(productID int64, quantity int) {
	if quantity <= 0 {
		c.RemoveLine(productID)
		return
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity = quantity
			return
		}
	}
}

// RemoveLine drops the line for a product. Removing an absent line is a no-op.
func (c *Cart) RemoveLine(productID int64) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

// Line returns the line for a product, or nil when absent.
func (c *Cart) Line(productID int64) *CartLine {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return &c.Lines[i]
		}
	}
	return nil
}

// Subtotal sums unit price times quantity over all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.TotalPrice())
	}
	return total
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Clear empties all lines. Used after a successful checkout commit or an
// explicit cart clear.
func (c *Cart) Clear() {
	c.Lines = nil
}

// TotalQuantity sums quantities across all lines.
func (c *Cart) TotalQuantity() int {
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}
