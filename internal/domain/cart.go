package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is a single purchasable selection in a cart. Two line items are
// the same selection when both product id and variant match; a different
// size of the same product is a separate line.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Variant   string          `json:"variant,omitempty"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	AddedAt   time.Time       `json:"added_at"`
}

// Subtotal returns unit price times quantity.
func (i LineItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart holds the selections of one user. Entries are unique on
// (product id, variant) and every entry carries quantity >= 1; an entry
// that would reach zero is removed instead of stored.
type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []LineItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Add merges the item into the cart. If a line with the same product id and
// variant already exists its quantity grows by one and the incoming price
// and name are ignored; otherwise the item is inserted with quantity 1.
func (c *Cart) Add(item LineItem) {
	if existing := c.find(item.ProductID, item.Variant); existing != nil {
		existing.Quantity++
		return
	}
	item.Quantity = 1
	item.AddedAt = time.Now()
	c.Items = append(c.Items, item)
}

// Remove deletes the line with the given product id and variant.
// Removing an absent line is a no-op.
func (c *Cart) Remove(productID, variant string) {
	for i, item := range c.Items {
		if item.ProductID == productID && item.Variant == variant {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// IncrementQuantity adds one to the matching line. No-op when absent.
func (c *Cart) IncrementQuantity(productID, variant string) {
	if item := c.find(productID, variant); item != nil {
		item.Quantity++
	}
}

// DecrementQuantity subtracts one from the matching line. A line at
// quantity 1 is left untouched; deletion goes through Remove.
// No-op when absent.
func (c *Cart) DecrementQuantity(productID, variant string) {
	if item := c.find(productID, variant); item != nil && item.Quantity > 1 {
		item.Quantity--
	}
}

// Total is always derived from the lines, never stored.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Clear drops every line, e.g. after a completed checkout.
func (c *Cart) Clear() {
	c.Items = nil
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) find(productID, variant string) *LineItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].Variant == variant {
			return &c.Items[i]
		}
	}
	return nil
}
