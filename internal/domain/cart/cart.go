// Package cart aggregates requested quantities per product and renders the
// checkout message.
package cart

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/kastkar/krushi/internal/domain/catalog"
)

// ErrOutOfStock is returned when adding a product with no stock.
var ErrOutOfStock = errors.New("product is out of stock")

// NotInCartError indicates a quantity change for a product not in the cart.
type NotInCartError struct {
	ProductID int64
}

func (e *NotInCartError) Error() string {
	return fmt.Sprintf("product %d is not in the cart", e.ProductID)
}

// Item is one cart line. Product is the catalog record as last seen.
type Item struct {
	Product  catalog.Product
	Quantity int
}

// Subtotal is price times quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart holds at most one line per product id, in the order first added.
//
// Cart is not safe for concurrent use.
type Cart struct {
	items []Item
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add increments p's line by one, creating it at one. Products without
// stock are refused with ErrOutOfStock.
func (c *Cart) Add(p catalog.Product) (Item, error) {
	if !p.InStock() {
		return Item{}, ErrOutOfStock
	}
	if i := c.index(p.ID); i >= 0 {
		c.items[i].Quantity++
		c.items[i].Product = p.Clone()
		return c.items[i], nil
	}
	it := Item{Product: p.Clone(), Quantity: 1}
	c.items = append(c.items, it)
	return it, nil
}

// UpdateQuantity applies delta to the line for id. A result at or below zero
// removes the line. The returned quantity is the new value, zero if removed.
func (c *Cart) UpdateQuantity(id int64, delta int) (int, error) {
	i := c.index(id)
	if i < 0 {
		return 0, &NotInCartError{ProductID: id}
	}
	q := max(c.items[i].Quantity+delta, 0)
	if q == 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
		return 0, nil
	}
	c.items[i].Quantity = q
	return q, nil
}

// Refresh replaces the product copy held by the line for p.ID, if any.
func (c *Cart) Refresh(p catalog.Product) {
	if i := c.index(p.ID); i >= 0 {
		c.items[i].Product = p.Clone()
	}
}

// Purge drops the line for id. It reports whether a line was removed.
func (c *Cart) Purge(id int64) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return true
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the lines.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	for i, it := range c.items {
		out[i] = Item{Product: it.Product.Clone(), Quantity: it.Quantity}
	}
	return out
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// Total is recomputed from the lines on every call.
func (c *Cart) Total() decimal.Decimal {
	return Total(c.items)
}

// Total sums price times quantity over items.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (c *Cart) index(id int64) int {
	for i := range c.items {
		if c.items[i].Product.ID == id {
			return i
		}
	}
	return -1
}
