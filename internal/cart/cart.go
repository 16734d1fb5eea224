package cart

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Item is one line of a shopping cart: a product snapshot plus the chosen
// size, color and quantity.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Quantity  int             `json:"quantity"`
}

// key identifies a cart line. A cart holds at most one line per distinct
// (product, size, color) combination.
type key struct {
	productID string
	size      string
	color     string
}

// Cart is a client-side aggregate of items pending checkout. It preserves
// insertion order and merges quantities when the same combination is added
// twice. It is not safe for concurrent use.
type Cart struct {
	items []Item
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

func itemKey(it Item) key {
	return key{productID: it.ProductID, size: it.Size, color: it.Color}
}

// Add puts an item in the cart. Adding an existing (product, size, color)
// combination increments its quantity rather than appending a duplicate line.
func (c *Cart) Add(item Item) error {
	if item.Quantity < 1 {
		return fmt.Errorf("quantity must be at least 1, got %d", item.Quantity)
	}
	k := itemKey(item)
	for i := range c.items {
		if itemKey(c.items[i]) == k {
			c.items[i].Quantity += item.Quantity
			return nil
		}
	}
	c.items = append(c.items, item)
	return nil
}

// SetQuantity replaces the quantity of an existing line. A quantity of zero
// removes the line.
func (c *Cart) SetQuantity(productID, size, color string, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("quantity must not be negative, got %d", quantity)
	}
	k := key{productID: productID, size: size, color: color}
	for i := range c.items {
		if itemKey(c.items[i]) == k {
			if quantity == 0 {
				c.items = append(c.items[:i], c.items[i+1:]...)
			} else {
				c.items[i].Quantity = quantity
			}
			return nil
		}
	}
	return fmt.Errorf("item %s (size %s, color %s) not in cart", productID, size, color)
}

// Remove deletes a line from the cart. Removing an absent line is a no-op.
func (c *Cart) Remove(productID, size, color string) {
	k := key{productID: productID, size: size, color: color}
	for i := range c.items {
		if itemKey(c.items[i]) == k {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// Items returns a copy of the cart's lines in insertion order.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of distinct lines in the cart.
func (c *Cart) Len() int {
	return len(c.items)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

// Totals computes the cart's subtotal, tax and total. See Totals.
func (c *Cart) Totals() (subtotal, tax, total decimal.Decimal) {
	return Totals(c.items)
}
