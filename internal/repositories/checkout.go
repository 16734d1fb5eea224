package repositories

import (
	"github.com/jessespears/t-shirt-time/internal/models"
)

// StockDecrement is one stock requirement of an order: decrement the given
// product's stock by Quantity. Quantity is at least 1; payloads with zero or
// negative quantities are rejected upstream by input validation.
type StockDecrement struct {
	ProductID string
	Quantity  int
}

// CheckoutRepository is the unit of work behind order placement. PlaceOrder
// validates every decrement against current stock and, only if all pass,
// applies the decrements and inserts the order as one atomic unit. On any
// failure nothing is written: no stock changes, no order row.
//
// Failures are reported as *ProductNotFoundError, *InsufficientStockError, or
// ErrTxConflict when the transaction lost a race with a concurrent checkout
// and should be retried.
//
// An order with no decrements skips validation and is still created.
type CheckoutRepository interface {
	PlaceOrder(order *models.Order, decrements []StockDecrement) error
}
