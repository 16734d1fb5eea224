package repositories

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrTxConflict reports that a checkout transaction lost a serialization or
// deadlock race with a concurrent transaction. The operation left no state
// behind and may be retried.
var ErrTxConflict = errors.New("transaction conflict, retry the operation")

// ProductNotFoundError reports that a referenced product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product with ID %s not found", e.ProductID)
}

// OrderNotFoundError reports that a referenced order does not exist.
type OrderNotFoundError struct {
	OrderID string
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("order with ID %s not found", e.OrderID)
}

// InsufficientStockError reports that a requested quantity exceeds a
// product's available stock. It names the offending product and carries both
// quantities.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (requested: %d, available: %d)",
		e.Name, e.Requested, e.Available)
}

// isSerializationFailure reports whether err is a database-level conflict
// (serialization failure or deadlock) that a retry of the whole transaction
// can resolve.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsTransactionRollback(pgErr.Code)
	}
	return false
}
