package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/jessespears/t-shirt-time/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCheckoutRepository is a GORM implementation of CheckoutRepository. All
// writes happen inside a single database transaction; the stock decrement is
// a conditional UPDATE (stock = stock - ? WHERE stock >= ?) so the row-level
// write lock serializes concurrent checkouts on the same product. Two
// checkouts can never both pass validation against the same stock.
type GORMCheckoutRepository struct {
	db *gorm.DB
}

// NewGORMCheckoutRepository creates a new instance of GORMCheckoutRepository.
func NewGORMCheckoutRepository(db *gorm.DB) *GORMCheckoutRepository {
	return &GORMCheckoutRepository{
		db: db,
	}
}

// PlaceOrder commits the order and its stock decrements atomically, or
// nothing at all.
func (r *GORMCheckoutRepository) PlaceOrder(order *models.Order, decrements []StockDecrement) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt

	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, d := range decrements {
			var product models.Product
			if err := tx.First(&product, "id = ?", d.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &ProductNotFoundError{ProductID: d.ProductID}
				}
				return fmt.Errorf("failed to read product %s: %w", d.ProductID, err)
			}

			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", d.ProductID, d.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", d.Quantity))
			if res.Error != nil {
				return fmt.Errorf("failed to decrement stock for product %s: %w", d.ProductID, res.Error)
			}
			if res.RowsAffected == 0 {
				// The guarded UPDATE found less stock than requested.
				// Re-read so the error carries the quantity that lost
				// the race, not the stale pre-transaction value.
				available := product.Stock
				var current models.Product
				if err := tx.First(&current, "id = ?", d.ProductID).Error; err == nil {
					available = current.Stock
				}
				return &InsufficientStockError{
					ProductID: d.ProductID,
					Name:      product.Name,
					Requested: d.Quantity,
					Available: available,
				}
			}
		}

		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})

	if err != nil {
		if isSerializationFailure(err) {
			return ErrTxConflict
		}
		return err
	}
	return nil
}
