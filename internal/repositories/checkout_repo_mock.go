package repositories

import (
	"sync"

	"github.com/jessespears/t-shirt-time/internal/models"
)

// MockCheckoutRepository is an in-memory implementation of
// CheckoutRepository over the mock product and order repositories. A single
// mutex spans the validate-decrement-insert sequence, giving the same
// serialization guarantee the database transaction gives the GORM
// implementation.
type MockCheckoutRepository struct {
	products *MockProductRepository
	orders   *MockOrderRepository
	mu       sync.Mutex
}

// NewMockCheckoutRepository creates a new instance of MockCheckoutRepository.
func NewMockCheckoutRepository(products *MockProductRepository, orders *MockOrderRepository) *MockCheckoutRepository {
	return &MockCheckoutRepository{
		products: products,
		orders:   orders,
	}
}

// PlaceOrder validates and applies all decrements and stores the order under
// one lock, or fails without touching anything.
func (r *MockCheckoutRepository) PlaceOrder(order *models.Order, decrements []StockDecrement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Validate against a working copy first, so an order carrying two
	// lines of the same product (different size or color) is checked
	// against its cumulative requirement and nothing is written on
	// failure.
	working := make(map[string]*models.Product, len(decrements))
	for _, d := range decrements {
		product, ok := working[d.ProductID]
		if !ok {
			var err error
			product, err = r.products.GetByID(d.ProductID)
			if err != nil {
				return err
			}
			working[d.ProductID] = product
		}
		if product.Stock < d.Quantity {
			return &InsufficientStockError{
				ProductID: d.ProductID,
				Name:      product.Name,
				Requested: d.Quantity,
				Available: product.Stock,
			}
		}
		product.Stock -= d.Quantity
	}

	for _, product := range working {
		if err := r.products.Update(product); err != nil {
			return err
		}
	}
	return r.orders.create(order)
}
