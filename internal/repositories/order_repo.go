package repositories

import (
	"github.com/jessespears/t-shirt-time/internal/models"
)

// OrderRepository defines the interface for order data access. Orders are
// created only through CheckoutRepository.PlaceOrder; after that the only
// mutation is the status update.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	GetByNumber(orderNumber string) (*models.Order, error)
	// UpdateStatus sets the order status and/or payment status. A nil
	// pointer leaves that field untouched, so either can change
	// independently of the other.
	UpdateStatus(id string, status *models.OrderStatus, paymentStatus *models.PaymentStatus) error
}
