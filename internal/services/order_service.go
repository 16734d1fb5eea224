package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jessespears/t-shirt-time/internal/cart"
	"github.com/jessespears/t-shirt-time/internal/models"
	"github.com/jessespears/t-shirt-time/internal/repositories"

	"github.com/google/uuid"
)

// EventPublisher publishes order events to the message broker. Satisfied by
// *rabbitmq.Client; injected so tests can mock it.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// PlaceOrderItem is one requested line of a new order.
type PlaceOrderItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

// PlaceOrderRequest carries everything needed to place an order. Items may be
// empty; an order with no items skips stock validation and is still created.
type PlaceOrderRequest struct {
	CustomerName    string           `json:"customer_name" validate:"required,max=200"`
	CustomerEmail   string           `json:"customer_email" validate:"required,email"`
	CustomerPhone   string           `json:"customer_phone" validate:"omitempty,max=30"`
	ShippingAddress string           `json:"shipping_address" validate:"required,max=300"`
	ShippingCity    string           `json:"shipping_city" validate:"required,max=100"`
	ShippingState   string           `json:"shipping_state" validate:"required,max=100"`
	ShippingZip     string           `json:"shipping_zip" validate:"required,max=20"`
	PaymentIntentID string           `json:"payment_intent_id"`
	Items           []PlaceOrderItem `json:"items" validate:"dive"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo    repositories.OrderRepository
	productRepo  repositories.ProductRepository
	checkoutRepo repositories.CheckoutRepository
	publisher    EventPublisher
	// maxRetries bounds transparent retries of the checkout transaction
	// after a serialization conflict, before the conflict surfaces to the
	// caller.
	maxRetries int
}

// NewOrderService creates a new OrderService. publisher may be nil, in which
// case no events are published.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	checkoutRepo repositories.CheckoutRepository,
	publisher EventPublisher,
	maxRetries int,
) *OrderService {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &OrderService{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		checkoutRepo: checkoutRepo,
		publisher:    publisher,
		maxRetries:   maxRetries,
	}
}

// GetAllOrders retrieves all orders.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// GetOrderByNumber retrieves a single order by its order number.
func (s *OrderService) GetOrderByNumber(orderNumber string) (*models.Order, error) {
	return s.orderRepo.GetByNumber(orderNumber)
}

// PlaceOrder places a new order: it snapshots each product's name and price,
// computes the totals, and hands the order plus its stock requirements to the
// checkout unit of work, which commits everything atomically or nothing at
// all. Checkout conflicts are retried up to the configured budget.
func (s *OrderService) PlaceOrder(req PlaceOrderRequest) (*models.Order, error) {
	items := make([]models.OrderItem, 0, len(req.Items))
	cartItems := make([]cart.Item, 0, len(req.Items))
	decrements := make([]repositories.StockDecrement, 0, len(req.Items))

	for _, reqItem := range req.Items {
		product, err := s.productRepo.GetByID(reqItem.ProductID)
		if err != nil {
			return nil, err
		}

		// Snapshot name and price now; later product edits must not
		// change what this order charged.
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Size:      reqItem.Size,
			Color:     reqItem.Color,
			Quantity:  reqItem.Quantity,
		})
		cartItems = append(cartItems, cart.Item{
			ProductID: product.ID,
			Price:     product.Price,
			Quantity:  reqItem.Quantity,
		})
		decrements = append(decrements, repositories.StockDecrement{
			ProductID: reqItem.ProductID,
			Quantity:  reqItem.Quantity,
		})
	}

	subtotal, tax, _ := cart.Totals(cartItems)
	subtotal = subtotal.Round(2)
	tax = tax.Round(2)

	order := &models.Order{
		ID:              uuid.New().String(),
		OrderNumber:     newOrderNumber(),
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ShippingAddress: req.ShippingAddress,
		ShippingCity:    req.ShippingCity,
		ShippingState:   req.ShippingState,
		ShippingZip:     req.ShippingZip,
		Items:           items,
		Subtotal:        subtotal,
		Tax:             tax,
		Total:           subtotal.Add(tax),
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusUnpaid,
		PaymentIntentID: req.PaymentIntentID,
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = s.checkoutRepo.PlaceOrder(order, decrements)
		if !errors.Is(err, repositories.ErrTxConflict) || attempt >= s.maxRetries {
			break
		}
		log.Printf("Checkout conflict for order %s, retrying (%d/%d)", order.OrderNumber, attempt+1, s.maxRetries)
	}
	if err != nil {
		return nil, err
	}

	s.publishEvent("order.created", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"status":       order.Status,
		"total":        order.Total.StringFixed(2),
	})

	return order, nil
}

// UpdateOrderStatus transitions the order status and/or payment status of an
// existing order. Either field may be nil to leave it unchanged. Any
// enumerated value is accepted from any prior value; there is no transition
// state machine.
func (s *OrderService) UpdateOrderStatus(id string, status *models.OrderStatus, paymentStatus *models.PaymentStatus) error {
	if status == nil && paymentStatus == nil {
		return fmt.Errorf("nothing to update: provide a status or payment status")
	}
	if status != nil && !status.Valid() {
		return fmt.Errorf("invalid order status: %s", *status)
	}
	if paymentStatus != nil && !paymentStatus.Valid() {
		return fmt.Errorf("invalid payment status: %s", *paymentStatus)
	}

	if err := s.orderRepo.UpdateStatus(id, status, paymentStatus); err != nil {
		return err
	}

	event := map[string]interface{}{"order_id": id}
	if status != nil {
		event["status"] = *status
	}
	if paymentStatus != nil {
		event["payment_status"] = *paymentStatus
	}
	s.publishEvent("order.status_updated", event)

	return nil
}

func (s *OrderService) publishEvent(routingKey string, payload map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := s.publisher.Publish("order", routingKey, body); err != nil {
		log.Printf("Warning: Failed to publish %s event: %v", routingKey, err)
	}
}

// newOrderNumber generates a human-readable unique order number.
func newOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:10])
	return "TT-" + suffix
}
