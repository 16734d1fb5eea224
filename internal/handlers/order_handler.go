package handlers

import (
	"errors"
	"fmt"
	"log"

	"github.com/jessespears/t-shirt-time/internal/models"
	"github.com/jessespears/t-shirt-time/internal/repositories"
	"github.com/jessespears/t-shirt-time/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the public order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/number/:number", h.HandleGetOrderByNumber)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
}

// RegisterAdminRoutes registers the order-management routes. The caller is
// expected to mount these behind the auth and admin middleware.
func (h *OrderHandler) RegisterAdminRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Patch("/:id/status", h.HandleUpdateOrderStatus)
}

// HandleGetOrders retrieves all orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetAllOrders()
	if err != nil {
		log.Printf("Error getting all orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrderByID(orderID)
	if err != nil {
		return orderFetchErrorResponse(c, orderID, err)
	}
	return c.JSON(order)
}

// HandleGetOrderByNumber retrieves a single order by its order number.
func (h *OrderHandler) HandleGetOrderByNumber(c *fiber.Ctx) error {
	orderNumber := c.Params("number")
	order, err := h.service.GetOrderByNumber(orderNumber)
	if err != nil {
		return orderFetchErrorResponse(c, orderNumber, err)
	}
	return c.JSON(order)
}

// HandleCreateOrder places a new order. Stock validation, the decrement and
// the order insert happen atomically in the service's checkout transaction;
// failures map onto the error taxonomy: 400 for malformed input, 404 for an
// unknown product, 409 for insufficient stock or an exhausted conflict retry
// budget.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req services.PlaceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing order request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}

	createdOrder, err := h.service.PlaceOrder(req)
	if err != nil {
		var notFound *repositories.ProductNotFoundError
		var insufficient *repositories.InsufficientStockError
		switch {
		case errors.As(err, &notFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product with ID %s not found", notFound.ProductID),
			})
		case errors.As(err, &insufficient):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": fmt.Sprintf("Not enough stock for %s: requested %d, only %d available",
					insufficient.Name, insufficient.Requested, insufficient.Available),
				"product_id": insufficient.ProductID,
			})
		case errors.Is(err, repositories.ErrTxConflict):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Checkout is busy, please try again",
			})
		}
		log.Printf("Error creating order: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create order",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(createdOrder)
}

// UpdateOrderStatusRequest is the PATCH payload for an order's status. Either
// field may be omitted to leave it unchanged.
type UpdateOrderStatusRequest struct {
	Status        *models.OrderStatus   `json:"status"`
	PaymentStatus *models.PaymentStatus `json:"payment_status"`
}

// HandleUpdateOrderStatus updates the status and/or payment status of an
// existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var req UpdateOrderStatusRequest

	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing status update request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body for status update",
			"error":   err.Error(),
		})
	}

	if err := h.service.UpdateOrderStatus(orderID, req.Status, req.PaymentStatus); err != nil {
		var notFound *repositories.OrderNotFoundError
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Order with ID %s not found", orderID),
			})
		}
		log.Printf("Error updating order status for order %s: %v", orderID, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": fmt.Sprintf("Order update failed: %v", err),
		})
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Order %s updated successfully", orderID),
	})
}

// orderFetchErrorResponse maps order-fetch failures onto HTTP responses.
func orderFetchErrorResponse(c *fiber.Ctx, ref string, err error) error {
	var notFound *repositories.OrderNotFoundError
	if errors.As(err, &notFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Order %s not found", ref),
		})
	}
	log.Printf("Error getting order %s: %v", ref, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Could not retrieve order",
		"error":   err.Error(),
	})
}
