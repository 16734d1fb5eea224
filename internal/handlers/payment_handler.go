package handlers

import (
	"errors"
	"log"

	"github.com/jessespears/t-shirt-time/pkg/payment"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// PaymentHandler exposes thin endpoints over the payment processor boundary.
type PaymentHandler struct {
	provider payment.Provider
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(provider payment.Provider) *PaymentHandler {
	return &PaymentHandler{
		provider: provider,
	}
}

// RegisterRoutes registers the payment routes with the Fiber app.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router) {
	paymentRoutes := router.Group("/payments")
	paymentRoutes.Post("/intents", h.HandleCreateIntent)
	paymentRoutes.Get("/intents/:id", h.HandleGetIntent)
}

// CreateIntentRequest is the payload for creating a payment intent. Amount
// is a fixed-point decimal string, e.g. "32.54".
type CreateIntentRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// HandleCreateIntent creates a payment intent for the given amount.
func (h *PaymentHandler) HandleCreateIntent(c *fiber.Ctx) error {
	var req CreateIntentRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing intent request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if !req.Amount.IsPositive() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Amount must be greater than zero",
		})
	}

	intent, err := h.provider.CreateIntent(req.Amount, req.Currency)
	if err != nil {
		log.Printf("Error creating payment intent: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": "Payment processor rejected the intent",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(intent)
}

// HandleGetIntent returns the status of a payment intent.
func (h *PaymentHandler) HandleGetIntent(c *fiber.Ctx) error {
	intentID := c.Params("id")
	intent, err := h.provider.GetIntent(intentID)
	if err != nil {
		if errors.Is(err, payment.ErrIntentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Payment intent not found",
			})
		}
		log.Printf("Error fetching payment intent %s: %v", intentID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": "Could not retrieve payment intent",
			"error":   err.Error(),
		})
	}
	return c.JSON(intent)
}
