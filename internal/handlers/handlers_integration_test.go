package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jessespears/t-shirt-time/internal/handlers"
	"github.com/jessespears/t-shirt-time/internal/middleware"
	"github.com/jessespears/t-shirt-time/internal/models"
	"github.com/jessespears/t-shirt-time/internal/repositories"
	"github.com/jessespears/t-shirt-time/internal/services"
	"github.com/jessespears/t-shirt-time/pkg/payment"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupApp builds a Fiber app over an in-memory SQLite database with the
// full handler/service/repository stack, mirroring production wiring.
func setupApp(t *testing.T) (*fiber.App, *services.AuthService) {
	t.Helper()

	// A uniquely named shared-cache DB keeps every pooled connection on
	// the same in-memory database while isolating tests from each other.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.Order{}, &models.OrderItem{}, &models.User{}))

	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	checkoutRepo := repositories.NewGORMCheckoutRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	productService := services.NewProductService(productRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, checkoutRepo, nil, 3)
	authService := services.NewAuthService(userRepo, "test_jwt_secret")
	paymentProvider := payment.NewMemoryProvider()

	productHandler := handlers.NewProductHandler(productService)
	orderHandler := handlers.NewOrderHandler(orderService)
	authHandler := handlers.NewAuthHandler(authService)
	paymentHandler := handlers.NewPaymentHandler(paymentProvider)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")

	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1)
	orderHandler.RegisterRoutes(apiV1)
	paymentHandler.RegisterRoutes(apiV1)

	adminRoutes := apiV1.Group("/admin", middleware.AuthRequired(authService), middleware.AdminRequired())
	productHandler.RegisterAdminRoutes(adminRoutes)
	orderHandler.RegisterAdminRoutes(adminRoutes)

	return app, authService
}

// adminToken provisions an admin user directly through the service (admins
// are never created via the public registration endpoint) and logs them in.
func adminToken(t *testing.T, authService *services.AuthService) string {
	t.Helper()
	admin := &models.User{
		Username: "admin",
		Email:    "admin@example.com",
		Password: "admin_password",
		Role:     models.RoleAdmin,
	}
	require.NoError(t, authService.RegisterUser(admin))
	token, err := authService.LoginUser("admin", "admin_password")
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, app *fiber.App, method, url, token string, payload interface{}) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, url, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, respBody
}

func createProduct(t *testing.T, app *fiber.App, token string, name string, priceStr string, stock int) models.Product {
	t.Helper()
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/admin/products/", token, fiber.Map{
		"name":                name,
		"description":         "Soft cotton tee",
		"price":               priceStr,
		"sizes":               []string{"S", "M", "L", "XL"},
		"colors":              []string{"black", "white"},
		"stock":               stock,
		"low_stock_threshold": 3,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "create product: %s", body)

	var product models.Product
	require.NoError(t, json.Unmarshal(body, &product))
	return product
}

func orderPayload(items ...fiber.Map) fiber.Map {
	return fiber.Map{
		"customer_name":    "Jane Doe",
		"customer_email":   "jane@example.com",
		"customer_phone":   "555-0100",
		"shipping_address": "1 Main St",
		"shipping_city":    "Portland",
		"shipping_state":   "OR",
		"shipping_zip":     "97201",
		"items":            items,
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	app, authService := setupApp(t)

	// No token at all.
	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/admin/products/", "", fiber.Map{"name": "Tee"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// A customer token is not enough.
	customer := &models.User{Username: "shopper", Email: "shopper@example.com", Password: "password123"}
	require.NoError(t, authService.RegisterUser(customer))
	customerToken, err := authService.LoginUser("shopper", "password123")
	require.NoError(t, err)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/admin/products/", customerToken, fiber.Map{"name": "Tee"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestProductLifecycle(t *testing.T) {
	app, authService := setupApp(t)
	token := adminToken(t, authService)

	product := createProduct(t, app, token, "Classic Tee", "19.99", 25)
	assert.NotEmpty(t, product.ID)
	assert.True(t, product.Price.Equal(decimal.RequireFromString("19.99")))

	// Public browse.
	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/products/", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var products []models.Product
	require.NoError(t, json.Unmarshal(body, &products))
	assert.Len(t, products, 1)

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/products/"+product.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.Product
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, product.Name, fetched.Name)
	assert.Equal(t, []string{"S", "M", "L", "XL"}, []string(fetched.Sizes))

	// Update.
	fetched.Stock = 30
	resp, _ = doJSON(t, app, http.MethodPut, "/api/v1/admin/products/"+product.ID, token, fetched)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Delete, then 404 on fetch.
	resp, _ = doJSON(t, app, http.MethodDelete, "/api/v1/admin/products/"+product.ID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/products/"+product.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLowStockReport(t *testing.T) {
	app, authService := setupApp(t)
	token := adminToken(t, authService)

	healthy := createProduct(t, app, token, "Classic Tee", "19.99", 25)
	low := createProduct(t, app, token, "Vintage Tee", "24.50", 2)

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/admin/products/low-stock", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var products []models.Product
	require.NoError(t, json.Unmarshal(body, &products))
	require.Len(t, products, 1)
	assert.Equal(t, low.ID, products[0].ID)
	assert.NotEqual(t, healthy.ID, products[0].ID)
}

func TestCreateOrder_SuccessDecrementsStock(t *testing.T) {
	app, authService := setupApp(t)
	token := adminToken(t, authService)
	product := createProduct(t, app, token, "Classic Tee", "29.99", 10)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/orders/", "", orderPayload(
		fiber.Map{"product_id": product.ID, "size": "M", "color": "black", "quantity": 2},
	))
	require.Equal(t, http.StatusCreated, resp.StatusCode, "create order: %s", body)

	var order models.Order
	require.NoError(t, json.Unmarshal(body, &order))
	assert.NotEmpty(t, order.OrderNumber)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusUnpaid, order.PaymentStatus)
	assert.Equal(t, "59.98", order.Subtotal.StringFixed(2))
	assert.Equal(t, "5.10", order.Tax.StringFixed(2))
	assert.Equal(t, "65.08", order.Total.StringFixed(2))

	// Stock went down by exactly the ordered quantity.
	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/products/"+product.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var after models.Product
	require.NoError(t, json.Unmarshal(body, &after))
	assert.Equal(t, 8, after.Stock)
}

func TestCreateOrder_InsufficientStockIs409(t *testing.T) {
	app, authService := setupApp(t)
	token := adminToken(t, authService)
	product := createProduct(t, app, token, "Classic Tee", "29.99", 1)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/orders/", "", orderPayload(
		fiber.Map{"product_id": product.ID, "size": "M", "color": "black", "quantity": 5},
	))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var errResp map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, product.ID, errResp["product_id"])
	assert.Contains(t, errResp["message"], "Classic Tee")

	// Stock untouched.
	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/products/"+product.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var after models.Product
	require.NoError(t, json.Unmarshal(body, &after))
	assert.Equal(t, 1, after.Stock)
}

func TestCreateOrder_UnknownProductIs404(t *testing.T) {
	app, _ := setupApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/orders/", "", orderPayload(
		fiber.Map{"product_id": "ghost", "quantity": 1},
	))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateOrder_ZeroQuantityIs400(t *testing.T) {
	app, authService := setupApp(t)
	token := adminToken(t, authService)
	product := createProduct(t, app, token, "Classic Tee", "29.99", 10)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/orders/", "", orderPayload(
		fiber.Map{"product_id": product.ID, "quantity": 0},
	))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateOrder_MissingCustomerFieldsIs400(t *testing.T) {
	app, _ := setupApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/orders/", "", fiber.Map{
		"customer_name": "Jane Doe",
		// no email, no shipping fields
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetOrderByNumber_IdempotentAfterPriceEdit(t *testing.T) {
	app, authService := setupApp(t)
	token := adminToken(t, authService)
	product := createProduct(t, app, token, "Classic Tee", "29.99", 10)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/orders/", "", orderPayload(
		fiber.Map{"product_id": product.ID, "size": "L", "color": "white", "quantity": 1},
	))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	require.NoError(t, json.Unmarshal(body, &order))

	// Raise the product price after the sale.
	product.Price = decimal.RequireFromString("49.99")
	product.Stock = 9
	resp, _ = doJSON(t, app, http.MethodPut, "/api/v1/admin/products/"+product.ID, token, product)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/orders/number/"+order.OrderNumber, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var refetched models.Order
	require.NoError(t, json.Unmarshal(body, &refetched))

	assert.True(t, refetched.Total.Equal(order.Total))
	require.Len(t, refetched.Items, 1)
	assert.True(t, refetched.Items[0].Price.Equal(decimal.RequireFromString("29.99")),
		"captured price must not follow later product edits")
}

func TestUpdateOrderStatus_IndependentFields(t *testing.T) {
	app, authService := setupApp(t)
	token := adminToken(t, authService)
	product := createProduct(t, app, token, "Classic Tee", "29.99", 10)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/orders/", "", orderPayload(
		fiber.Map{"product_id": product.ID, "quantity": 1},
	))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	require.NoError(t, json.Unmarshal(body, &order))

	// Set both at once; "shipped" straight from "pending" is allowed.
	resp, _ = doJSON(t, app, http.MethodPatch, "/api/v1/admin/orders/"+order.ID+"/status", token, fiber.Map{
		"status":         "shipped",
		"payment_status": "paid",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/orders/"+order.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Order
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, models.OrderStatusShipped, updated.Status)
	assert.Equal(t, models.PaymentStatusPaid, updated.PaymentStatus)

	// Now change only the payment status; the order status must not move.
	resp, _ = doJSON(t, app, http.MethodPatch, "/api/v1/admin/orders/"+order.ID+"/status", token, fiber.Map{
		"payment_status": "refunded",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/orders/"+order.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, models.OrderStatusShipped, updated.Status)
	assert.Equal(t, models.PaymentStatusRefunded, updated.PaymentStatus)
}

func TestUpdateOrderStatus_InvalidValueIs400(t *testing.T) {
	app, authService := setupApp(t)
	token := adminToken(t, authService)
	product := createProduct(t, app, token, "Classic Tee", "29.99", 10)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/orders/", "", orderPayload(
		fiber.Map{"product_id": product.ID, "quantity": 1},
	))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	require.NoError(t, json.Unmarshal(body, &order))

	resp, _ = doJSON(t, app, http.MethodPatch, "/api/v1/admin/orders/"+order.ID+"/status", token, fiber.Map{
		"status": "teleported",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPaymentIntentRoundTrip(t *testing.T) {
	app, _ := setupApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/payments/intents", "", fiber.Map{
		"amount":   "65.08",
		"currency": "USD",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "create intent: %s", body)

	var intent payment.Intent
	require.NoError(t, json.Unmarshal(body, &intent))
	assert.NotEmpty(t, intent.ID)
	assert.True(t, intent.Amount.Equal(decimal.RequireFromString("65.08")))

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/payments/intents/"+intent.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched payment.Intent
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, intent.ID, fetched.ID)
}

func TestCreateOrder_CarriesPaymentIntentPassthrough(t *testing.T) {
	app, authService := setupApp(t)
	token := adminToken(t, authService)
	product := createProduct(t, app, token, "Classic Tee", "29.99", 10)

	payload := orderPayload(fiber.Map{"product_id": product.ID, "quantity": 1})
	payload["payment_intent_id"] = "pi_test_123"

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/orders/", "", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var order models.Order
	require.NoError(t, json.Unmarshal(body, &order))
	assert.Equal(t, "pi_test_123", order.PaymentIntentID)

	resp, body = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/orders/%s", order.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.Order
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, "pi_test_123", fetched.PaymentIntentID)
}
