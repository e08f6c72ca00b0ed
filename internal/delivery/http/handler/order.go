package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/Pesokrava/storefront/internal/delivery/http/request"
	"github.com/Pesokrava/storefront/internal/delivery/http/response"
	"github.com/Pesokrava/storefront/internal/domain"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
	"github.com/Pesokrava/storefront/internal/usecase/order"
)

// OrderHandler handles HTTP requests for orders
type OrderHandler struct {
	service *order.Service
	logger  *logger.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(service *order.Service, log *logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  log,
	}
}

// OrderItemRequest is one requested order line
type OrderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      *int   `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

// CreateOrderRequest represents the request body for placing an order
type CreateOrderRequest struct {
	Items           []OrderItemRequest     `json:"items"`
	PaymentMethod   string                 `json:"payment_method"`
	ShippingAddress domain.ShippingAddress `json:"shipping_address"`
	FromCart        bool                   `json:"from_cart"`
	Notes           string                 `json:"notes,omitempty"`
}

// PayOrderRequest carries the opaque payment provider result
type PayOrderRequest struct {
	PaymentResult json.RawMessage `json:"payment_result"`
}

// UpdateOrderStatusRequest represents the admin status change body
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

// Create handles POST /api/v1/orders
// @Summary Place an order
// @Description Reserves stock for every line atomically. With from_cart and no items the cart lines are ordered and the cart is cleared.
// @Tags Orders
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Caller user ID"
// @Param order body CreateOrderRequest true "Order details"
// @Success 201 {object} map[string]interface{} "Order created"
// @Failure 400 {object} map[string]string "Invalid input or insufficient stock"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /orders [post]
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	items := make([]order.ItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid product ID")
			return
		}
		items = append(items, order.ItemInput{
			ProductID: productID,
			Quantity:  item.Quantity,
			Variant:   domain.Variant{Size: item.Size, Color: item.Color},
		})
	}

	created, err := h.service.Create(r.Context(), order.CreateInput{
		UserID:          caller(r).UserID,
		Items:           items,
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		ShippingAddress: req.ShippingAddress,
		FromCart:        req.FromCart,
		Notes:           req.Notes,
	})
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, created)
}

// ListMine handles GET /api/v1/orders
// @Summary List the caller's orders
// @Tags Orders
// @Produce json
// @Param X-User-ID header string true "Caller user ID"
// @Success 200 {object} map[string]interface{} "Orders, newest first"
// @Router /orders [get]
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListForUser(r.Context(), caller(r).UserID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, orders)
}

// Get handles GET /api/v1/orders/{orderId}
// @Summary Get an order
// @Description Owners and admins only
// @Tags Orders
// @Produce json
// @Param X-User-ID header string true "Caller user ID"
// @Param orderId path string true "Order ID (UUID)"
// @Success 200 {object} map[string]interface{} "Order"
// @Failure 403 {object} map[string]string "Not the owner"
// @Failure 404 {object} map[string]string "Order not found"
// @Router /orders/{orderId} [get]
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := request.GetUUIDParam(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	found, err := h.service.Get(r.Context(), orderID, caller(r))
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, found)
}

// Pay handles PUT /api/v1/orders/{orderId}/pay
// @Summary Record payment for an order
// @Tags Orders
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Caller user ID"
// @Param orderId path string true "Order ID (UUID)"
// @Param payment body PayOrderRequest true "Payment provider result"
// @Success 200 {object} map[string]interface{} "Paid order"
// @Failure 400 {object} map[string]string "Invalid input or cancelled order"
// @Failure 403 {object} map[string]string "Not the owner"
// @Failure 404 {object} map[string]string "Order not found"
// @Router /orders/{orderId}/pay [put]
func (h *OrderHandler) Pay(w http.ResponseWriter, r *http.Request) {
	orderID, err := request.GetUUIDParam(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req PayOrderRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	paid, err := h.service.UpdatePayment(r.Context(), orderID, caller(r), req.PaymentResult)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, paid)
}

// Cancel handles PUT /api/v1/orders/{orderId}/cancel
// @Summary Cancel an order
// @Description Owner only. Restores the reserved stock.
// @Tags Orders
// @Produce json
// @Param X-User-ID header string true "Caller user ID"
// @Param orderId path string true "Order ID (UUID)"
// @Success 200 {object} map[string]interface{} "Cancelled order"
// @Failure 400 {object} map[string]string "Order already delivered or cancelled"
// @Failure 403 {object} map[string]string "Not the owner"
// @Failure 404 {object} map[string]string "Order not found"
// @Router /orders/{orderId}/cancel [put]
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, err := request.GetUUIDParam(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	cancelled, err := h.service.Cancel(r.Context(), orderID, caller(r))
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, cancelled)
}

// ListAll handles GET /api/v1/orders/admin/all
// @Summary List all orders
// @Tags Orders
// @Produce json
// @Param X-User-ID header string true "Admin user ID"
// @Param X-User-Role header string true "admin"
// @Param status query string false "Filter by status"
// @Param limit query int false "Number of items per page (max 100)" default(20)
// @Param offset query int false "Number of items to skip" default(0)
// @Success 200 {object} map[string]interface{} "Paginated list of orders"
// @Failure 403 {object} map[string]string "Admin access required"
// @Router /orders/admin/all [get]
func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	limit, offset := request.GetPaginationParams(r)
	filter := domain.OrderFilter{
		Status: domain.OrderStatus(r.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	}

	orders, total, err := h.service.ListAll(r.Context(), filter)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Paginated(w, orders, total, limit, offset)
}

// UpdateStatus handles PUT /api/v1/orders/admin/{orderId}
// @Summary Move an order to a new status
// @Description Follows pending → processing → shipped → delivered; cancelling restores stock.
// @Tags Orders
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Admin user ID"
// @Param X-User-Role header string true "admin"
// @Param orderId path string true "Order ID (UUID)"
// @Param status body UpdateOrderStatusRequest true "Target status"
// @Success 200 {object} map[string]interface{} "Updated order"
// @Failure 400 {object} map[string]string "Illegal transition"
// @Failure 404 {object} map[string]string "Order not found"
// @Failure 409 {object} map[string]string "Concurrent status change"
// @Router /orders/admin/{orderId} [put]
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := request.GetUUIDParam(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req UpdateOrderStatusRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), orderID, domain.OrderStatus(req.Status))
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, updated)
}

// Delete handles DELETE /api/v1/orders/admin/{orderId}
// @Summary Delete an order record
// @Description Stock is not restored
// @Tags Orders
// @Param X-User-ID header string true "Admin user ID"
// @Param X-User-Role header string true "admin"
// @Param orderId path string true "Order ID (UUID)"
// @Success 204 "Order deleted"
// @Failure 404 {object} map[string]string "Order not found"
// @Router /orders/admin/{orderId} [delete]
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orderID, err := request.GetUUIDParam(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	if err := h.service.Delete(r.Context(), orderID); err != nil {
		h.handleError(w, err)
		return
	}

	response.NoContent(w)
}

func (h *OrderHandler) handleError(w http.ResponseWriter, err error) {
	writeError(w, h.logger, err, "Order or product not found")
}
