package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Pesokrava/storefront/internal/delivery/http/request"
	"github.com/Pesokrava/storefront/internal/delivery/http/response"
	"github.com/Pesokrava/storefront/internal/domain"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
	"github.com/Pesokrava/storefront/internal/usecase/cart"
)

// CartHandler handles HTTP requests for the caller's cart
type CartHandler struct {
	service *cart.Service
	logger  *logger.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(service *cart.Service, log *logger.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  log,
	}
}

// AddCartItemRequest represents the request body for adding a cart line
type AddCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      *int   `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

// UpdateCartItemRequest represents the request body for changing a line quantity
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// Get handles GET /api/v1/cart
// @Summary Get the caller's cart
// @Tags Cart
// @Produce json
// @Param X-User-ID header string true "Caller user ID"
// @Success 200 {object} map[string]interface{} "Cart with derived total"
// @Failure 401 {object} map[string]string "Authentication required"
// @Router /cart [get]
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), caller(r).UserID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, c)
}

// AddItem handles POST /api/v1/cart
// @Summary Add a product to the cart
// @Description Merges into an existing line with the same product and variant. Stock is checked, not reserved.
// @Tags Cart
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Caller user ID"
// @Param item body AddCartItemRequest true "Line to add"
// @Success 200 {object} map[string]interface{} "Updated cart"
// @Failure 400 {object} map[string]string "Invalid input or insufficient stock"
// @Failure 404 {object} map[string]string "Product not found"
// @Router /cart [post]
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddCartItemRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	c, err := h.service.AddLine(r.Context(), caller(r).UserID, productID, req.Quantity, domain.Variant{Size: req.Size, Color: req.Color})
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, c)
}

// UpdateItem handles PUT /api/v1/cart/{itemId}
// @Summary Change the quantity of a cart line
// @Tags Cart
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Caller user ID"
// @Param itemId path string true "Cart line ID (UUID)"
// @Param item body UpdateCartItemRequest true "New quantity"
// @Success 200 {object} map[string]interface{} "Updated cart"
// @Failure 400 {object} map[string]string "Invalid input or insufficient stock"
// @Failure 404 {object} map[string]string "Cart line not found"
// @Router /cart/{itemId} [put]
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	lineID, err := request.GetUUIDParam(r, "itemId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid cart item ID")
		return
	}

	var req UpdateCartItemRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.service.SetQuantity(r.Context(), caller(r).UserID, lineID, req.Quantity)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, c)
}

// RemoveItem handles DELETE /api/v1/cart/{itemId}
// @Summary Remove a cart line
// @Tags Cart
// @Produce json
// @Param X-User-ID header string true "Caller user ID"
// @Param itemId path string true "Cart line ID (UUID)"
// @Success 200 {object} map[string]interface{} "Updated cart"
// @Failure 404 {object} map[string]string "Cart line not found"
// @Router /cart/{itemId} [delete]
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	lineID, err := request.GetUUIDParam(r, "itemId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid cart item ID")
		return
	}

	c, err := h.service.RemoveLine(r.Context(), caller(r).UserID, lineID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, c)
}

// Clear handles DELETE /api/v1/cart
// @Summary Empty the cart
// @Tags Cart
// @Param X-User-ID header string true "Caller user ID"
// @Success 204 "Cart cleared"
// @Router /cart [delete]
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), caller(r).UserID); err != nil {
		h.handleError(w, err)
		return
	}

	response.NoContent(w)
}

func (h *CartHandler) handleError(w http.ResponseWriter, err error) {
	writeError(w, h.logger, err, "Cart item or product not found")
}
