package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Pesokrava/storefront/internal/delivery/http/request"
	"github.com/Pesokrava/storefront/internal/delivery/http/response"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
	"github.com/Pesokrava/storefront/internal/usecase/wishlist"
)

// WishlistHandler handles HTTP requests for the caller's wishlist
type WishlistHandler struct {
	service *wishlist.Service
	logger  *logger.Logger
}

// NewWishlistHandler creates a new wishlist handler
func NewWishlistHandler(service *wishlist.Service, log *logger.Logger) *WishlistHandler {
	return &WishlistHandler{
		service: service,
		logger:  log,
	}
}

// AddWishlistRequest represents the request body for saving a product
type AddWishlistRequest struct {
	ProductID string `json:"product_id"`
}

// Get handles GET /api/v1/wishlist
// @Summary Get the caller's wishlist
// @Tags Wishlist
// @Produce json
// @Param X-User-ID header string true "Caller user ID"
// @Success 200 {object} map[string]interface{} "Saved products"
// @Router /wishlist [get]
func (h *WishlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context(), caller(r).UserID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, products)
}

// Add handles POST /api/v1/wishlist
// @Summary Save a product to the wishlist
// @Tags Wishlist
// @Accept json
// @Param X-User-ID header string true "Caller user ID"
// @Param item body AddWishlistRequest true "Product to save"
// @Success 204 "Product saved"
// @Failure 400 {object} map[string]string "Invalid product ID"
// @Failure 404 {object} map[string]string "Product not found"
// @Router /wishlist [post]
func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddWishlistRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := h.service.Add(r.Context(), caller(r).UserID, productID); err != nil {
		h.handleError(w, err)
		return
	}

	response.NoContent(w)
}

// Remove handles DELETE /api/v1/wishlist/{productId}
// @Summary Remove a product from the wishlist
// @Tags Wishlist
// @Param X-User-ID header string true "Caller user ID"
// @Param productId path string true "Product ID (UUID)"
// @Success 204 "Product removed"
// @Failure 404 {object} map[string]string "Product not in wishlist"
// @Router /wishlist/{productId} [delete]
func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	productID, err := request.GetUUIDParam(r, "productId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := h.service.Remove(r.Context(), caller(r).UserID, productID); err != nil {
		h.handleError(w, err)
		return
	}

	response.NoContent(w)
}

func (h *WishlistHandler) handleError(w http.ResponseWriter, err error) {
	writeError(w, h.logger, err, "Product not found")
}
