package handler

import (
	"net/http"

	"github.com/Pesokrava/storefront/internal/delivery/http/request"
	"github.com/Pesokrava/storefront/internal/delivery/http/response"
	"github.com/Pesokrava/storefront/internal/domain"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
	"github.com/Pesokrava/storefront/internal/usecase/review"
)

// ReviewHandler handles HTTP requests for reviews
type ReviewHandler struct {
	service *review.Service
	logger  *logger.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service *review.Service, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  log,
	}
}

// ReviewRequest represents the request body for creating or editing a review
type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Title   string `json:"title,omitempty"`
	Comment string `json:"comment"`
}

// ModerateReviewRequest represents the admin moderation decision
type ModerateReviewRequest struct {
	Status       string  `json:"status"`
	AdminComment *string `json:"admin_comment,omitempty"`
}

// Create handles POST /api/v1/products/{id}/reviews
// @Summary Review a product
// @Description One review per user and product. Recomputes the product's average rating and publishes an event.
// @Tags Reviews
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Caller user ID"
// @Param id path string true "Product ID (UUID)"
// @Param review body ReviewRequest true "Review details"
// @Success 201 {object} map[string]interface{} "Review created successfully"
// @Failure 400 {object} map[string]string "Invalid request body or duplicate review"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{id}/reviews [post]
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	productID, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req ReviewRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rv := &domain.Review{
		ProductID: productID,
		UserID:    caller(r).UserID,
		Rating:    req.Rating,
		Title:     req.Title,
		Comment:   req.Comment,
	}

	if err := h.service.Create(r.Context(), rv); err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, rv)
}

// GetByProductID handles GET /api/v1/products/{id}/reviews
// @Summary Get reviews for a product
// @Description Get a paginated list of visible reviews for a product (cached)
// @Tags Reviews
// @Produce json
// @Param id path string true "Product ID (UUID)"
// @Param limit query int false "Number of items per page (max 100)" default(20)
// @Param offset query int false "Number of items to skip" default(0)
// @Success 200 {object} map[string]interface{} "Paginated list of reviews"
// @Failure 400 {object} map[string]string "Invalid product ID"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{id}/reviews [get]
func (h *ReviewHandler) GetByProductID(w http.ResponseWriter, r *http.Request) {
	productID, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	limit, offset := request.GetPaginationParams(r)

	reviews, total, err := h.service.GetByProductID(r.Context(), productID, limit, offset)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Paginated(w, reviews, total, limit, offset)
}

// Update handles PUT /api/v1/reviews/{reviewId}
// @Summary Edit a review
// @Description Author only. Edited reviews return to moderation when moderation is enabled.
// @Tags Reviews
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Caller user ID"
// @Param reviewId path string true "Review ID (UUID)"
// @Param review body ReviewRequest true "Updated review"
// @Success 200 {object} map[string]interface{} "Review updated successfully"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 403 {object} map[string]string "Not the author"
// @Failure 404 {object} map[string]string "Review not found"
// @Router /reviews/{reviewId} [put]
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "reviewId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	var req ReviewRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rv, err := h.service.Update(r.Context(), id, caller(r), review.UpdateInput{
		Rating:  req.Rating,
		Title:   req.Title,
		Comment: req.Comment,
	})
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, rv)
}

// Delete handles DELETE /api/v1/reviews/{reviewId}
// @Summary Delete a review
// @Description Author or admin. Recomputes the product's average rating.
// @Tags Reviews
// @Param X-User-ID header string true "Caller user ID"
// @Param reviewId path string true "Review ID (UUID)"
// @Success 204 "Review deleted successfully"
// @Failure 403 {object} map[string]string "Not the author"
// @Failure 404 {object} map[string]string "Review not found"
// @Router /reviews/{reviewId} [delete]
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "reviewId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	if err := h.service.Delete(r.Context(), id, caller(r)); err != nil {
		h.handleError(w, err)
		return
	}

	response.NoContent(w)
}

// List handles GET /api/v1/reviews
// @Summary List reviews for moderation
// @Tags Reviews
// @Produce json
// @Param X-User-ID header string true "Admin user ID"
// @Param X-User-Role header string true "admin"
// @Param status query string false "pending, approved or rejected"
// @Param product_id query string false "Product ID (UUID)"
// @Param limit query int false "Number of items per page (max 100)" default(20)
// @Param offset query int false "Number of items to skip" default(0)
// @Success 200 {object} map[string]interface{} "Paginated list of reviews"
// @Failure 400 {object} map[string]string "Invalid filter"
// @Router /reviews [get]
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	productID, err := request.GetOptionalUUIDQuery(r, "product_id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	limit, offset := request.GetPaginationParams(r)

	reviews, total, err := h.service.List(r.Context(), domain.ReviewFilter{
		ProductID: productID,
		Status:    domain.ReviewStatus(r.URL.Query().Get("status")),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Paginated(w, reviews, total, limit, offset)
}

// Moderate handles PUT /api/v1/reviews/{reviewId}/moderate
// @Summary Approve or reject a review
// @Tags Reviews
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Admin user ID"
// @Param X-User-Role header string true "admin"
// @Param reviewId path string true "Review ID (UUID)"
// @Param decision body ModerateReviewRequest true "Moderation decision"
// @Success 200 {object} map[string]interface{} "Moderated review"
// @Failure 400 {object} map[string]string "Invalid status"
// @Failure 404 {object} map[string]string "Review not found"
// @Router /reviews/{reviewId}/moderate [put]
func (h *ReviewHandler) Moderate(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "reviewId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	var req ModerateReviewRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rv, err := h.service.Moderate(r.Context(), id, caller(r), domain.ReviewStatus(req.Status), req.AdminComment)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, rv)
}

func (h *ReviewHandler) handleError(w http.ResponseWriter, err error) {
	writeError(w, h.logger, err, "Review or product not found")
}
