package handler

import (
	"net/http"

	"github.com/Pesokrava/storefront/internal/delivery/http/request"
	"github.com/Pesokrava/storefront/internal/delivery/http/response"
	"github.com/Pesokrava/storefront/internal/domain"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
	"github.com/Pesokrava/storefront/internal/usecase/user"
)

// UserHandler handles HTTP requests for user profiles and lead events
type UserHandler struct {
	service *user.Service
	logger  *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(service *user.Service, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  log,
	}
}

// RegisterUserRequest represents the profile stored on first sign-in
type RegisterUserRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Source string `json:"source,omitempty"`
}

// RecordEventRequest names a client-observed lead event
type RecordEventRequest struct {
	EventType string `json:"event_type"`
}

// Register handles POST /api/v1/users
// @Summary Register the caller's profile
// @Description The user ID is taken from the authenticated identity. Registration is scored by acquisition source.
// @Tags Users
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Caller user ID"
// @Param user body RegisterUserRequest true "Profile"
// @Success 201 {object} map[string]interface{} "User registered"
// @Failure 400 {object} map[string]string "Invalid input or duplicate email"
// @Router /users [post]
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u := &domain.User{
		ID:     caller(r).UserID,
		Name:   req.Name,
		Email:  req.Email,
		Source: domain.Source(req.Source),
	}

	if err := h.service.Register(r.Context(), u); err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, u)
}

// Me handles GET /api/v1/users/me
// @Summary Get the caller's profile and lead score
// @Tags Users
// @Produce json
// @Param X-User-ID header string true "Caller user ID"
// @Success 200 {object} map[string]interface{} "User profile"
// @Failure 404 {object} map[string]string "User not registered"
// @Router /users/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.Get(r.Context(), caller(r).UserID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, u)
}

// RecordEvent handles POST /api/v1/users/me/events
// @Summary Report a client-observed lead event
// @Description Accepts login, abandoned_cart and no_purchase_after_views. Scoring is asynchronous.
// @Tags Users
// @Accept json
// @Param X-User-ID header string true "Caller user ID"
// @Param event body RecordEventRequest true "Event"
// @Success 202 {object} map[string]interface{} "Event accepted"
// @Failure 400 {object} map[string]string "Unsupported event type"
// @Failure 404 {object} map[string]string "User not registered"
// @Router /users/me/events [post]
func (h *UserHandler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var req RecordEventRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.RecordEvent(r.Context(), caller(r).UserID, domain.LeadEventType(req.EventType)); err != nil {
		h.handleError(w, err)
		return
	}

	response.Accepted(w, map[string]string{"event_type": req.EventType})
}

func (h *UserHandler) handleError(w http.ResponseWriter, err error) {
	writeError(w, h.logger, err, "User not found")
}
