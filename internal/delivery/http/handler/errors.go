package handler

import (
	"errors"
	"net/http"

	"github.com/Pesokrava/storefront/internal/delivery/http/middleware"
	"github.com/Pesokrava/storefront/internal/delivery/http/response"
	"github.com/Pesokrava/storefront/internal/domain"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
)

// writeError maps service layer errors to HTTP responses.
// notFound is the message used for domain.ErrNotFound.
func writeError(w http.ResponseWriter, log *logger.Logger, err error, notFound string) {
	var stockErr *domain.InsufficientStockError
	var validationErr *domain.ValidationError

	switch {
	case errors.As(err, &stockErr):
		response.ErrorWithDetails(w, http.StatusBadRequest, stockErr.Error(), map[string]interface{}{
			"product_id":   stockErr.ProductID,
			"product_name": stockErr.ProductName,
			"requested":    stockErr.Requested,
			"available":    stockErr.Available,
		})
	case errors.As(err, &validationErr):
		response.Error(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, notFound)
	case errors.Is(err, domain.ErrForbidden):
		response.Error(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, domain.ErrInvalidState):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, domain.ErrAlreadyExists):
		response.Error(w, http.StatusBadRequest, "Resource already exists")
	case errors.Is(err, domain.ErrConflict):
		response.Error(w, http.StatusConflict, "Resource was modified concurrently, retry the request")
	default:
		log.Error("Internal error in handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

// caller returns the identity attached by middleware.Identity; routes that need one
// are guarded by middleware.RequireUser
func caller(r *http.Request) domain.Identity {
	id, _ := middleware.IdentityFrom(r.Context())
	return id
}
