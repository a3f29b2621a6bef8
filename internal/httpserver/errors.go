package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/product_catalog/internal/service"
	"github.com/Skotchmaster/product_catalog/internal/validation"
)

const (
	msgServerError    = "Server error"
	msgInvalidBody    = "Invalid request body"
	msgInvalidID      = "Invalid product id"
	msgValidation     = "Validation failed"
	msgProductMissing = "Product not found"
)

type validationResponse struct {
	Message string                  `json:"message"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

// respondError maps a service error to its status and client message.
// Anything unexpected becomes a 500 without internal detail.
func respondError(c echo.Context, l *slog.Logger, event string, err error) error {
	var verr *validation.Error
	if errors.Is(err, service.ErrValidation) {
		l.Warn(event, "status", http.StatusBadRequest, "reason", "validation", "error", err)
		resp := validationResponse{Message: msgValidation}
		if errors.As(err, &verr) {
			resp.Errors = verr.Fields
		}
		return c.JSON(http.StatusBadRequest, resp)
	}

	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(status, msg)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrDuplicateUser):
		return http.StatusBadRequest, "User already exists"
	case errors.Is(err, service.ErrDuplicateCategory):
		return http.StatusBadRequest, "Category already exists"
	case errors.Is(err, service.ErrInvalidReference):
		return http.StatusBadRequest, "Invalid category ID"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, msgProductMissing
	default:
		return http.StatusInternalServerError, msgServerError
	}
}
