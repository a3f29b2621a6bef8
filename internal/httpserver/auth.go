package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/product_catalog/internal/logging"
	"github.com/Skotchmaster/product_catalog/internal/service"
	"github.com/Skotchmaster/product_catalog/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.signup")

	var req transport.SignupRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("signup_error", "status", http.StatusBadRequest, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidBody)
	}

	res, err := h.Svc.Signup(ctx, req)
	if err != nil {
		return respondError(c, l, "signup_error", err)
	}

	return c.JSON(http.StatusCreated, authResponse(res))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", http.StatusBadRequest, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidBody)
	}

	res, err := h.Svc.Login(ctx, req)
	if err != nil {
		return respondError(c, l, "login_error", err)
	}

	return c.JSON(http.StatusOK, authResponse(res))
}

func authResponse(res *service.AuthResult) transport.AuthResponse {
	return transport.AuthResponse{
		Token:     res.Token,
		UserID:    res.UserID,
		Email:     res.Email,
		ExpiresAt: res.ExpiresAt,
	}
}
