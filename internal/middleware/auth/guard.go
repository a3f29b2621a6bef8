package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/product_catalog/internal/logging"
	"github.com/Skotchmaster/product_catalog/internal/models"
	"github.com/Skotchmaster/product_catalog/internal/tokens"
)

const (
	MsgNoToken      = "No token, authorization denied"
	MsgInvalidToken = "Invalid token"
	MsgForbidden    = "Access denied. Admin privileges required"

	ctxUserID   = "user_id"
	ctxUserType = "user_type"
	ctxClaims   = "claims"
)

// Guard verifies the access token carried in the Authorization header.
// By default any non-empty userType claim passes; StrictAdmin requires
// userType to be "admin".
type Guard struct {
	JWTSecret   []byte
	StrictAdmin bool
}

func NewGuard(secret []byte, strictAdmin bool) *Guard {
	return &Guard{JWTSecret: secret, StrictAdmin: strictAdmin}
}

type validatorFunc func(claims *tokens.AccessClaims) error

func (g *Guard) RequireRole(next echo.HandlerFunc) echo.HandlerFunc {
	return g.requireWithValidator(next, func(claims *tokens.AccessClaims) error {
		if claims.UserType == "" {
			return echo.NewHTTPError(http.StatusForbidden, MsgForbidden)
		}
		if g.StrictAdmin && claims.UserType != models.UserTypeAdmin {
			return echo.NewHTTPError(http.StatusForbidden, MsgForbidden)
		}
		return nil
	})
}

func (g *Guard) requireWithValidator(next echo.HandlerFunc, validator validatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("mw", "auth.guard")

		raw := tokenFromHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if raw == "" {
			l.Warn("auth_failed", "status", http.StatusUnauthorized, "reason", "missing token")
			return echo.NewHTTPError(http.StatusUnauthorized, MsgNoToken)
		}

		claims, err := tokens.AccessClaimsFromToken(raw, g.JWTSecret)
		if err != nil {
			l.Warn("auth_failed", "status", http.StatusUnauthorized, "reason", "invalid token", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, MsgInvalidToken)
		}

		if validator != nil {
			if err := validator(claims); err != nil {
				l.Warn("auth_failed", "status", http.StatusForbidden, "reason", "role claim rejected", "user_id", claims.UserID)
				return err
			}
		}

		setUserContext(c, claims)
		l = logging.FromContext(ctx).With("user_id", claims.UserID)
		c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l)))
		return next(c)
	}
}

// tokenFromHeader accepts both "Bearer <token>" and a bare token.
func tokenFromHeader(h string) string {
	h = strings.TrimSpace(h)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if strings.EqualFold(h, "bearer") {
		return ""
	}
	return h
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxUserType, claims.UserType)
	c.Set(ctxClaims, claims)
}

func UserType(c echo.Context) string {
	t, _ := c.Get(ctxUserType).(string)
	return t
}

func Claims(c echo.Context) *tokens.AccessClaims {
	claims, _ := c.Get(ctxClaims).(*tokens.AccessClaims)
	return claims
}
