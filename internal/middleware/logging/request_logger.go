package loggingmw

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/product_catalog/internal/logging"
)

// userIDKey is the echo context key the auth guard stores the caller under.
const userIDKey = "user_id"

// RequestLogger puts a request-scoped logger into the request context and
// writes one http_request line when the request finishes. Errors are rendered
// here so the logged status is the one the client receives.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = req.Header.Get(echo.HeaderXRequestID)
			}

			l := base.With("route", c.Path())
			if rid != "" {
				l = l.With("request_id", rid)
			}
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Echo().HTTPErrorHandler(err, c)
			}

			status := c.Response().Status
			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("uri", req.URL.RequestURI()),
				slog.Int("status", status),
				slog.Duration("latency_ms", time.Since(start)),
				slog.Int64("bytes_in", req.ContentLength),
				slog.Int64("bytes_out", c.Response().Size),
				slog.String("remote_ip", c.RealIP()),
			}
			if uid, ok := c.Get(userIDKey).(uint); ok {
				attrs = append(attrs, slog.Uint64("user_id", uint64(uid)))
			}
			if status >= 500 && err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}

			l.LogAttrs(req.Context(), levelFor(status), "http_request", attrs...)
			return nil
		}
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
