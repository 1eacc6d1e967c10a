package logger

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestIDHeader is the HTTP header carrying the request ID.
const RequestIDHeader = "X-Request-ID"

// Middleware assigns every request an ID (reusing X-Request-ID when the
// client sent one), stores a request logger in the request context and
// logs the completed request.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(RequestIDHeader, id)

			ctx := WithRequestID(req.Context(), id)
			c.SetRequest(req.WithContext(ctx))

			start := time.Now()
			err := next(c)
			if err != nil {
				// let echo's error handler write the response before the
				// status is read
				c.Error(err)
			}

			status := c.Response().Status
			ev := FromContext(ctx).Info()
			if status >= 500 {
				ev = FromContext(ctx).Error()
			}
			ev.Str("method", req.Method).
				Str("path", c.Path()).
				Str("ip", c.RealIP()).
				Int("status", status).
				Dur("duration", time.Since(start)).
				Msg("request completed")
			return nil
		}
	}
}
