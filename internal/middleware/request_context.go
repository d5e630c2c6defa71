package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/secondchances-backend/internal/reqctx"
)

// RequestContext copies the request id assigned by echo's RequestID
// middleware into the request context for service-level logs.
func RequestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		rid := c.Response().Header().Get(echo.HeaderXRequestID)
		if rid == "" {
			rid = c.Request().Header.Get(echo.HeaderXRequestID)
		}
		req := c.Request()
		c.SetRequest(req.WithContext(reqctx.WithRID(req.Context(), rid)))
		return next(c)
	}
}
