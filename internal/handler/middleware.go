package handler

import (
	"context"
	"net/http"

	"github.com/haatos/shipci/internal"
	"github.com/haatos/shipci/internal/store"
	"github.com/labstack/echo/v4"
)

type APIKeyReader interface {
	GetAPIKeyByValue(ctx context.Context, value string) (*store.APIKey, error)
}

// APIKeyMiddleware guards webhook and admin endpoints with the shared
// key header. Unknown and missing keys both read as unauthorized.
func APIKeyMiddleware(apiKeys APIKeyReader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			value := c.Request().Header.Get(internal.WebhookTriggerKeyHeader)
			if value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing api key")
			}
			if _, err := apiKeys.GetAPIKeyByValue(c.Request().Context(), value); err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid api key")
			}
			return next(c)
		}
	}
}
