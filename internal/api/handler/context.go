package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/mediahub/account-service/internal/api/middleware"
	"github.com/mediahub/account-service/internal/core/domain"
)

// ctxClaims extracts the claims injected by the Auth middleware. A missing or
// empty subject means the route was mounted without the middleware.
func ctxClaims(c echo.Context) (domain.AccessClaims, error) {
	claims, ok := c.Get(middleware.ClaimsKey).(domain.AccessClaims)
	if !ok || claims.UserID == "" {
		return domain.AccessClaims{}, domain.Errorf(domain.ErrAuthRequired, "unauthorized request")
	}
	return claims, nil
}
