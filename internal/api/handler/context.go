package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/propertyhub/rental-api/internal/api/middleware"
	"github.com/propertyhub/rental-api/internal/core/domain"
)

// currentIdentity returns the caller injected by the Auth middleware. A
// missing identity means the route was mounted without Auth.
func currentIdentity(c echo.Context) (*domain.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}

// normalizer is implemented by requests that tidy their input before the
// validator sees it.
type normalizer interface {
	normalize()
}

// bindAndValidate decodes the body into req and runs the struct validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if n, ok := req.(normalizer); ok {
		n.normalize()
	}
	return c.Validate(req)
}
