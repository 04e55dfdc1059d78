package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/propertyhub/rental-api/internal/core/domain"
	"github.com/propertyhub/rental-api/internal/core/ports"
)

// RequireRole lets the request through only if the caller's current role is
// one of allowedRoles. The role is re-read on every request so changes apply
// without waiting for the access token to expire. Must run after Auth.
func RequireRole(sessions ports.SessionDirectory, allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[domain.CanonicalRoleName(r)] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, err := currentRole(c, sessions)
			if err != nil {
				return err
			}
			if _, ok := allowed[role.Name]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

// RequirePermission lets the request through only if the caller's role grants
// permission. Must run after Auth.
func RequirePermission(sessions ports.SessionDirectory, permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, err := currentRole(c, sessions)
			if err != nil {
				return err
			}
			if !role.HasPermission(permission) {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

// currentRole resolves the caller's role once per request.
func currentRole(c echo.Context, sessions ports.SessionDirectory) (*domain.Role, error) {
	if role, ok := c.Get(RoleKey).(*domain.Role); ok && role != nil {
		return role, nil
	}
	id, ok := IdentityFrom(c)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	svc, ok := sessions.For(id.Kind)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	role, err := svc.RoleOf(c.Request().Context(), id.ID)
	if err != nil {
		return nil, err
	}
	c.Set(RoleKey, role)
	return role, nil
}
