package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/propertyhub/rental-api/internal/core/domain"
	"github.com/propertyhub/rental-api/internal/core/ports"
)

const (
	// IdentityKey is the echo context key holding the *domain.Identity of the caller.
	IdentityKey = "identity"
	// RoleKey holds the *domain.Role once RequireRole or RequirePermission ran.
	RoleKey = "role"

	// RefreshCookie carries the refresh token between browser and API.
	RefreshCookie = "refreshToken"
	// HeaderAccessToken exposes an access token minted by a silent refresh.
	HeaderAccessToken = "X-Access-Token"
)

type AuthConfig struct {
	Verifier ports.AccessVerifier
	Sessions ports.SessionDirectory
	// Kinds restricts the route to these actor kinds. Empty allows any kind.
	Kinds  []domain.ActorKind
	Logger zerolog.Logger
}

// Auth validates the bearer access token and injects the caller identity into
// the context. An expired but authentic token is refreshed once from the
// refresh cookie; the new token replaces the request's Authorization header
// and is returned in the X-Access-Token response header.
func Auth(cfg AuthConfig) echo.MiddlewareFunc {
	allowed := make(map[domain.ActorKind]struct{}, len(cfg.Kinds))
	for _, k := range cfg.Kinds {
		allowed[k] = struct{}{}
	}
	kindAllowed := func(k domain.ActorKind) bool {
		if len(allowed) == 0 {
			return true
		}
		_, ok := allowed[k]
		return ok
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			id, err := cfg.Verifier.VerifyAccess(strings.TrimSpace(parts[1]))
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrTokenExpired) && id != nil:
				if !kindAllowed(id.Kind) {
					return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
				}
				id, err = silentRefresh(c, cfg, id)
				if err != nil {
					cfg.Logger.Debug().Err(err).Str("path", c.Path()).Msg("silent refresh failed")
					return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
				}
			default:
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			if !kindAllowed(id.Kind) {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}

			c.Set(IdentityKey, id)
			return next(c)
		}
	}
}

func silentRefresh(c echo.Context, cfg AuthConfig, expired *domain.Identity) (*domain.Identity, error) {
	cookie, err := c.Cookie(RefreshCookie)
	if err != nil || cookie.Value == "" {
		return nil, domain.ErrSessionExpired
	}
	svc, ok := cfg.Sessions.For(expired.Kind)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	access, err := svc.Refresh(c.Request().Context(), cookie.Value)
	if err != nil {
		return nil, err
	}
	id, err := cfg.Verifier.VerifyAccess(access)
	if err != nil {
		return nil, err
	}
	if id.ID != expired.ID {
		return nil, domain.ErrUnauthorized
	}

	c.Request().Header.Set(echo.HeaderAuthorization, "Bearer "+access)
	c.Response().Header().Set(HeaderAccessToken, access)
	return id, nil
}

// IdentityFrom returns the identity stored by Auth.
func IdentityFrom(c echo.Context) (*domain.Identity, bool) {
	id, ok := c.Get(IdentityKey).(*domain.Identity)
	return id, ok && id != nil
}
