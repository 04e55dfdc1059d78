package api

import (
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/propertyhub/rental-api/internal/api/handler"
	"github.com/propertyhub/rental-api/internal/api/middleware"
	"github.com/propertyhub/rental-api/internal/core/domain"
	"github.com/propertyhub/rental-api/internal/core/ports"
	"github.com/propertyhub/rental-api/internal/core/service"
)

// Deps are the collaborators the HTTP surface is built from. Limiter and
// Checks are optional.
type Deps struct {
	Logger    zerolog.Logger
	Env       string
	ClientURL string
	Cookies   handler.CookieConfig

	// TrustProxy reads the client IP from X-Forwarded-For hops added by
	// private-network proxies. When false only the peer address counts.
	TrustProxy bool

	Verifier ports.AccessVerifier
	Sessions service.Directory
	Roles    ports.RoleService
	Limiter  ports.RateLimiter
	Checks   map[string]handler.Check
}

// roleSuffixes are the per-role activate and sign-in routes of the user kind.
var roleSuffixes = []string{domain.RoleAdmin, domain.RoleLandlord, domain.RoleTenant}

// ipExtractor decides what c.RealIP returns. Client supplied forwarding
// headers are ignored unless a trusted proxy sits in front.
func ipExtractor(trustProxy bool) echo.IPExtractor {
	if trustProxy {
		return echo.ExtractIPFromXFFHeader()
	}
	return echo.ExtractIPDirect()
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger, deps.Env)
	e.IPExtractor = ipExtractor(deps.TrustProxy)

	// --- Global middleware ---
	reg := prometheus.NewRegistry()
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "rental",
		Subsystem:  "http",
		Registerer: reg,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/health")
		},
	}))

	sessions := deps.Sessions

	// --- Per-kind auth routes ---
	for kind, svc := range deps.Sessions {
		mountSessionRoutes(e, deps, sessions, kind, svc)
	}

	// --- Administration ---
	anyActor := middleware.Auth(middleware.AuthConfig{
		Verifier: deps.Verifier,
		Sessions: sessions,
		Logger:   deps.Logger,
	})
	if deps.Roles != nil {
		roleHandler := handler.NewRoleHandler(deps.Roles)
		roles := e.Group("/roles", anyActor, middleware.RequireRole(sessions, domain.RoleAdmin))
		roles.GET("", roleHandler.List)
		roles.POST("", roleHandler.Create, middleware.RequirePermission(sessions, domain.PermissionRolesWrite))
	}
	adminHandler := handler.NewAdminHandler(sessions)
	admin := e.Group("/admin", anyActor, middleware.RequirePermission(sessions, domain.PermissionActorsWrite))
	admin.PUT("/actors/:kind/:id/disabled", adminHandler.SetDisabled)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Checks)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	// --- Observability and docs ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{reg, prometheus.DefaultGatherer},
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// mountSessionRoutes registers the account routes of one actor kind. The
// user kind lives under /auth with role-suffixed activate and sign-in
// routes; the other kinds get /<kind>s/auth with plain ones.
func mountSessionRoutes(e *echo.Echo, deps Deps, sessions ports.SessionDirectory, kind domain.ActorKind, svc ports.SessionService) {
	prefix := "/auth"
	resetBase := strings.TrimRight(deps.ClientURL, "/")
	if kind != domain.KindUser {
		prefix = "/" + string(kind) + "s/auth"
		resetBase += "/" + string(kind) + "s"
	}

	h := handler.NewSessionHandler(svc, handler.SessionHandlerConfig{
		Cookies:      deps.Cookies,
		ResetURLBase: resetBase,
		ClientURL:    deps.ClientURL,
		Logger:       deps.Logger,
	})
	auth := middleware.Auth(middleware.AuthConfig{
		Verifier: deps.Verifier,
		Sessions: sessions,
		Kinds:    []domain.ActorKind{kind},
		Logger:   deps.Logger,
	})
	limited := rateLimit(deps)

	g := e.Group(prefix)
	g.POST("/register", h.Register, limited...)
	if kind == domain.KindUser {
		for _, role := range roleSuffixes {
			suffix := strings.ToLower(role)
			g.POST("/activate-"+suffix, h.Activate(role))
			g.POST("/sign-in-"+suffix, h.SignIn(role), limited...)
		}
	} else {
		g.POST("/activate", h.Activate(""))
		g.POST("/sign-in", h.SignIn(""), limited...)
	}
	g.POST("/refresh-access-token", h.RefreshAccessToken)
	g.PUT("/update-password", h.UpdatePassword, auth)
	g.POST("/password-reset-token", h.RequestPasswordReset, limited...)
	g.PUT("/reset-password/:token", h.ResetPassword, limited...)
	g.POST("/logout", h.Logout)

	g.GET("/me", h.Me, auth)
	g.DELETE("/me", h.DeleteMe, auth)
	g.POST("/me/avatar-upload-url", h.AvatarUploadURL, auth)
	g.PUT("/me/avatar", h.SetAvatar, auth)

	g.POST("/federated/:provider", h.FederatedSignIn, limited...)
	g.GET("/federated/:provider/redirect", h.FederatedRedirect)
	g.GET("/federated/:provider/callback", h.FederatedCallback)
}

func rateLimit(deps Deps) []echo.MiddlewareFunc {
	if deps.Limiter == nil {
		return nil
	}
	return []echo.MiddlewareFunc{middleware.RateLimit(deps.Limiter, deps.Logger)}
}

// requestLogger writes one zerolog event per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
