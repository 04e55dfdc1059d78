package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/propertyhub/rental-api/internal/api/middleware"
	"github.com/propertyhub/rental-api/internal/core/domain"
	"github.com/propertyhub/rental-api/internal/core/ports"
)

// stubSessionService overrides the methods a test sets; the rest panic
// through the nil embedded interface.
type stubSessionService struct {
	ports.SessionService

	registerFn  func(ctx context.Context, in ports.RegisterInput) (string, string, error)
	activateFn  func(ctx context.Context, ticket, code, role string) (*domain.Actor, error)
	signInFn    func(ctx context.Context, email, password, role string) (*ports.Session, error)
	refreshFn   func(ctx context.Context, token string) (string, error)
	logoutFn    func(ctx context.Context, token string) error
	updatePwFn  func(ctx context.Context, actorID string, in ports.PasswordChange) error
	resetReqFn  func(ctx context.Context, email, base string) error
	federatedFn func(ctx context.Context, provider, credential string) (*ports.Session, error)
	authURLFn   func(provider, state string) (string, error)
	profileFn   func(ctx context.Context, actorID string) (*domain.Actor, error)
	disabledFn  func(ctx context.Context, actorID string, disabled bool) error
}

func (s *stubSessionService) Register(ctx context.Context, in ports.RegisterInput) (string, string, error) {
	return s.registerFn(ctx, in)
}

func (s *stubSessionService) Activate(ctx context.Context, ticket, code, role string) (*domain.Actor, error) {
	return s.activateFn(ctx, ticket, code, role)
}

func (s *stubSessionService) SignIn(ctx context.Context, email, password, role string) (*ports.Session, error) {
	return s.signInFn(ctx, email, password, role)
}

func (s *stubSessionService) Refresh(ctx context.Context, token string) (string, error) {
	return s.refreshFn(ctx, token)
}

func (s *stubSessionService) Logout(ctx context.Context, token string) error {
	return s.logoutFn(ctx, token)
}

func (s *stubSessionService) UpdatePassword(ctx context.Context, actorID string, in ports.PasswordChange) error {
	return s.updatePwFn(ctx, actorID, in)
}

func (s *stubSessionService) RequestPasswordReset(ctx context.Context, email, base string) error {
	return s.resetReqFn(ctx, email, base)
}

func (s *stubSessionService) FederatedSignIn(ctx context.Context, provider, credential string) (*ports.Session, error) {
	return s.federatedFn(ctx, provider, credential)
}

func (s *stubSessionService) AuthCodeURL(provider, state string) (string, error) {
	return s.authURLFn(provider, state)
}

func (s *stubSessionService) Profile(ctx context.Context, actorID string) (*domain.Actor, error) {
	return s.profileFn(ctx, actorID)
}

func (s *stubSessionService) SetDisabled(ctx context.Context, actorID string, disabled bool) error {
	return s.disabledFn(ctx, actorID, disabled)
}

type stubDirectory map[domain.ActorKind]ports.SessionService

func (d stubDirectory) For(kind domain.ActorKind) (ports.SessionService, bool) {
	s, ok := d[kind]
	return s, ok
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withIdentity(c echo.Context, id string) {
	c.Set(middleware.IdentityKey, &domain.Identity{ID: id, Kind: domain.KindUser})
}
