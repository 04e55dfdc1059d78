package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/propertyhub/rental-api/internal/core/domain"
)

func newAuthFixture() (*stubVerifier, *stubSessions, AuthConfig) {
	verifier := &stubVerifier{
		tokens: map[string]*domain.Identity{
			"good":     {ID: "u1", Kind: domain.KindLandlord},
			"fresh":    {ID: "u1", Kind: domain.KindLandlord},
			"tenant":   {ID: "t1", Kind: domain.KindTenant},
			"stranger": {ID: "u2", Kind: domain.KindLandlord},
		},
		expired: map[string]*domain.Identity{
			"stale": {ID: "u1", Kind: domain.KindLandlord},
		},
	}
	sessions := &stubSessions{
		refreshFn: func(_ context.Context, token string) (string, error) {
			if token == "valid-refresh" {
				return "fresh", nil
			}
			return "", domain.ErrInvalidRefreshToken
		},
	}
	cfg := AuthConfig{
		Verifier: verifier,
		Sessions: stubDirectory{domain.KindLandlord: sessions},
		Kinds:    []domain.ActorKind{domain.KindLandlord},
		Logger:   zerolog.Nop(),
	}
	return verifier, sessions, cfg
}

func runAuth(t *testing.T, cfg AuthConfig, req *http.Request) (*httptest.ResponseRecorder, *domain.Identity, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *domain.Identity
	err := Auth(cfg)(func(c echo.Context) error {
		seen, _ = IdentityFrom(c)
		return c.NoContent(http.StatusOK)
	})(c)
	return rec, seen, err
}

func expectStatus(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != code {
		t.Fatalf("expected HTTP %d, got %v", code, err)
	}
}

func TestAuth_ValidToken(t *testing.T) {
	_, _, cfg := newAuthFixture()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")

	rec, id, err := runAuth(t, cfg, req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || id == nil || id.ID != "u1" {
		t.Fatalf("unexpected result: code=%d id=%+v", rec.Code, id)
	}
}

func TestAuth_MissingOrMalformedHeader(t *testing.T) {
	_, _, cfg := newAuthFixture()
	for _, h := range []string{"", "good", "Basic good", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if h != "" {
			req.Header.Set(echo.HeaderAuthorization, h)
		}
		_, _, err := runAuth(t, cfg, req)
		expectStatus(t, err, http.StatusUnauthorized)
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	_, _, cfg := newAuthFixture()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer forged")

	_, _, err := runAuth(t, cfg, req)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestAuth_WrongKind(t *testing.T) {
	_, _, cfg := newAuthFixture()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer tenant")

	_, _, err := runAuth(t, cfg, req)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestAuth_ExpiredTokenRefreshesOnce(t *testing.T) {
	_, sessions, cfg := newAuthFixture()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer stale")
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "valid-refresh"})

	rec, id, err := runAuth(t, cfg, req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if id == nil || id.ID != "u1" {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if got := rec.Header().Get(HeaderAccessToken); got != "fresh" {
		t.Fatalf("expected new token in %s, got %q", HeaderAccessToken, got)
	}
	if got := req.Header.Get(echo.HeaderAuthorization); got != "Bearer fresh" {
		t.Fatalf("expected request header to be replaced, got %q", got)
	}
	if sessions.refreshes != 1 {
		t.Fatalf("expected exactly one refresh, got %d", sessions.refreshes)
	}
}

func TestAuth_ExpiredTokenWithoutCookie(t *testing.T) {
	_, sessions, cfg := newAuthFixture()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer stale")

	_, _, err := runAuth(t, cfg, req)
	expectStatus(t, err, http.StatusUnauthorized)
	if sessions.refreshes != 0 {
		t.Fatalf("no refresh expected without cookie, got %d", sessions.refreshes)
	}
}

func TestAuth_ExpiredTokenRefreshRejected(t *testing.T) {
	_, _, cfg := newAuthFixture()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer stale")
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "revoked"})

	rec, _, err := runAuth(t, cfg, req)
	expectStatus(t, err, http.StatusUnauthorized)
	if rec.Header().Get(HeaderAccessToken) != "" {
		t.Fatal("no token must be exposed when refresh fails")
	}
}

func TestAuth_RefreshForAnotherActorRejected(t *testing.T) {
	_, sessions, cfg := newAuthFixture()
	sessions.refreshFn = func(context.Context, string) (string, error) { return "stranger", nil }
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer stale")
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "valid-refresh"})

	_, _, err := runAuth(t, cfg, req)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestAuth_AnyKind(t *testing.T) {
	_, _, cfg := newAuthFixture()
	cfg.Kinds = nil
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer tenant")

	_, id, err := runAuth(t, cfg, req)
	if err != nil || id == nil || id.Kind != domain.KindTenant {
		t.Fatalf("expected tenant identity, got %+v %v", id, err)
	}
}
