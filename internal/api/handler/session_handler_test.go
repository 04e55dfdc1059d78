package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/propertyhub/rental-api/internal/api/middleware"
	"github.com/propertyhub/rental-api/internal/core/domain"
	"github.com/propertyhub/rental-api/internal/core/ports"
)

func decodeEnvelope(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp
}

func findCookie(t *testing.T, rec interface{ Result() *http.Response }, name string) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestSessionHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (string, string, error) {
			if in.UserName != "alice" || in.Email != "a@b.com" || !in.TermsAccepted {
				t.Fatalf("unexpected input: %+v", in)
			}
			return "ticket-1", in.Email, nil
		},
	}
	h := NewSessionHandler(stub, SessionHandlerConfig{})

	c, rec := jsonContext(e, http.MethodPost, "/auth/register",
		`{"userName":"alice","email":"a@b.com","password":"Aa1!aaaa","termsAndConditionsAccepted":true}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	resp := decodeEnvelope(t, rec.Body.Bytes())
	data, ok := resp["data"].(map[string]any)
	if resp["status"] != StatusSuccess || !ok {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
	if data["activationToken"] != "ticket-1" || data["email"] != "a@b.com" {
		t.Fatalf("unexpected data: %+v", data)
	}
}

func TestSessionHandler_Register_Validation(t *testing.T) {
	e := newTestEcho()
	h := NewSessionHandler(&stubSessionService{}, SessionHandlerConfig{})

	cases := []struct {
		name string
		body string
		want error
	}{
		{"terms not accepted", `{"userName":"a","email":"a@b.com","password":"Aa1!aaaa","termsAndConditionsAccepted":false}`, domain.ErrValidation},
		{"bad email", `{"userName":"a","email":"nope","password":"Aa1!aaaa","termsAndConditionsAccepted":true}`, domain.ErrValidation},
		{"weak password", `{"userName":"a","email":"a@b.com","password":"aaaaaaaa","termsAndConditionsAccepted":true}`, domain.ErrWeakPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := jsonContext(e, http.MethodPost, "/auth/register", tc.body)
			if err := h.Register(c); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSessionHandler_EmailWhitespaceIsTrimmed(t *testing.T) {
	e := newTestEcho()
	var got []string
	stub := &stubSessionService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (string, string, error) {
			got = append(got, in.Email)
			return "ticket-1", in.Email, nil
		},
		signInFn: func(_ context.Context, email, _, _ string) (*ports.Session, error) {
			got = append(got, email)
			return &ports.Session{Actor: &domain.Actor{ID: "u1"}, AccessToken: "a", RefreshToken: "r"}, nil
		},
		resetReqFn: func(_ context.Context, email, _ string) error {
			got = append(got, email)
			return nil
		},
	}
	h := NewSessionHandler(stub, SessionHandlerConfig{})

	c, _ := jsonContext(e, http.MethodPost, "/auth/register",
		`{"userName":"a","email":"  a@b.com ","password":"Aa1!aaaa","termsAndConditionsAccepted":true}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}
	c, _ = jsonContext(e, http.MethodPost, "/auth/sign-in", `{"email":" a@b.com\t","password":"Aa1!aaaa"}`)
	if err := h.SignIn("")(c); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	c, _ = jsonContext(e, http.MethodPost, "/auth/password-reset-token", `{"email":"\na@b.com "}`)
	if err := h.RequestPasswordReset(c); err != nil {
		t.Fatalf("password reset token: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 service calls, got %v", got)
	}
	for _, email := range got {
		if email != "a@b.com" {
			t.Fatalf("expected trimmed email, got %q", email)
		}
	}
}

func TestSessionHandler_Activate_PassesRole(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		activateFn: func(_ context.Context, ticket, code, role string) (*domain.Actor, error) {
			if ticket != "t" || code != "123456" || role != domain.RoleTenant {
				t.Fatalf("unexpected args: %s %s %s", ticket, code, role)
			}
			return &domain.Actor{ID: "u1", Role: role}, nil
		},
	}
	h := NewSessionHandler(stub, SessionHandlerConfig{})

	c, rec := jsonContext(e, http.MethodPost, "/auth/activate-tenant", `{"activationToken":"t","activationCode":"123456"}`)
	if err := h.Activate(domain.RoleTenant)(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestSessionHandler_SignIn_SetsCookie(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		signInFn: func(_ context.Context, email, password, role string) (*ports.Session, error) {
			return &ports.Session{
				Actor:        &domain.Actor{ID: "u1", Email: email, Role: role, RefreshToken: "secret"},
				AccessToken:  "access-1",
				RefreshToken: "refresh-1",
			}, nil
		},
	}
	h := NewSessionHandler(stub, SessionHandlerConfig{Cookies: NewCookieConfig(true, false)})

	c, rec := jsonContext(e, http.MethodPost, "/auth/sign-in-landlord", `{"email":"a@b.com","password":"Aa1!aaaa"}`)
	if err := h.SignIn(domain.RoleLandlord)(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	resp := decodeEnvelope(t, rec.Body.Bytes())
	if resp["accessToken"] != "access-1" {
		t.Fatalf("expected accessToken in body, got %+v", resp)
	}
	if data, _ := resp["data"].(map[string]any); data["refreshToken"] != nil {
		t.Fatalf("refresh token must not be serialized: %+v", data)
	}

	ck := findCookie(t, rec, middleware.RefreshCookie)
	if ck == nil || ck.Value != "refresh-1" {
		t.Fatalf("expected refresh cookie, got %+v", ck)
	}
	if !ck.HttpOnly || !ck.Secure || ck.SameSite != http.SameSiteStrictMode || ck.MaxAge != 604800 {
		t.Fatalf("unexpected cookie attributes: %+v", ck)
	}
}

func TestSessionHandler_SignIn_Failure(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		signInFn: func(context.Context, string, string, string) (*ports.Session, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	h := NewSessionHandler(stub, SessionHandlerConfig{})

	c, rec := jsonContext(e, http.MethodPost, "/auth/sign-in-landlord", `{"email":"a@b.com","password":"wrong"}`)
	if err := h.SignIn(domain.RoleLandlord)(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if findCookie(t, rec, middleware.RefreshCookie) != nil {
		t.Fatal("no cookie expected on failure")
	}
}

func TestSessionHandler_RefreshAccessToken(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		refreshFn: func(_ context.Context, token string) (string, error) {
			if token != "refresh-1" {
				return "", domain.ErrSessionExpired
			}
			return "access-2", nil
		},
	}
	h := NewSessionHandler(stub, SessionHandlerConfig{})

	c, rec := jsonContext(e, http.MethodPost, "/auth/refresh-access-token", "")
	c.Request().AddCookie(&http.Cookie{Name: middleware.RefreshCookie, Value: "refresh-1"})
	if err := h.RefreshAccessToken(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if resp := decodeEnvelope(t, rec.Body.Bytes()); resp["accessToken"] != "access-2" {
		t.Fatalf("unexpected body: %+v", resp)
	}

	c, _ = jsonContext(e, http.MethodPost, "/auth/refresh-access-token", "")
	if err := h.RefreshAccessToken(c); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired without cookie, got %v", err)
	}
}

func TestSessionHandler_Logout_ClearsCookie(t *testing.T) {
	e := newTestEcho()
	var got string
	stub := &stubSessionService{
		logoutFn: func(_ context.Context, token string) error {
			got = token
			return nil
		},
	}
	h := NewSessionHandler(stub, SessionHandlerConfig{})

	c, rec := jsonContext(e, http.MethodPost, "/auth/logout", "")
	c.Request().AddCookie(&http.Cookie{Name: middleware.RefreshCookie, Value: "refresh-1"})
	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got != "refresh-1" {
		t.Fatalf("expected service to receive cookie token, got %q", got)
	}
	ck := findCookie(t, rec, middleware.RefreshCookie)
	if ck == nil || ck.MaxAge >= 0 || ck.Value != "" {
		t.Fatalf("expected cleared cookie, got %+v", ck)
	}
}

func TestSessionHandler_UpdatePassword(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		updatePwFn: func(_ context.Context, actorID string, in ports.PasswordChange) error {
			if actorID != "u1" || in.Current != "Old1!old" || in.New != "New1!new" || in.Confirm != "New1!new" {
				t.Fatalf("unexpected args: %s %+v", actorID, in)
			}
			return nil
		},
	}
	h := NewSessionHandler(stub, SessionHandlerConfig{})
	body := `{"currentPassword":"Old1!old","newPassword":"New1!new","confirmNewPassword":"New1!new"}`

	c, _ := jsonContext(e, http.MethodPut, "/auth/update-password", body)
	var he *echo.HTTPError
	if err := h.UpdatePassword(c); !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %v", err)
	}

	c, rec := jsonContext(e, http.MethodPut, "/auth/update-password", body)
	withIdentity(c, "u1")
	if err := h.UpdatePassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestSessionHandler_RequestPasswordReset_UsesBase(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		resetReqFn: func(_ context.Context, email, base string) error {
			if email != "a@b.com" || base != "https://app.example.com/landlords" {
				t.Fatalf("unexpected args: %s %s", email, base)
			}
			return nil
		},
	}
	h := NewSessionHandler(stub, SessionHandlerConfig{ResetURLBase: "https://app.example.com/landlords"})

	c, rec := jsonContext(e, http.MethodPost, "/landlords/auth/password-reset-token", `{"email":"a@b.com"}`)
	if err := h.RequestPasswordReset(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decodeEnvelope(t, rec.Body.Bytes())
	if _, leaked := resp["data"]; leaked {
		t.Fatalf("reset token must not be returned: %+v", resp)
	}
}
