package handler

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/propertyhub/rental-api/internal/core/domain"
)

// FederatedSignIn signs in with a credential obtained client-side, such as a
// Google ID token.
//
// @Summary      Federated sign in
// @Tags         federated
// @Accept       json
// @Produce      json
// @Param        provider  path      string                  true  "Provider name"  Enums(google, facebook)
// @Param        body      body      federatedSignInRequest  true  "Provider credential"
// @Success      200       {object}  actorEnvelope
// @Failure      401       {object}  Envelope
// @Failure      404       {object}  Envelope
// @Router       /auth/federated/{provider} [post]
func (h *SessionHandler) FederatedSignIn(c echo.Context) error {
	var req federatedSignInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	sess, err := h.service.FederatedSignIn(c.Request().Context(), c.Param("provider"), req.Credential)
	if err != nil {
		return err
	}
	return h.respondSession(c, sess)
}

// FederatedRedirect sends the browser to the provider's consent page.
//
// @Summary      Start federated sign in
// @Tags         federated
// @Param        provider  path  string  true  "Provider name"  Enums(facebook)
// @Success      302
// @Failure      404  {object}  Envelope
// @Router       /auth/federated/{provider}/redirect [get]
func (h *SessionHandler) FederatedRedirect(c echo.Context) error {
	state, err := newState()
	if err != nil {
		return err
	}
	url, err := h.service.AuthCodeURL(c.Param("provider"), state)
	if err != nil {
		return err
	}
	h.cookies.setState(c, state)
	return c.Redirect(http.StatusFound, url)
}

// FederatedCallback completes the redirect flow, sets the refresh cookie and
// sends the browser back to the client, which then calls refresh-access-token.
//
// @Summary      Federated sign in callback
// @Tags         federated
// @Param        provider  path   string  true  "Provider name"
// @Param        code      query  string  true  "Authorization code"
// @Param        state     query  string  true  "Anti-forgery state"
// @Success      302
// @Failure      401  {object}  Envelope
// @Router       /auth/federated/{provider}/callback [get]
func (h *SessionHandler) FederatedCallback(c echo.Context) error {
	ck, err := c.Cookie(stateCookie)
	state := c.QueryParam("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(ck.Value), []byte(state)) != 1 {
		return fmt.Errorf("%w: state mismatch", domain.ErrFederatedAuthFailed)
	}
	h.cookies.clearState(c)

	code := c.QueryParam("code")
	if code == "" {
		return fmt.Errorf("%w: %s", domain.ErrFederatedAuthFailed, c.QueryParam("error_description"))
	}

	sess, err := h.service.FederatedSignIn(c.Request().Context(), c.Param("provider"), code)
	if err != nil {
		return err
	}
	h.cookies.setRefresh(c, sess.RefreshToken)
	return c.Redirect(http.StatusFound, h.clientURL)
}

func newState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
