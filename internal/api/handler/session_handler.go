package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/propertyhub/rental-api/internal/api/middleware"
	"github.com/propertyhub/rental-api/internal/core/ports"
)

// SessionHandler serves the account and session routes of one actor kind.
type SessionHandler struct {
	service      ports.SessionService
	cookies      CookieConfig
	resetURLBase string
	clientURL    string
	log          zerolog.Logger
}

type SessionHandlerConfig struct {
	Cookies CookieConfig
	// ResetURLBase prefixes the link mailed for password resets.
	ResetURLBase string
	// ClientURL is where federated callbacks land after signing in.
	ClientURL string
	Logger    zerolog.Logger
}

func NewSessionHandler(service ports.SessionService, cfg SessionHandlerConfig) *SessionHandler {
	return &SessionHandler{
		service:      service,
		cookies:      cfg.Cookies,
		resetURLBase: cfg.ResetURLBase,
		clientURL:    cfg.ClientURL,
		log:          cfg.Logger,
	}
}

// Register starts a registration and mails the activation code.
//
// @Summary      Register an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      200   {object}  Envelope{data=registerResponse}
// @Failure      400   {object}  Envelope
// @Failure      409   {object}  Envelope
// @Router       /auth/register [post]
func (h *SessionHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ticket, email, err := h.service.Register(c.Request().Context(), ports.RegisterInput{
		UserName:      req.UserName,
		Email:         req.Email,
		Password:      req.Password,
		TermsAccepted: req.TermsAccepted,
	})
	if err != nil {
		return err
	}

	return success(c, http.StatusOK, "activation code sent to "+email, registerResponse{
		ActivationToken: ticket,
		Email:           email,
	})
}

// Activate returns the activation handler for role. Embedded-role kinds pass
// an empty role and get the one their kind carries.
//
// @Summary      Activate an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      activateRequest  true  "Activation ticket and code"
// @Success      200   {object}  actorEnvelope
// @Failure      400   {object}  Envelope
// @Failure      409   {object}  Envelope
// @Router       /auth/activate-landlord [post]
func (h *SessionHandler) Activate(role string) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req activateRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}

		actor, err := h.service.Activate(c.Request().Context(), req.ActivationToken, req.ActivationCode, role)
		if err != nil {
			return err
		}
		return success(c, http.StatusOK, "account activated", actor)
	}
}

// SignIn returns the sign-in handler for role.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Credentials"
// @Success      200   {object}  actorEnvelope
// @Failure      400   {object}  Envelope
// @Failure      403   {object}  Envelope
// @Failure      429   {object}  Envelope
// @Router       /auth/sign-in-landlord [post]
func (h *SessionHandler) SignIn(role string) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req signInRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}

		sess, err := h.service.SignIn(c.Request().Context(), req.Email, req.Password, role)
		if err != nil {
			return err
		}
		return h.respondSession(c, sess)
	}
}

// RefreshAccessToken mints a new access token from the refresh cookie.
//
// @Summary      Refresh the access token
// @Tags         auth
// @Produce      json
// @Success      200  {object}  Envelope
// @Failure      400  {object}  Envelope
// @Failure      401  {object}  Envelope
// @Router       /auth/refresh-access-token [post]
func (h *SessionHandler) RefreshAccessToken(c echo.Context) error {
	access, err := h.service.Refresh(c.Request().Context(), refreshCookie(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Envelope{
		Status:      StatusSuccess,
		Message:     "access token refreshed",
		AccessToken: access,
	})
}

// UpdatePassword changes the caller's password.
//
// @Summary      Update password
// @Tags         auth
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      updatePasswordRequest  true  "Current and new password"
// @Success      200   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Failure      401   {object}  Envelope
// @Router       /auth/update-password [put]
func (h *SessionHandler) UpdatePassword(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req updatePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err = h.service.UpdatePassword(c.Request().Context(), id.ID, ports.PasswordChange{
		Current: req.CurrentPassword,
		New:     req.NewPassword,
		Confirm: req.ConfirmNewPassword,
	})
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "password updated", nil)
}

// RequestPasswordReset mails a single-use reset link.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      passwordResetTokenRequest  true  "Account email"
// @Success      200   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Failure      404   {object}  Envelope
// @Router       /auth/password-reset-token [post]
func (h *SessionHandler) RequestPasswordReset(c echo.Context) error {
	var req passwordResetTokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.service.RequestPasswordReset(c.Request().Context(), req.Email, h.resetURLBase); err != nil {
		return err
	}
	return success(c, http.StatusOK, "password reset link sent", nil)
}

// ResetPassword sets a new password using a mailed reset token.
//
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token  path      string                true  "Reset token"
// @Param        body   body      resetPasswordRequest  true  "New password"
// @Success      200    {object}  Envelope
// @Failure      400    {object}  Envelope
// @Router       /auth/reset-password/{token} [put]
func (h *SessionHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.service.ResetPassword(c.Request().Context(), c.Param("token"), req.Password, req.ConfirmPassword); err != nil {
		return err
	}
	return success(c, http.StatusOK, "password has been reset", nil)
}

// Logout revokes the refresh token and clears its cookie. It always succeeds
// for a missing or unknown token.
//
// @Summary      Log out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  Envelope
// @Router       /auth/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	if err := h.service.Logout(c.Request().Context(), refreshCookie(c)); err != nil {
		return err
	}
	h.cookies.clearRefresh(c)
	return success(c, http.StatusOK, "logged out", nil)
}

func (h *SessionHandler) respondSession(c echo.Context, sess *ports.Session) error {
	h.cookies.setRefresh(c, sess.RefreshToken)
	return c.JSON(http.StatusOK, Envelope{
		Status:      StatusSuccess,
		Message:     "signed in",
		Data:        sess.Actor,
		AccessToken: sess.AccessToken,
	})
}

func refreshCookie(c echo.Context) string {
	ck, err := c.Cookie(middleware.RefreshCookie)
	if err != nil {
		return ""
	}
	return ck.Value
}
