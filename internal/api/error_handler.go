package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/propertyhub/rental-api/internal/api/handler"
	"github.com/propertyhub/rental-api/internal/core/domain"
)

// statusOf lists domain errors by HTTP status. Order matters only where one
// sentinel wraps another.
var statusOf = []struct {
	err  error
	code int
}{
	{domain.ErrWeakPassword, http.StatusBadRequest},
	{domain.ErrValidation, http.StatusBadRequest},
	{domain.ErrPasswordMismatch, http.StatusBadRequest},
	{domain.ErrSameAsCurrent, http.StatusBadRequest},
	{domain.ErrActivationExpired, http.StatusBadRequest},
	{domain.ErrActivationInvalid, http.StatusBadRequest},
	{domain.ErrActivationCodeMismatch, http.StatusBadRequest},
	{domain.ErrActivationTicketUsed, http.StatusBadRequest},
	{domain.ErrInvalidOrExpiredResetToken, http.StatusBadRequest},
	{domain.ErrSessionExpired, http.StatusBadRequest},
	{domain.ErrInvalidRefreshToken, http.StatusBadRequest},
	{domain.ErrInvalidCredentials, http.StatusBadRequest},

	{domain.ErrUnauthorized, http.StatusUnauthorized},
	{domain.ErrTokenExpired, http.StatusUnauthorized},
	{domain.ErrTokenInvalid, http.StatusUnauthorized},
	{domain.ErrFederatedAuthFailed, http.StatusUnauthorized},

	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrAccountDisabled, http.StatusForbidden},

	{domain.ErrAccountNotFound, http.StatusNotFound},
	{domain.ErrActorNotFound, http.StatusNotFound},
	{domain.ErrRoleNotFound, http.StatusNotFound},
	{domain.ErrProviderNotSupported, http.StatusNotFound},

	{domain.ErrDuplicateAccount, http.StatusConflict},
	{domain.ErrRoleExists, http.StatusConflict},

	{domain.ErrRateLimited, http.StatusTooManyRequests},
	{domain.ErrNotConfigured, http.StatusNotImplemented},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps domain
// errors to status codes and renders every failure in the response envelope.
// Unexpected errors are logged; their text reaches the client only in
// development.
func NewHTTPErrorHandler(log zerolog.Logger, env string) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c, env == "development")
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, handler.Failure(msg))
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context, verbose bool) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, s := range statusOf {
		if errors.Is(err, s.err) {
			return s.code, err.Error()
		}
	}

	if mongo.IsDuplicateKeyError(err) {
		return http.StatusConflict, domain.ErrDuplicateAccount.Error()
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	if verbose {
		return http.StatusInternalServerError, "internal server error: " + err.Error()
	}
	return http.StatusInternalServerError, "internal server error"
}
