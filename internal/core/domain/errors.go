package domain

import (
	"errors"
	"fmt"
)

// Validation and input errors.
var (
	ErrValidation       = errors.New("validation failed")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrSameAsCurrent    = errors.New("new password must differ from the current password")
)

// ErrWeakPassword is also an ErrValidation.
var ErrWeakPassword = fmt.Errorf("%w: password must be 8 characters to 72 bytes long and contain upper and lower case letters, a digit and a special character", ErrValidation)

// Account lifecycle errors.
var (
	ErrDuplicateAccount       = errors.New("an account with this email already exists")
	ErrAccountNotFound        = errors.New("account not found")
	ErrActorNotFound          = errors.New("actor not found")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrAccountDisabled        = errors.New("account is disabled")
	ErrActivationExpired      = errors.New("activation token has expired")
	ErrActivationInvalid      = errors.New("activation token is invalid")
	ErrActivationCodeMismatch = errors.New("activation code does not match")
	ErrActivationTicketUsed   = errors.New("activation token has already been used")
	ErrRoleNotFound           = errors.New("role not found")
	ErrRoleExists             = errors.New("role already exists")
)

// Session and token errors.
var (
	ErrTokenExpired               = errors.New("token expired")
	ErrTokenInvalid               = errors.New("token invalid")
	ErrSessionExpired             = errors.New("session expired, please sign in again")
	ErrInvalidRefreshToken        = errors.New("invalid refresh token")
	ErrUnauthorized               = errors.New("unauthorized")
	ErrForbidden                  = errors.New("access forbidden")
	ErrInvalidOrExpiredResetToken = errors.New("password reset token is invalid or has expired")
	ErrRateLimited                = errors.New("too many requests")
)

// Federated sign-in errors.
var (
	ErrProviderNotSupported = errors.New("identity provider not supported")
	ErrFederatedAuthFailed  = errors.New("identity provider rejected the credential")
)

// ErrNotConfigured is returned when an optional integration was not set up.
var ErrNotConfigured = errors.New("feature not configured")
