package ports

import (
	"context"
	"time"

	"github.com/propertyhub/rental-api/internal/core/domain"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// TokenIssuer signs and verifies the three token families.
type TokenIssuer interface {
	AccessVerifier
	IssueAccessToken(id string, kind domain.ActorKind, ttl time.Duration) (string, error)
	IssueRefreshToken(id string, kind domain.ActorKind) (string, error)
	VerifyRefresh(token string) (*domain.Identity, error)
	IssueActivationTicket(reg domain.Registration, code string) (string, error)
	VerifyActivationTicket(ticket string) (*domain.ActivationTicket, error)
	// CodeMatches compares a submitted activation code against the digest in
	// a verified ticket in constant time.
	CodeMatches(t *domain.ActivationTicket, code string) bool
}

// AccessVerifier checks access tokens. On expiry it returns the signature-verified
// identity together with domain.ErrTokenExpired.
type AccessVerifier interface {
	VerifyAccess(token string) (*domain.Identity, error)
}

// TicketGuard makes a one-shot ticket redeemable at most once.
type TicketGuard interface {
	// Claim returns domain.ErrActivationTicketUsed if id was already claimed.
	Claim(ctx context.Context, id string, ttl time.Duration) error
	Release(ctx context.Context, id string) error
}

// RateLimiter counts hits against key in fixed windows.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
