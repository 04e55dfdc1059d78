package middleware

import (
	"context"

	"github.com/propertyhub/rental-api/internal/core/domain"
	"github.com/propertyhub/rental-api/internal/core/ports"
)

type stubVerifier struct {
	tokens map[string]*domain.Identity
	// expired tokens verify with ErrTokenExpired.
	expired map[string]*domain.Identity
}

func (v *stubVerifier) VerifyAccess(token string) (*domain.Identity, error) {
	if id, ok := v.tokens[token]; ok {
		return id, nil
	}
	if id, ok := v.expired[token]; ok {
		return id, domain.ErrTokenExpired
	}
	return nil, domain.ErrTokenInvalid
}

// stubSessions implements only the SessionService methods middleware uses.
type stubSessions struct {
	ports.SessionService
	refreshFn func(ctx context.Context, token string) (string, error)
	roleFn    func(ctx context.Context, actorID string) (*domain.Role, error)
	refreshes int
}

func (s *stubSessions) Refresh(ctx context.Context, token string) (string, error) {
	s.refreshes++
	return s.refreshFn(ctx, token)
}

func (s *stubSessions) RoleOf(ctx context.Context, actorID string) (*domain.Role, error) {
	return s.roleFn(ctx, actorID)
}

type stubDirectory map[domain.ActorKind]ports.SessionService

func (d stubDirectory) For(kind domain.ActorKind) (ports.SessionService, bool) {
	s, ok := d[kind]
	return s, ok
}
