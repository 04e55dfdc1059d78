package ports

import (
	"context"
	"time"

	"github.com/propertyhub/rental-api/internal/core/domain"
)

// ActorRepository persists actors of one kind. Lookups ignore soft-deleted
// records and return domain.ErrAccountNotFound on a miss.
type ActorRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Actor, error)
	FindByID(ctx context.Context, id string) (*domain.Actor, error)
	FindByRefreshToken(ctx context.Context, token string) (*domain.Actor, error)
	FindByExternalID(ctx context.Context, provider, subject string) (*domain.Actor, error)
	// FindByResetToken matches the sha256 of a reset token whose expiry is after now.
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.Actor, error)

	// Create inserts the actor and returns it with its new ID. A unique index
	// violation surfaces as domain.ErrDuplicateAccount.
	Create(ctx context.Context, actor *domain.Actor) (*domain.Actor, error)

	SetRefreshToken(ctx context.Context, id, token string) error
	// ClearRefreshToken unsets the stored token only if it still equals token.
	ClearRefreshToken(ctx context.Context, token string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetPasswordReset(ctx context.Context, id, tokenHash string, expires time.Time) error
	ClearPasswordReset(ctx context.Context, id string) error
	// CompletePasswordReset swaps the password and clears the reset fields in one
	// update conditioned on the reset hash still being live.
	CompletePasswordReset(ctx context.Context, id, tokenHash, passwordHash string, now time.Time) error
	LinkProvider(ctx context.Context, id, provider, subject, avatar string) error
	SetAvatar(ctx context.Context, id, avatar string) error
	SetDisabled(ctx context.Context, id string, disabled bool) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
}

// RoleRepository persists the shared roles collection.
type RoleRepository interface {
	FindByName(ctx context.Context, name string) (*domain.Role, error)
	FindByID(ctx context.Context, id string) (*domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
	Create(ctx context.Context, role *domain.Role) (*domain.Role, error)
}
