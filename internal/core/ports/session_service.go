package ports

import (
	"context"

	"github.com/propertyhub/rental-api/internal/core/domain"
)

type RegisterInput struct {
	UserName      string
	Email         string
	Password      string
	TermsAccepted bool
}

type Session struct {
	Actor        *domain.Actor
	AccessToken  string
	RefreshToken string
}

type PasswordChange struct {
	Current string
	New     string
	Confirm string
}

type AvatarUpload struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
	ExpiresIn int    `json:"expiresIn"`
}

// SessionService is the credential and session lifecycle of one actor kind.
type SessionService interface {
	Kind() domain.ActorKind

	Register(ctx context.Context, in RegisterInput) (ticket string, email string, err error)
	Activate(ctx context.Context, ticket, code, expectedRole string) (*domain.Actor, error)
	SignIn(ctx context.Context, email, password, expectedRole string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error

	UpdatePassword(ctx context.Context, actorID string, in PasswordChange) error
	RequestPasswordReset(ctx context.Context, email, resetURLBase string) error
	ResetPassword(ctx context.Context, token, password, confirm string) error

	FederatedSignIn(ctx context.Context, provider, credential string) (*Session, error)
	AuthCodeURL(provider, state string) (string, error)

	Profile(ctx context.Context, actorID string) (*domain.Actor, error)
	RoleOf(ctx context.Context, actorID string) (*domain.Role, error)
	DeleteAccount(ctx context.Context, actorID string) error
	SetDisabled(ctx context.Context, actorID string, disabled bool) error
	AvatarUploadURL(ctx context.Context, actorID, contentType string) (*AvatarUpload, error)
	SetAvatar(ctx context.Context, actorID, key string) (*domain.Actor, error)
}

// SessionDirectory resolves the session service for an actor kind.
type SessionDirectory interface {
	For(kind domain.ActorKind) (SessionService, bool)
}

// RoleService manages the shared roles collection.
type RoleService interface {
	List(ctx context.Context) ([]domain.Role, error)
	Create(ctx context.Context, name string, permissions []string) (*domain.Role, error)
	Seed(ctx context.Context, roles []domain.Role) (int, error)
}
