package ports

import (
	"context"
	"time"

	"github.com/propertyhub/rental-api/internal/core/domain"
)

type Mailer interface {
	Send(ctx context.Context, msg domain.MailMessage) error
}

// AvatarStore hands out direct-upload URLs for profile pictures.
type AvatarStore interface {
	PresignUpload(ctx context.Context, key, contentType string) (url string, expires time.Duration, err error)
	PublicURL(key string) string
}

// IdentityProvider verifies a provider credential (ID token or auth code).
type IdentityProvider interface {
	Name() string
	Verify(ctx context.Context, credential string) (*domain.ExternalIdentity, error)
}

// RedirectProvider is an IdentityProvider that supports the browser consent flow.
type RedirectProvider interface {
	IdentityProvider
	AuthCodeURL(state string) string
}

type IdentityRegistry interface {
	Lookup(name string) (IdentityProvider, error)
}
