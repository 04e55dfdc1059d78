package identity

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"

	"github.com/propertyhub/rental-api/internal/core/domain"
)

const ProviderGoogle = "google"

// Google verifies Google Sign-In ID tokens issued for clientID.
type Google struct {
	clientID string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

func NewGoogle(clientID string) *Google {
	return &Google{clientID: clientID, validate: idtoken.Validate}
}

func (g *Google) Name() string { return ProviderGoogle }

func (g *Google) Verify(ctx context.Context, credential string) (*domain.ExternalIdentity, error) {
	payload, err := g.validate(ctx, credential, g.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFederatedAuthFailed, err)
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return nil, fmt.Errorf("%w: google email not verified", domain.ErrFederatedAuthFailed)
	}

	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)
	return &domain.ExternalIdentity{
		Provider: ProviderGoogle,
		Subject:  payload.Subject,
		Email:    email,
		Name:     name,
		Avatar:   picture,
	}, nil
}
