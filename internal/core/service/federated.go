package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/propertyhub/rental-api/internal/core/domain"
	"github.com/propertyhub/rental-api/internal/core/ports"
	"github.com/propertyhub/rental-api/internal/pkg/metrics"
)

// FederatedSignIn signs in with a provider credential. The actor is found by
// provider subject, then by email (linking the provider), and is created when
// neither matches.
func (s *SessionService) FederatedSignIn(ctx context.Context, provider, credential string) (*ports.Session, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, fmt.Errorf("%w: credential is required", domain.ErrValidation)
	}
	p, err := s.provider(provider)
	if err != nil {
		return nil, err
	}

	ext, err := p.Verify(ctx, credential)
	if err != nil {
		// Provider error text stays in the log; clients get the sentinel.
		s.log.Warn().Err(err).Str("provider", p.Name()).Msg("federated credential rejected")
		metrics.SignInsTotal.WithLabelValues(string(s.desc.Kind), metrics.ResultFailure).Inc()
		return nil, domain.ErrFederatedAuthFailed
	}
	ext.Provider = p.Name()
	ext.Email = domain.NormalizeEmail(ext.Email)

	actor, outcome, err := s.resolveFederated(ctx, ext)
	if err != nil {
		metrics.SignInsTotal.WithLabelValues(string(s.desc.Kind), metrics.ResultFailure).Inc()
		return nil, err
	}
	if actor.Disabled {
		metrics.SignInsTotal.WithLabelValues(string(s.desc.Kind), metrics.ResultFailure).Inc()
		return nil, domain.ErrAccountDisabled
	}

	sess, err := s.issueSession(ctx, actor)
	metrics.SignInsTotal.WithLabelValues(string(s.desc.Kind), metrics.Result(err)).Inc()
	if err != nil {
		return nil, err
	}
	metrics.FederatedSignInsTotal.WithLabelValues(ext.Provider, outcome).Inc()
	return sess, nil
}

// AuthCodeURL returns the consent page URL of a redirect-capable provider.
func (s *SessionService) AuthCodeURL(provider, state string) (string, error) {
	p, err := s.provider(provider)
	if err != nil {
		return "", err
	}
	rp, ok := p.(ports.RedirectProvider)
	if !ok {
		return "", domain.ErrProviderNotSupported
	}
	return rp.AuthCodeURL(state), nil
}

func (s *SessionService) provider(name string) (ports.IdentityProvider, error) {
	if s.Identity == nil {
		return nil, domain.ErrProviderNotSupported
	}
	return s.Identity.Lookup(name)
}

func (s *SessionService) resolveFederated(ctx context.Context, ext *domain.ExternalIdentity) (*domain.Actor, string, error) {
	actor, err := s.Actors.FindByExternalID(ctx, ext.Provider, ext.Subject)
	if err == nil {
		return actor, "existing", nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, "", fmt.Errorf("lookup provider id: %w", err)
	}

	if ext.Email == "" {
		return nil, "", fmt.Errorf("%w: provider returned no email", domain.ErrFederatedAuthFailed)
	}

	actor, err = s.Actors.FindByEmail(ctx, ext.Email)
	switch {
	case err == nil:
		avatar := ""
		if actor.Avatar == "" {
			avatar = ext.Avatar
		}
		if err := s.Actors.LinkProvider(ctx, actor.ID, ext.Provider, ext.Subject, avatar); err != nil {
			return nil, "", fmt.Errorf("link provider: %w", err)
		}
		if avatar != "" {
			actor.Avatar = avatar
		}
		return actor, "linked", nil
	case !errors.Is(err, domain.ErrAccountNotFound):
		return nil, "", fmt.Errorf("lookup email: %w", err)
	}

	now := s.Now().UTC()
	candidate := &domain.Actor{
		Kind:          s.desc.Kind,
		UserName:      federatedUserName(ext),
		Email:         ext.Email,
		Avatar:        ext.Avatar,
		ExternalIDs:   map[string]string{ext.Provider: ext.Subject},
		TermsAccepted: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.assignRole(ctx, candidate, s.desc.FederatedRole); err != nil {
		return nil, "", err
	}
	created, err := s.Actors.Create(ctx, candidate)
	if err != nil {
		return nil, "", err
	}
	created.Role = candidate.Role
	return created, "created", nil
}

func federatedUserName(ext *domain.ExternalIdentity) string {
	if name := strings.TrimSpace(ext.Name); name != "" {
		return name
	}
	local, _, _ := strings.Cut(ext.Email, "@")
	return local
}
