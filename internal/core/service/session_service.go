package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/propertyhub/rental-api/internal/core/domain"
	"github.com/propertyhub/rental-api/internal/core/ports"
	"github.com/propertyhub/rental-api/internal/pkg/metrics"
	"github.com/propertyhub/rental-api/internal/pkg/validation"
)

// SessionDeps are the collaborators of a SessionService. Identity and Avatars
// are optional.
type SessionDeps struct {
	Actors   ports.ActorRepository
	Roles    ports.RoleRepository
	Hasher   ports.PasswordHasher
	Tokens   ports.TokenIssuer
	Mailer   ports.Mailer
	Tickets  ports.TicketGuard
	Identity ports.IdentityRegistry
	Avatars  ports.AvatarStore
	Logger   zerolog.Logger
	Now      func() time.Time
}

// SessionService implements ports.SessionService for one actor kind.
type SessionService struct {
	desc domain.KindDescriptor
	SessionDeps
	log zerolog.Logger
}

func NewSessionService(desc domain.KindDescriptor, deps SessionDeps) *SessionService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &SessionService{
		desc:        desc,
		SessionDeps: deps,
		log:         deps.Logger.With().Str("kind", string(desc.Kind)).Logger(),
	}
}

func (s *SessionService) Kind() domain.ActorKind { return s.desc.Kind }

func (s *SessionService) SignIn(ctx context.Context, email, password, expectedRole string) (sess *ports.Session, err error) {
	defer func() { metrics.SignInsTotal.WithLabelValues(string(s.desc.Kind), metrics.Result(err)).Inc() }()

	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}
	if !validation.Email(email) {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrValidation)
	}

	actor, err := s.Actors.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	if s.desc.RoleStyle == domain.RoleReference {
		role, err := s.Roles.FindByID(ctx, actor.RoleID)
		if err != nil || role.Name != domain.CanonicalRoleName(expectedRole) {
			return nil, domain.ErrInvalidCredentials
		}
		actor.Role = role.Name
	}

	if !s.Hasher.Verify(actor.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}
	if actor.Disabled {
		return nil, domain.ErrAccountDisabled
	}

	return s.issueSession(ctx, actor)
}

// Refresh mints a new access token from a stored refresh token. The refresh
// token itself is left in place.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (token string, err error) {
	defer func() { metrics.RefreshesTotal.WithLabelValues(string(s.desc.Kind), metrics.Result(err)).Inc() }()

	if refreshToken == "" {
		return "", domain.ErrSessionExpired
	}

	actor, err := s.Actors.FindByRefreshToken(ctx, refreshToken)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return "", domain.ErrInvalidRefreshToken
	}
	if err != nil {
		return "", fmt.Errorf("refresh: %w", err)
	}

	id, err := s.Tokens.VerifyRefresh(refreshToken)
	if err != nil {
		s.log.Debug().Err(err).Str("actor_id", actor.ID).Msg("stored refresh token failed verification")
		return "", domain.ErrUnauthorized
	}
	if id.ID != actor.ID || id.Kind != s.desc.Kind {
		return "", domain.ErrUnauthorized
	}
	if actor.Disabled {
		return "", domain.ErrAccountDisabled
	}

	return s.Tokens.IssueAccessToken(actor.ID, s.desc.Kind, s.desc.AccessTTL)
}

// Logout is idempotent: an empty or unknown token is not an error.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	err := s.Actors.ClearRefreshToken(ctx, refreshToken)
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *SessionService) Profile(ctx context.Context, actorID string) (*domain.Actor, error) {
	actor, err := s.findActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if s.desc.RoleStyle == domain.RoleReference && actor.RoleID != "" {
		if role, err := s.Roles.FindByID(ctx, actor.RoleID); err == nil {
			actor.Role = role.Name
		}
	}
	return actor, nil
}

// RoleOf re-reads the actor's current role. Embedded roles missing from the
// roles collection resolve to a role with no permissions.
func (s *SessionService) RoleOf(ctx context.Context, actorID string) (*domain.Role, error) {
	actor, err := s.findActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if s.desc.RoleStyle == domain.RoleReference {
		return s.Roles.FindByID(ctx, actor.RoleID)
	}
	role, err := s.Roles.FindByName(ctx, actor.Role)
	if errors.Is(err, domain.ErrRoleNotFound) {
		return &domain.Role{Name: actor.Role}, nil
	}
	return role, err
}

func (s *SessionService) DeleteAccount(ctx context.Context, actorID string) error {
	err := s.Actors.SoftDelete(ctx, actorID, s.Now().UTC())
	if errors.Is(err, domain.ErrAccountNotFound) {
		return domain.ErrActorNotFound
	}
	return err
}

// SetDisabled toggles the admin lock. Disabling also drops the stored refresh token.
func (s *SessionService) SetDisabled(ctx context.Context, actorID string, disabled bool) error {
	err := s.Actors.SetDisabled(ctx, actorID, disabled)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return domain.ErrActorNotFound
	}
	if err == nil {
		s.log.Info().Str("actor_id", actorID).Bool("disabled", disabled).Msg("actor lock changed")
	}
	return err
}

func (s *SessionService) issueSession(ctx context.Context, actor *domain.Actor) (*ports.Session, error) {
	access, err := s.Tokens.IssueAccessToken(actor.ID, s.desc.Kind, s.desc.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Tokens.IssueRefreshToken(actor.ID, s.desc.Kind)
	if err != nil {
		return nil, err
	}
	if err := s.Actors.SetRefreshToken(ctx, actor.ID, refresh); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	actor.RefreshToken = refresh
	return &ports.Session{Actor: actor, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *SessionService) findActor(ctx context.Context, actorID string) (*domain.Actor, error) {
	if strings.TrimSpace(actorID) == "" {
		return nil, domain.ErrActorNotFound
	}
	actor, err := s.Actors.FindByID(ctx, actorID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, domain.ErrActorNotFound
	}
	return actor, err
}
