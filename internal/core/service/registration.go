package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/propertyhub/rental-api/internal/core/domain"
	"github.com/propertyhub/rental-api/internal/core/ports"
	"github.com/propertyhub/rental-api/internal/pkg/metrics"
	"github.com/propertyhub/rental-api/internal/pkg/validation"
)

// Register validates a sign-up, emails an activation code and returns the
// signed ticket the client must send back with that code. Nothing is persisted.
func (s *SessionService) Register(ctx context.Context, in ports.RegisterInput) (string, string, error) {
	in.UserName = strings.TrimSpace(in.UserName)
	in.Email = domain.NormalizeEmail(in.Email)

	if in.UserName == "" || in.Email == "" || in.Password == "" || !in.TermsAccepted {
		return "", "", fmt.Errorf("%w: userName, email, password and termsAndConditionsAccepted are required", domain.ErrValidation)
	}
	if !validation.Email(in.Email) {
		return "", "", fmt.Errorf("%w: invalid email", domain.ErrValidation)
	}
	if !validation.StrongPassword(in.Password) {
		return "", "", domain.ErrWeakPassword
	}
	if err := s.ensureEmailFree(ctx, in.Email); err != nil {
		return "", "", err
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return "", "", err
	}
	code, err := activationCode(s.desc.CodeDigits)
	if err != nil {
		return "", "", err
	}

	ticket, err := s.Tokens.IssueActivationTicket(domain.Registration{
		Kind:          s.desc.Kind,
		UserName:      in.UserName,
		Email:         in.Email,
		PasswordHash:  hash,
		TermsAccepted: in.TermsAccepted,
	}, code)
	if err != nil {
		return "", "", err
	}

	if err := s.Mailer.Send(ctx, activationMail(in.UserName, in.Email, code)); err != nil {
		return "", "", fmt.Errorf("send activation mail: %w", err)
	}

	s.log.Info().Str("email", in.Email).Msg("activation code issued")
	return ticket, in.Email, nil
}

// Activate redeems an activation ticket and creates the account. expectedRole
// names the role for kinds that reference the roles collection and is ignored
// otherwise. The ticket is claimed before insert so a replay loses the race.
func (s *SessionService) Activate(ctx context.Context, ticket, code, expectedRole string) (actor *domain.Actor, err error) {
	defer func() { metrics.ActivationsTotal.WithLabelValues(string(s.desc.Kind), metrics.Result(err)).Inc() }()

	ticket, code = strings.TrimSpace(ticket), strings.TrimSpace(code)
	if ticket == "" || code == "" {
		return nil, fmt.Errorf("%w: activationToken and activationCode are required", domain.ErrValidation)
	}

	t, err := s.Tokens.VerifyActivationTicket(ticket)
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return nil, domain.ErrActivationExpired
	case err != nil:
		return nil, domain.ErrActivationInvalid
	}
	if t.Registration.Kind != s.desc.Kind {
		return nil, domain.ErrActivationInvalid
	}
	if !s.Tokens.CodeMatches(t, code) {
		return nil, domain.ErrActivationCodeMismatch
	}
	if err := s.ensureEmailFree(ctx, t.Registration.Email); err != nil {
		return nil, err
	}

	now := s.Now().UTC()
	candidate := &domain.Actor{
		Kind:          s.desc.Kind,
		UserName:      t.Registration.UserName,
		Email:         t.Registration.Email,
		PasswordHash:  t.Registration.PasswordHash,
		TermsAccepted: t.Registration.TermsAccepted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.assignRole(ctx, candidate, expectedRole); err != nil {
		return nil, err
	}

	ttl := t.ExpiresAt.Sub(now)
	if ttl < time.Second {
		ttl = time.Second
	}
	if err := s.Tickets.Claim(ctx, t.ID, ttl); err != nil {
		return nil, err
	}

	created, err := s.Actors.Create(ctx, candidate)
	if err != nil {
		if rerr := s.Tickets.Release(ctx, t.ID); rerr != nil {
			s.log.Warn().Err(rerr).Str("ticket_id", t.ID).Msg("release activation ticket")
		}
		return nil, err
	}
	created.Role = candidate.Role

	s.log.Info().Str("actor_id", created.ID).Msg("account activated")
	return created, nil
}

// assignRole sets the role fields of a new actor. Reference-style kinds look
// the role up by name; embedded kinds always get the descriptor role.
func (s *SessionService) assignRole(ctx context.Context, a *domain.Actor, name string) error {
	if s.desc.RoleStyle == domain.RoleEmbedded {
		a.Role = s.desc.EmbeddedRole
		return nil
	}
	name = domain.CanonicalRoleName(name)
	if name == "" {
		return domain.ErrRoleNotFound
	}
	role, err := s.Roles.FindByName(ctx, name)
	if err != nil {
		return err
	}
	a.RoleID, a.Role = role.ID, role.Name
	return nil
}

func (s *SessionService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.Actors.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return domain.ErrDuplicateAccount
	case errors.Is(err, domain.ErrAccountNotFound):
		return nil
	default:
		return fmt.Errorf("lookup email: %w", err)
	}
}

// activationCode returns a uniformly random decimal code of the given width.
func activationCode(digits int) (string, error) {
	if digits <= 0 {
		digits = 6
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("activation code: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
