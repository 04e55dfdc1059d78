package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/propertyhub/rental-api/internal/core/domain"
	"github.com/propertyhub/rental-api/internal/core/ports"
	"github.com/propertyhub/rental-api/internal/pkg/metrics"
	"github.com/propertyhub/rental-api/internal/pkg/validation"
)

const (
	resetTokenBytes = 32
	ResetTokenTTL   = 10 * time.Minute
)

// UpdatePassword changes the password of a signed-in actor. The stored refresh
// token is kept, so other sessions of the same actor stay valid.
func (s *SessionService) UpdatePassword(ctx context.Context, actorID string, in ports.PasswordChange) error {
	if in.Current == "" || in.New == "" || in.Confirm == "" {
		return fmt.Errorf("%w: currentPassword, newPassword and confirmNewPassword are required", domain.ErrValidation)
	}
	for _, p := range []string{in.Current, in.New, in.Confirm} {
		if !validation.StrongPassword(p) {
			return domain.ErrWeakPassword
		}
	}
	if in.New != in.Confirm {
		return domain.ErrPasswordMismatch
	}

	actor, err := s.findActor(ctx, actorID)
	if err != nil {
		return err
	}
	if !s.Hasher.Verify(actor.PasswordHash, in.Current) {
		return domain.ErrInvalidCredentials
	}
	if s.Hasher.Verify(actor.PasswordHash, in.New) {
		return domain.ErrSameAsCurrent
	}

	hash, err := s.Hasher.Hash(in.New)
	if err != nil {
		return err
	}
	if err := s.Actors.UpdatePassword(ctx, actor.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// RequestPasswordReset stores the digest of a fresh reset token, replacing any
// earlier one, and mails the plain token as a link under resetURLBase.
func (s *SessionService) RequestPasswordReset(ctx context.Context, email, resetURLBase string) error {
	email = domain.NormalizeEmail(email)
	if email == "" || !validation.Email(email) {
		return fmt.Errorf("%w: a valid email is required", domain.ErrValidation)
	}

	actor, err := s.Actors.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}
	expires := s.Now().UTC().Add(ResetTokenTTL)
	if err := s.Actors.SetPasswordReset(ctx, actor.ID, hashResetToken(token), expires); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	link := strings.TrimRight(resetURLBase, "/") + "/reset-password/" + token
	if err := s.Mailer.Send(ctx, resetMail(actor.UserName, actor.Email, link)); err != nil {
		if cerr := s.Actors.ClearPasswordReset(ctx, actor.ID); cerr != nil {
			s.log.Warn().Err(cerr).Str("actor_id", actor.ID).Msg("clear reset token after mail failure")
		}
		return fmt.Errorf("send reset mail: %w", err)
	}

	metrics.PasswordResetsTotal.WithLabelValues(string(s.desc.Kind), "requested").Inc()
	return nil
}

// ResetPassword completes a reset. The password swap, the removal of the reset
// fields and of the stored refresh token happen in one conditional update.
func (s *SessionService) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if token == "" || password == "" || confirm == "" {
		return fmt.Errorf("%w: token, password and confirmPassword are required", domain.ErrValidation)
	}
	if !validation.StrongPassword(password) {
		return domain.ErrWeakPassword
	}
	if password != confirm {
		return domain.ErrPasswordMismatch
	}

	digest := hashResetToken(token)
	now := s.Now().UTC()

	actor, err := s.Actors.FindByResetToken(ctx, digest, now)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return domain.ErrInvalidOrExpiredResetToken
	}
	if err != nil {
		return fmt.Errorf("lookup reset token: %w", err)
	}
	if s.Hasher.Verify(actor.PasswordHash, password) {
		return domain.ErrSameAsCurrent
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return err
	}
	err = s.Actors.CompletePasswordReset(ctx, actor.ID, digest, hash, now)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return domain.ErrInvalidOrExpiredResetToken
	}
	if err != nil {
		return fmt.Errorf("complete reset: %w", err)
	}

	metrics.PasswordResetsTotal.WithLabelValues(string(s.desc.Kind), "completed").Inc()
	return nil
}

func newResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
