package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/propertyhub/rental-api/internal/core/domain"
	"github.com/propertyhub/rental-api/internal/core/ports"
)

var avatarExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// AvatarUploadURL returns a presigned URL the client uploads the picture to,
// then confirms with SetAvatar.
func (s *SessionService) AvatarUploadURL(ctx context.Context, actorID, contentType string) (*ports.AvatarUpload, error) {
	if s.Avatars == nil {
		return nil, domain.ErrNotConfigured
	}
	ext, ok := avatarExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return nil, fmt.Errorf("%w: contentType must be image/jpeg, image/png or image/webp", domain.ErrValidation)
	}
	if _, err := s.findActor(ctx, actorID); err != nil {
		return nil, err
	}

	key := s.avatarPrefix(actorID) + uuid.NewString() + ext
	url, expires, err := s.Avatars.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, fmt.Errorf("presign avatar upload: %w", err)
	}
	return &ports.AvatarUpload{Key: key, UploadURL: url, ExpiresIn: int(expires.Seconds())}, nil
}

// SetAvatar points the actor's avatar at an uploaded object. Only keys under
// the actor's own prefix are accepted.
func (s *SessionService) SetAvatar(ctx context.Context, actorID, key string) (*domain.Actor, error) {
	if s.Avatars == nil {
		return nil, domain.ErrNotConfigured
	}
	if !strings.HasPrefix(key, s.avatarPrefix(actorID)) || strings.Contains(key, "..") {
		return nil, fmt.Errorf("%w: key does not belong to this account", domain.ErrValidation)
	}
	if err := s.Actors.SetAvatar(ctx, actorID, s.Avatars.PublicURL(key)); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrActorNotFound
		}
		return nil, fmt.Errorf("set avatar: %w", err)
	}
	return s.Profile(ctx, actorID)
}

func (s *SessionService) avatarPrefix(actorID string) string {
	return "avatars/" + string(s.desc.Kind) + "/" + actorID + "/"
}
