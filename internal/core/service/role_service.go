package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/propertyhub/rental-api/internal/core/domain"
	"github.com/propertyhub/rental-api/internal/core/ports"
)

type RoleService struct {
	repo ports.RoleRepository
	log  zerolog.Logger
}

func NewRoleService(repo ports.RoleRepository, log zerolog.Logger) *RoleService {
	return &RoleService{repo: repo, log: log}
}

func (s *RoleService) List(ctx context.Context) ([]domain.Role, error) {
	return s.repo.List(ctx)
}

func (s *RoleService) Create(ctx context.Context, name string, permissions []string) (*domain.Role, error) {
	name = domain.CanonicalRoleName(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	perms := make([]string, 0, len(permissions))
	seen := make(map[string]struct{}, len(permissions))
	for _, p := range permissions {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		perms = append(perms, p)
	}

	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return nil, domain.ErrRoleExists
	} else if !errors.Is(err, domain.ErrRoleNotFound) {
		return nil, err
	}
	return s.repo.Create(ctx, &domain.Role{Name: name, Permissions: perms})
}

// Seed creates the roles that do not exist yet and returns how many it created.
func (s *RoleService) Seed(ctx context.Context, roles []domain.Role) (int, error) {
	created := 0
	for _, r := range roles {
		_, err := s.Create(ctx, r.Name, r.Permissions)
		switch {
		case err == nil:
			created++
			s.log.Info().Str("role", r.Name).Msg("role created")
		case errors.Is(err, domain.ErrRoleExists):
			s.log.Debug().Str("role", r.Name).Msg("role already present")
		default:
			return created, fmt.Errorf("seed role %s: %w", r.Name, err)
		}
	}
	return created, nil
}
