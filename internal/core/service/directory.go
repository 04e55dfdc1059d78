package service

import (
	"github.com/propertyhub/rental-api/internal/core/domain"
	"github.com/propertyhub/rental-api/internal/core/ports"
)

// Directory maps each actor kind to its session service.
type Directory map[domain.ActorKind]ports.SessionService

func (d Directory) For(kind domain.ActorKind) (ports.SessionService, bool) {
	svc, ok := d[kind]
	return svc, ok
}

var (
	_ ports.SessionService   = (*SessionService)(nil)
	_ ports.SessionDirectory = Directory(nil)
	_ ports.RoleService      = (*RoleService)(nil)
)
