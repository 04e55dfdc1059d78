// Package identity adapts external identity providers to ports.IdentityProvider.
package identity

import (
	"sort"
	"strings"

	"github.com/propertyhub/rental-api/internal/core/domain"
	"github.com/propertyhub/rental-api/internal/core/ports"
)

// Registry is the set of providers enabled at startup.
type Registry struct {
	providers map[string]ports.IdentityProvider
}

func NewRegistry(providers ...ports.IdentityProvider) *Registry {
	r := &Registry{providers: make(map[string]ports.IdentityProvider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

func (r *Registry) Lookup(name string) (ports.IdentityProvider, error) {
	p, ok := r.providers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, domain.ErrProviderNotSupported
	}
	return p, nil
}

// Names lists the enabled providers in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
