package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/propertyhub/rental-api/internal/core/domain"
	"github.com/propertyhub/rental-api/internal/core/token"
	"github.com/propertyhub/rental-api/internal/pkg/hasher"
)

type stubActorRepo struct {
	mu     sync.Mutex
	actors map[string]*domain.Actor
	seq    int
}

func newStubActorRepo() *stubActorRepo {
	return &stubActorRepo{actors: make(map[string]*domain.Actor)}
}

func cloneActor(a *domain.Actor) *domain.Actor {
	if a == nil {
		return nil
	}
	clone := *a
	if a.ExternalIDs != nil {
		clone.ExternalIDs = make(map[string]string, len(a.ExternalIDs))
		for k, v := range a.ExternalIDs {
			clone.ExternalIDs[k] = v
		}
	}
	return &clone
}

func (r *stubActorRepo) find(match func(*domain.Actor) bool) (*domain.Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.actors {
		if !a.Deleted && match(a) {
			return cloneActor(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubActorRepo) update(id string, fn func(*domain.Actor) bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.actors[id]
	if !ok || a.Deleted || !fn(a) {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *stubActorRepo) FindByEmail(_ context.Context, email string) (*domain.Actor, error) {
	return r.find(func(a *domain.Actor) bool { return a.Email == email })
}

func (r *stubActorRepo) FindByID(_ context.Context, id string) (*domain.Actor, error) {
	return r.find(func(a *domain.Actor) bool { return a.ID == id })
}

func (r *stubActorRepo) FindByRefreshToken(_ context.Context, token string) (*domain.Actor, error) {
	return r.find(func(a *domain.Actor) bool { return token != "" && a.RefreshToken == token })
}

func (r *stubActorRepo) FindByExternalID(_ context.Context, provider, subject string) (*domain.Actor, error) {
	return r.find(func(a *domain.Actor) bool { return a.ExternalIDs[provider] == subject })
}

func (r *stubActorRepo) FindByResetToken(_ context.Context, hash string, now time.Time) (*domain.Actor, error) {
	return r.find(func(a *domain.Actor) bool {
		return a.PasswordResetToken == hash && a.PasswordResetExpires.After(now)
	})
}

func (r *stubActorRepo) Create(_ context.Context, actor *domain.Actor) (*domain.Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.actors {
		if !a.Deleted && a.Email == actor.Email {
			return nil, domain.ErrDuplicateAccount
		}
	}
	r.seq++
	c := cloneActor(actor)
	c.ID = "actor-" + strconv.Itoa(r.seq)
	r.actors[c.ID] = c
	return cloneActor(c), nil
}

func (r *stubActorRepo) SetRefreshToken(_ context.Context, id, token string) error {
	return r.update(id, func(a *domain.Actor) bool { a.RefreshToken = token; return true })
}

func (r *stubActorRepo) ClearRefreshToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.actors {
		if a.RefreshToken == token {
			a.RefreshToken = ""
			return nil
		}
	}
	return domain.ErrAccountNotFound
}

func (r *stubActorRepo) UpdatePassword(_ context.Context, id, hash string) error {
	return r.update(id, func(a *domain.Actor) bool { a.PasswordHash = hash; return true })
}

func (r *stubActorRepo) SetPasswordReset(_ context.Context, id, hash string, expires time.Time) error {
	return r.update(id, func(a *domain.Actor) bool {
		a.PasswordResetToken, a.PasswordResetExpires = hash, expires
		return true
	})
}

func (r *stubActorRepo) ClearPasswordReset(_ context.Context, id string) error {
	return r.update(id, func(a *domain.Actor) bool {
		a.PasswordResetToken, a.PasswordResetExpires = "", time.Time{}
		return true
	})
}

func (r *stubActorRepo) CompletePasswordReset(_ context.Context, id, hash, newHash string, now time.Time) error {
	return r.update(id, func(a *domain.Actor) bool {
		if a.PasswordResetToken != hash || !a.PasswordResetExpires.After(now) {
			return false
		}
		a.PasswordHash = newHash
		a.PasswordResetToken, a.PasswordResetExpires = "", time.Time{}
		a.RefreshToken = ""
		return true
	})
}

func (r *stubActorRepo) LinkProvider(_ context.Context, id, provider, subject, avatar string) error {
	return r.update(id, func(a *domain.Actor) bool {
		if a.ExternalIDs == nil {
			a.ExternalIDs = map[string]string{}
		}
		a.ExternalIDs[provider] = subject
		if avatar != "" {
			a.Avatar = avatar
		}
		return true
	})
}

func (r *stubActorRepo) SetAvatar(_ context.Context, id, avatar string) error {
	return r.update(id, func(a *domain.Actor) bool { a.Avatar = avatar; return true })
}

func (r *stubActorRepo) SetDisabled(_ context.Context, id string, disabled bool) error {
	return r.update(id, func(a *domain.Actor) bool {
		a.Disabled = disabled
		if disabled {
			a.RefreshToken = ""
		}
		return true
	})
}

func (r *stubActorRepo) SoftDelete(_ context.Context, id string, at time.Time) error {
	return r.update(id, func(a *domain.Actor) bool {
		a.Deleted, a.DeletedAt, a.RefreshToken = true, &at, ""
		return true
	})
}

// raw returns the stored record without copying, including deleted ones.
func (r *stubActorRepo) raw(id string) *domain.Actor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.actors[id]
}

type stubRoleRepo struct {
	roles map[string]*domain.Role
}

func newStubRoleRepo(names ...string) *stubRoleRepo {
	r := &stubRoleRepo{roles: make(map[string]*domain.Role)}
	for _, n := range names {
		r.roles["role-"+n] = &domain.Role{ID: "role-" + n, Name: n}
	}
	return r
}

func (r *stubRoleRepo) FindByName(_ context.Context, name string) (*domain.Role, error) {
	for _, role := range r.roles {
		if role.Name == name {
			c := *role
			return &c, nil
		}
	}
	return nil, domain.ErrRoleNotFound
}

func (r *stubRoleRepo) FindByID(_ context.Context, id string) (*domain.Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	c := *role
	return &c, nil
}

func (r *stubRoleRepo) List(_ context.Context) ([]domain.Role, error) {
	out := make([]domain.Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, *role)
	}
	return out, nil
}

func (r *stubRoleRepo) Create(_ context.Context, role *domain.Role) (*domain.Role, error) {
	if _, err := r.FindByName(context.Background(), role.Name); err == nil {
		return nil, domain.ErrRoleExists
	}
	c := *role
	c.ID = "role-" + role.Name
	r.roles[c.ID] = &c
	return &c, nil
}

type stubMailer struct {
	mu   sync.Mutex
	sent []domain.MailMessage
	err  error
}

func (m *stubMailer) Send(_ context.Context, msg domain.MailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *stubMailer) last(t *testing.T) domain.MailMessage {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("expected a mail to be sent")
	}
	return m.sent[len(m.sent)-1]
}

type stubTicketGuard struct {
	mu      sync.Mutex
	claimed map[string]bool
}

func newStubTicketGuard() *stubTicketGuard {
	return &stubTicketGuard{claimed: make(map[string]bool)}
}

func (g *stubTicketGuard) Claim(_ context.Context, id string, _ time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.claimed[id] {
		return domain.ErrActivationTicketUsed
	}
	g.claimed[id] = true
	return nil
}

func (g *stubTicketGuard) Release(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.claimed, id)
	return nil
}

type fixture struct {
	svc     *SessionService
	actors  *stubActorRepo
	roles   *stubRoleRepo
	mailer  *stubMailer
	tickets *stubTicketGuard
	tokens  *token.Issuer
	hasher  *hasher.Bcrypt
}

func descriptor(kind domain.ActorKind) domain.KindDescriptor {
	for _, d := range domain.DefaultKinds() {
		if d.Kind == kind {
			return d
		}
	}
	panic("unknown kind " + kind)
}

func newFixture(t *testing.T, kind domain.ActorKind) *fixture {
	t.Helper()
	tokens, err := token.NewIssuer(token.Secrets{Access: "a", Refresh: "r", Activation: "x"})
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	f := &fixture{
		actors:  newStubActorRepo(),
		roles:   newStubRoleRepo(domain.RoleAdmin, domain.RoleLandlord, domain.RoleTenant),
		mailer:  &stubMailer{},
		tickets: newStubTicketGuard(),
		tokens:  tokens,
		hasher:  hasher.NewBcrypt(bcrypt.MinCost),
	}
	f.svc = NewSessionService(descriptor(kind), SessionDeps{
		Actors:  f.actors,
		Roles:   f.roles,
		Hasher:  f.hasher,
		Tokens:  f.tokens,
		Mailer:  f.mailer,
		Tickets: f.tickets,
		Logger:  zerolog.Nop(),
	})
	return f
}

// seedActor stores an active actor with the given password.
func (f *fixture) seedActor(t *testing.T, email, password, role string) *domain.Actor {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	a := &domain.Actor{
		Kind:         f.svc.Kind(),
		UserName:     "seeded",
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if f.svc.desc.RoleStyle == domain.RoleReference {
		a.RoleID = "role-" + role
	}
	created, err := f.actors.Create(context.Background(), a)
	if err != nil {
		t.Fatalf("seed actor: %v", err)
	}
	return created
}
