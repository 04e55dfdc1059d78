package domain

import (
	"strings"
	"time"
)

// ActorKind identifies which credential collection an actor lives in.
type ActorKind string

const (
	KindUser     ActorKind = "user"
	KindLandlord ActorKind = "landlord"
	KindTenant   ActorKind = "tenant"
	KindAdmin    ActorKind = "admin"
)

// ParseActorKind accepts both singular and plural forms ("landlord", "landlords").
func ParseActorKind(s string) (ActorKind, bool) {
	k := ActorKind(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s"))
	switch k {
	case KindUser, KindLandlord, KindTenant, KindAdmin:
		return k, true
	}
	return "", false
}

// RoleStyle describes how an actor record carries its role.
type RoleStyle int

const (
	// RoleReference actors store the id of a document in the roles collection.
	RoleReference RoleStyle = iota
	// RoleEmbedded actors store the role name directly on the record.
	RoleEmbedded
)

// KindDescriptor carries everything that differs between actor kinds.
type KindDescriptor struct {
	Kind          ActorKind
	Collection    string
	RoleStyle     RoleStyle
	EmbeddedRole  string // only for RoleEmbedded
	FederatedRole string // role given to actors created by federated sign-in
	CodeDigits    int
	AccessTTL     time.Duration
}

// DefaultKinds returns the descriptors for the four actor kinds.
func DefaultKinds() []KindDescriptor {
	return []KindDescriptor{
		{Kind: KindUser, Collection: "users", RoleStyle: RoleReference, FederatedRole: RoleLandlord, CodeDigits: 6, AccessTTL: 15 * time.Minute},
		{Kind: KindLandlord, Collection: "landlords", RoleStyle: RoleEmbedded, EmbeddedRole: RoleLandlord, FederatedRole: RoleLandlord, CodeDigits: 4, AccessTTL: 10 * time.Minute},
		{Kind: KindTenant, Collection: "tenants", RoleStyle: RoleEmbedded, EmbeddedRole: RoleTenant, FederatedRole: RoleTenant, CodeDigits: 4, AccessTTL: 10 * time.Minute},
		{Kind: KindAdmin, Collection: "admins", RoleStyle: RoleEmbedded, EmbeddedRole: RoleAdmin, FederatedRole: RoleAdmin, CodeDigits: 4, AccessTTL: 2 * time.Minute},
	}
}

// Actor is an authenticable identity of any kind.
type Actor struct {
	ID            string            `json:"id"`
	Kind          ActorKind         `json:"kind"`
	UserName      string            `json:"userName"`
	Email         string            `json:"email"`
	PasswordHash  string            `json:"-"`
	Role          string            `json:"role"`
	RoleID        string            `json:"roleId,omitempty"`
	Avatar        string            `json:"avatar,omitempty"`
	ExternalIDs   map[string]string `json:"-"`
	TermsAccepted bool              `json:"termsAndConditionsAccepted"`
	Disabled      bool              `json:"disabled"`

	RefreshToken         string    `json:"-"`
	PasswordResetToken   string    `json:"-"`
	PasswordResetExpires time.Time `json:"-"`

	Deleted   bool       `json:"-"`
	DeletedAt *time.Time `json:"-"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Identity is what an access or refresh token proves about its bearer.
type Identity struct {
	ID       string
	Kind     ActorKind
	IssuedAt time.Time
}

// Registration is the pending account embedded in an activation ticket.
type Registration struct {
	Kind          ActorKind
	UserName      string
	Email         string
	PasswordHash  string
	TermsAccepted bool
}

// ActivationTicket is a verified activation token.
type ActivationTicket struct {
	ID           string
	Registration Registration
	CodeDigest   string
	ExpiresAt    time.Time
}

// ExternalIdentity is the profile an identity provider vouches for.
type ExternalIdentity struct {
	Provider string
	Subject  string
	Email    string
	Name     string
	Avatar   string
}

// NormalizeEmail trims and lower-cases an address before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
