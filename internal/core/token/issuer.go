// Package token issues and verifies the HS256 tokens used for sessions and
// account activation. Each family has its own secret and audience so a token
// of one family never verifies as another.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/propertyhub/rental-api/internal/core/domain"
)

const (
	RefreshTTL    = 7 * 24 * time.Hour
	ActivationTTL = 5 * time.Minute

	audienceAccess     = "access"
	audienceRefresh    = "refresh"
	audienceActivation = "activation"
	issuerName         = "rental-api"
)

// ErrSigningKey is returned by NewIssuer when a secret is missing.
var ErrSigningKey = errors.New("token: signing secret must not be empty")

type Secrets struct {
	Access     string
	Refresh    string
	Activation string
}

// SessionClaims is the payload of access and refresh tokens.
type SessionClaims struct {
	ActorID string           `json:"id"`
	Kind    domain.ActorKind `json:"kind"`
	jwt.RegisteredClaims
}

// ActivationClaims is the payload of an activation ticket. The password is
// carried as its bcrypt hash and the code as an HMAC digest since JWT payloads
// are readable by whoever holds the ticket.
type ActivationClaims struct {
	Kind          domain.ActorKind `json:"kind"`
	UserName      string           `json:"userName"`
	Email         string           `json:"email"`
	PasswordHash  string           `json:"passwordHash"`
	TermsAccepted bool             `json:"termsAccepted"`
	CodeDigest    string           `json:"code"`
	jwt.RegisteredClaims
}

type Issuer struct {
	access     []byte
	refresh    []byte
	activation []byte
	now        func() time.Time
}

func NewIssuer(s Secrets) (*Issuer, error) {
	if s.Access == "" || s.Refresh == "" || s.Activation == "" {
		return nil, ErrSigningKey
	}
	return &Issuer{
		access:     []byte(s.Access),
		refresh:    []byte(s.Refresh),
		activation: []byte(s.Activation),
		now:        time.Now,
	}, nil
}

// WithClock replaces the time source. Used by tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) IssueAccessToken(id string, kind domain.ActorKind, ttl time.Duration) (string, error) {
	return i.sign(i.access, SessionClaims{
		ActorID:          id,
		Kind:             kind,
		RegisteredClaims: i.registered(audienceAccess, ttl, ""),
	})
}

// IssueRefreshToken carries a jti so two tokens minted in the same second differ.
func (i *Issuer) IssueRefreshToken(id string, kind domain.ActorKind) (string, error) {
	return i.sign(i.refresh, SessionClaims{
		ActorID:          id,
		Kind:             kind,
		RegisteredClaims: i.registered(audienceRefresh, RefreshTTL, uuid.NewString()),
	})
}

func (i *Issuer) VerifyAccess(token string) (*domain.Identity, error) {
	return i.verifySession(token, i.access, audienceAccess)
}

func (i *Issuer) VerifyRefresh(token string) (*domain.Identity, error) {
	return i.verifySession(token, i.refresh, audienceRefresh)
}

func (i *Issuer) IssueActivationTicket(reg domain.Registration, code string) (string, error) {
	jti := uuid.NewString()
	return i.sign(i.activation, ActivationClaims{
		Kind:             reg.Kind,
		UserName:         reg.UserName,
		Email:            reg.Email,
		PasswordHash:     reg.PasswordHash,
		TermsAccepted:    reg.TermsAccepted,
		CodeDigest:       i.codeDigest(jti, code),
		RegisteredClaims: i.registered(audienceActivation, ActivationTTL, jti),
	})
}

func (i *Issuer) VerifyActivationTicket(ticket string) (*domain.ActivationTicket, error) {
	var claims ActivationClaims
	if _, err := i.parse(ticket, &claims, i.activation, audienceActivation); err != nil {
		return nil, err
	}
	if claims.ID == "" || claims.Email == "" || claims.CodeDigest == "" {
		return nil, domain.ErrTokenInvalid
	}
	t := &domain.ActivationTicket{
		ID: claims.ID,
		Registration: domain.Registration{
			Kind:          claims.Kind,
			UserName:      claims.UserName,
			Email:         claims.Email,
			PasswordHash:  claims.PasswordHash,
			TermsAccepted: claims.TermsAccepted,
		},
		CodeDigest: claims.CodeDigest,
	}
	if claims.ExpiresAt != nil {
		t.ExpiresAt = claims.ExpiresAt.Time
	}
	return t, nil
}

func (i *Issuer) CodeMatches(t *domain.ActivationTicket, code string) bool {
	if t == nil || code == "" {
		return false
	}
	return hmac.Equal([]byte(t.CodeDigest), []byte(i.codeDigest(t.ID, code)))
}

func (i *Issuer) codeDigest(jti, code string) string {
	mac := hmac.New(sha256.New, i.activation)
	mac.Write([]byte(jti))
	mac.Write([]byte{0})
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}

func (i *Issuer) verifySession(token string, key []byte, aud string) (*domain.Identity, error) {
	var claims SessionClaims
	_, err := i.parse(token, &claims, key, aud)
	if err != nil && !errors.Is(err, domain.ErrTokenExpired) {
		return nil, err
	}
	if claims.ActorID == "" || claims.Kind == "" {
		return nil, domain.ErrTokenInvalid
	}
	id := &domain.Identity{ID: claims.ActorID, Kind: claims.Kind}
	if claims.IssuedAt != nil {
		id.IssuedAt = claims.IssuedAt.Time
	}
	// Signature is checked before expiry, so an expired token still yields a
	// trustworthy identity for the silent refresh path.
	return id, err
}

func (i *Issuer) parse(raw string, claims jwt.Claims, key []byte, aud string) (*jwt.Token, error) {
	if raw == "" {
		return nil, domain.ErrTokenInvalid
	}
	tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(aud),
		jwt.WithIssuer(issuerName),
		jwt.WithTimeFunc(i.now),
	)
	switch {
	case err == nil:
		return tok, nil
	case errors.Is(err, jwt.ErrTokenExpired) && expiredOnly(err):
		return tok, domain.ErrTokenExpired
	default:
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}
}

// expiredOnly reports whether expiry is the sole reason validation failed.
func expiredOnly(err error) bool {
	for _, other := range []error{
		jwt.ErrTokenSignatureInvalid,
		jwt.ErrTokenMalformed,
		jwt.ErrTokenUnverifiable,
		jwt.ErrTokenInvalidAudience,
		jwt.ErrTokenInvalidIssuer,
		jwt.ErrTokenNotValidYet,
		jwt.ErrTokenUsedBeforeIssued,
	} {
		if errors.Is(err, other) {
			return false
		}
	}
	return true
}

func (i *Issuer) registered(aud string, ttl time.Duration, jti string) jwt.RegisteredClaims {
	now := i.now()
	return jwt.RegisteredClaims{
		Issuer:    issuerName,
		Audience:  jwt.ClaimStrings{aud},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        jti,
	}
}

func (i *Issuer) sign(key []byte, claims jwt.Claims) (string, error) {
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}
