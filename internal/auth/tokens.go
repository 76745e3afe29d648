package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for any token that fails verification:
// malformed, bad signature, or expired. Callers must not distinguish
// between these cases.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the verified payload of a session token. A Claims value must
// never be trusted unless it came from TokenProvider.Verify.
type Claims struct {
	jwt.RegisteredClaims
	Name    string    `json:"name"`
	Role    Role      `json:"role"`
	OrgID   uuid.UUID `json:"org_id"`
	OrgSlug string    `json:"org_slug,omitempty"`
}

// StaffID parses the subject claim as the staff member's UUID.
func (c *Claims) StaffID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TokenProvider issues and verifies HS256 session tokens with a symmetric
// secret. The secret is injected once at construction; there is no ambient
// configuration state, so the provider is safe for concurrent use.
type TokenProvider struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// DefaultTokenTTL is the session token lifetime when none is configured.
const DefaultTokenTTL = 7 * 24 * time.Hour

// NewTokenProvider returns a TokenProvider signing with secret. issuer is set
// on the iss claim and checked on verify. ttl <= 0 falls back to DefaultTokenTTL.
func NewTokenProvider(secret []byte, issuer string, ttl time.Duration) *TokenProvider {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenProvider{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a session token for the given staff member. The token is
// self-contained and stateless: there is no server-side session record and
// no revocation before natural expiry.
func (p *TokenProvider) Issue(staffID uuid.UUID, name string, role Role, orgID uuid.UUID, orgSlug string) (token string, expiresAt time.Time, err error) {
	now := p.now().UTC()
	expiresAt = now.Add(p.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   staffID.String(),
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Name:    name,
		Role:    role,
		OrgID:   orgID,
		OrgSlug: orgSlug,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = t.SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify parses tokenString, checks the HMAC signature, expiry, and issuer,
// and returns the claims. All failures collapse into ErrInvalidToken so that
// responses do not leak which check failed. Verify never panics on malformed
// input.
func (p *TokenProvider) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if p.issuer != "" && claims.Issuer != p.issuer {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
