package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind discriminates access from refresh credentials. A refresh flow
// never accepts an access token and relies on this tag, not on the caller's
// good intentions.
type TokenKind = string

const (
	// KindAccess marks short-lived credentials carrying identity and role
	KindAccess TokenKind = "access"
	// KindRefresh marks long-lived credentials used only to mint new pairs
	KindRefresh TokenKind = "refresh"
)

// TokenClaims is the signed claim set carried by both credential kinds.
// Refresh credentials leave Email and UserRole empty; role is re-fetched
// from the store at refresh time so role changes take effect.
type TokenClaims struct {
	jwt.RegisteredClaims
	UID      string    `json:"uid,omitempty"`
	Email    string    `json:"email,omitempty"`
	UserRole string    `json:"role,omitempty"`
	Kind     TokenKind `json:"knd,omitempty"`
}

// Subject returns the subject claim
func (c *TokenClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user id, falling back to the subject claim
func (c *TokenClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Role returns the role embedded at issuance time
func (c *TokenClaims) Role() string {
	return c.UserRole
}

// IsRefresh reports whether the claim set is a refresh credential
func (c *TokenClaims) IsRefresh() bool {
	return c.Kind == KindRefresh
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *TokenClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
