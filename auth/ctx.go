package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

type contextKey string

const claimsContextKey contextKey = "auth:claims"

// ClaimsLocalKey is where the gate stores verified claims on the request
const ClaimsLocalKey = "claims"

// WithClaimsContext returns a context carrying verified claims
func WithClaimsContext(ctx context.Context, claims *TokenClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext retrieves claims stored by WithClaimsContext
func ClaimsFromContext(ctx context.Context) (*TokenClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*TokenClaims)
	return claims, ok
}

// SetClaims stores verified claims on the request, both in fiber locals
// and in the user context so code below the handler layer can read them.
func SetClaims(c *fiber.Ctx, claims *TokenClaims) {
	c.Locals(ClaimsLocalKey, claims)
	c.SetUserContext(WithClaimsContext(c.UserContext(), claims))
}

// ClaimsFromFiber retrieves claims stored by the gate, if any
func ClaimsFromFiber(c *fiber.Ctx) (*TokenClaims, bool) {
	claims, ok := c.Locals(ClaimsLocalKey).(*TokenClaims)
	return claims, ok
}
