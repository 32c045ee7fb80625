package auth

import (
	stderrors "errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// Gate authenticates requests and enforces roles. It reads the access
// credential from the session cookie first and falls back to the
// Authorization bearer header for non-browser clients.
type Gate struct {
	tokens *TokenService
	logger Logger
}

// NewGate creates a Gate over the given token service
func NewGate(tokens *TokenService, logger Logger) *Gate {
	if logger == nil {
		logger = defLogger{}
	}
	return &Gate{tokens: tokens, logger: logger}
}

func (g *Gate) credential(c *fiber.Ctx) string {
	if cookie := c.Cookies(CookieAccess); cookie != "" {
		return cookie
	}

	header := c.Get(fiber.HeaderAuthorization)
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}

	return ""
}

func (g *Gate) verify(c *fiber.Ctx) (*TokenClaims, error) {
	raw := g.credential(c)
	if raw == "" {
		return nil, ErrUnauthorized
	}

	claims, err := g.tokens.VerifyKind(raw, KindAccess)
	if err != nil {
		if stderrors.Is(err, ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		g.logger.Debug("rejected access credential: %v", err)
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// RequireAuth rejects requests without a valid access credential. Expired
// credentials get a distinct code so clients refresh instead of re-login.
func (g *Gate) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := g.verify(c)
		if err != nil {
			return err
		}
		SetClaims(c, claims)
		return c.Next()
	}
}

// OptionalAuth attaches claims when a valid credential is present and
// lets the request through untouched otherwise. Handlers branch on
// ClaimsFromFiber to personalize responses.
func (g *Gate) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if claims, err := g.verify(c); err == nil {
			SetClaims(c, claims)
		}
		return c.Next()
	}
}

// RequireRole rejects authenticated requests whose role is not in roles.
// It must run after RequireAuth; a request without claims is rejected.
func (g *Gate) RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFromFiber(c)
		if !ok {
			return ErrUnauthorized
		}

		for _, role := range roles {
			if claims.Role() == role {
				return c.Next()
			}
		}

		g.logger.Debug("role %q denied, requires one of %v", claims.Role(), roles)

		return errors.New("insufficient permissions for this action", errors.CategoryAuthz).
			WithTextCode(TextCodeForbidden).
			WithCode(errors.CodeForbidden).
			WithMetadata(map[string]any{
				"requiredRoles": roles,
				"userRole":      claims.Role(),
			})
	}
}
