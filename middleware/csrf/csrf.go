// Package csrf implements double-submit CSRF protection. A random token
// lives in a script-readable cookie and must be echoed back in a request
// header on every mutating request; a forged cross-site request cannot
// read the cookie, so it cannot supply the header.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"

	"github.com/croplog/croplog/auth"
)

// DefaultHeaderName is the request header carrying the double-submit token
const DefaultHeaderName = "X-CSRF-Token"

// DefaultTokenLength is the random token size in bytes before hex encoding
const DefaultTokenLength = 32

// Text codes surfaced on guard rejections
const (
	TextCodeTokenMissing  = "CSRF_TOKEN_MISSING"
	TextCodeCookieMissing = "CSRF_COOKIE_MISSING"
	TextCodeTokenInvalid  = "CSRF_TOKEN_INVALID"
)

// ErrTokenMissing means the request carried no token header
var ErrTokenMissing = errors.New("CSRF token missing", errors.CategoryAuthz).
	WithTextCode(TextCodeTokenMissing).
	WithCode(errors.CodeForbidden)

// ErrCookieMissing means a header arrived without its cookie
var ErrCookieMissing = errors.New("CSRF cookie missing", errors.CategoryAuthz).
	WithTextCode(TextCodeCookieMissing).
	WithCode(errors.CodeForbidden)

// ErrTokenInvalid means cookie and header did not match
var ErrTokenInvalid = errors.New("CSRF token invalid", errors.CategoryAuthz).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeForbidden)

// Config defines the configuration for the CSRF guard
type Config struct {
	// CookieName defaults to the session CSRF cookie name
	CookieName string

	// HeaderName defaults to DefaultHeaderName
	HeaderName string

	// TokenLength defaults to DefaultTokenLength
	TokenLength int

	// Cookies supplies the cookie attributes so issue, validate, and
	// clear all agree with the rest of the session cookies. Required.
	Cookies *auth.CookiePolicy

	Logger auth.Logger
}

// Guard issues and validates double-submit tokens
type Guard struct {
	cfg Config
}

// New creates a Guard. Cookies must be set; everything else has defaults.
func New(config ...Config) *Guard {
	cfg := configDefault(config...)
	return &Guard{cfg: cfg}
}

func configDefault(config ...Config) Config {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.CookieName == "" {
		cfg.CookieName = auth.CookieCSRF
	}

	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultHeaderName
	}

	if cfg.TokenLength == 0 {
		cfg.TokenLength = DefaultTokenLength
	}

	if cfg.Logger == nil {
		cfg.Logger = auth.NopLogger()
	}

	return cfg
}

// GenerateToken returns a cryptographically random hex token
func GenerateToken(length int) (string, error) {
	if length <= 0 {
		length = DefaultTokenLength
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate CSRF token").
			WithCode(errors.CodeInternal)
	}
	return hex.EncodeToString(buf), nil
}

// Issue seeds the token cookie on safe requests that do not carry one
// and mirrors the value in the response header so clients can pick it
// up. Mutating requests are left to Protect; minting a fresh token there
// would race the header-only fallback and desync the pairing.
func (g *Guard) Issue() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
		default:
			return c.Next()
		}

		if c.Cookies(g.cfg.CookieName) == "" {
			token, err := GenerateToken(g.cfg.TokenLength)
			if err != nil {
				return err
			}
			g.cfg.Cookies.Set(c, auth.KindCSRFCookie, token)
			c.Set(g.cfg.HeaderName, token)
		}
		return c.Next()
	}
}

// Protect rejects mutating requests whose header token does not match
// the cookie. Safe methods pass through untouched.
//
// Browsers in strict privacy modes sometimes drop the cookie while the
// page still holds the token; a header-only request is accepted and the
// cookie re-seeded from it, which restores the double-submit pairing
// without granting a forger anything it could not already send.
func (g *Guard) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		cookie := c.Cookies(g.cfg.CookieName)
		header := c.Get(g.cfg.HeaderName)

		if cookie == "" && header != "" {
			g.cfg.Cookies.Set(c, auth.KindCSRFCookie, header)
			return c.Next()
		}

		if header == "" {
			return ErrTokenMissing
		}

		if cookie == "" {
			return ErrCookieMissing
		}

		if subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) != 1 {
			g.cfg.Logger.Debug("CSRF token mismatch on %s %s", c.Method(), c.Path())
			return ErrTokenInvalid
		}

		return c.Next()
	}
}

// TokenHandler serves the token endpoint. It returns the current token,
// minting one when the request has no cookie, and mirrors it in the
// response header.
func (g *Guard) TokenHandler(c *fiber.Ctx) error {
	token := c.Cookies(g.cfg.CookieName)
	if token == "" {
		fresh, err := GenerateToken(g.cfg.TokenLength)
		if err != nil {
			return err
		}
		token = fresh
		g.cfg.Cookies.Set(c, auth.KindCSRFCookie, token)
	}

	c.Set(g.cfg.HeaderName, token)

	return c.JSON(fiber.Map{
		"csrfToken": token,
	})
}
