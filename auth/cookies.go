package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Cookie names are part of the public contract with browser clients and
// with the CSRF guard; renaming any of them is a breaking change.
const (
	CookieAccess  = "token"
	CookieRefresh = "refreshToken"
	CookieCSRF    = "csrf-token"
)

// CookieKind selects the attribute profile for a session cookie
type CookieKind int

const (
	// KindAccessCookie holds the short-lived access credential
	KindAccessCookie CookieKind = iota
	// KindRefreshCookie holds the long-lived refresh credential
	KindRefreshCookie
	// KindCSRFCookie holds the double-submit token, readable by scripts
	KindCSRFCookie
)

// CookiePolicy centralizes cookie attributes so set and clear always agree.
// Browsers match cookies on name+path+attributes; a clear that differs from
// the set leaves the stale cookie in place.
type CookiePolicy struct {
	production bool
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCookiePolicy builds a policy for the given environment and TTLs
func NewCookiePolicy(production bool, accessTTL, refreshTTL time.Duration) *CookiePolicy {
	if accessTTL <= 0 {
		accessTTL = maxAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = maxRefreshTTL
	}
	return &CookiePolicy{
		production: production,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (p *CookiePolicy) name(kind CookieKind) string {
	switch kind {
	case KindRefreshCookie:
		return CookieRefresh
	case KindCSRFCookie:
		return CookieCSRF
	default:
		return CookieAccess
	}
}

func (p *CookiePolicy) maxAge(kind CookieKind) time.Duration {
	if kind == KindRefreshCookie {
		return p.refreshTTL
	}
	// CSRF tokens rotate with the access credential
	return p.accessTTL
}

func (p *CookiePolicy) cookie(kind CookieKind, value string) *fiber.Cookie {
	sameSite := fiber.CookieSameSiteLaxMode
	if p.production {
		// cross-site frontend deployments need None, which requires Secure
		sameSite = fiber.CookieSameSiteNoneMode
	}

	return &fiber.Cookie{
		Name:     p.name(kind),
		Value:    value,
		Path:     "/",
		MaxAge:   int(p.maxAge(kind).Seconds()),
		Secure:   p.production,
		HTTPOnly: kind != KindCSRFCookie,
		SameSite: sameSite,
	}
}

// Set writes the cookie for kind with the policy's attributes
func (p *CookiePolicy) Set(c *fiber.Ctx, kind CookieKind, value string) {
	c.Cookie(p.cookie(kind, value))
}

// Clear expires the cookie for kind using the same attributes it was set
// with, so the browser actually drops it.
func (p *CookiePolicy) Clear(c *fiber.Ctx, kind CookieKind) {
	cookie := p.cookie(kind, "")
	cookie.MaxAge = -1
	cookie.Expires = time.Now().Add(-time.Hour)
	c.Cookie(cookie)
}

// ClearSession expires the credential cookies. The CSRF cookie stays;
// its pairing is not tied to an identity and survives into the next
// login.
func (p *CookiePolicy) ClearSession(c *fiber.Ctx) {
	p.Clear(c, KindAccessCookie)
	p.Clear(c, KindRefreshCookie)
}
