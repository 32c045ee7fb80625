package auth

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenConfig carries the immutable inputs of a TokenService. TTLs are
// clamped at construction; a misconfigured environment can shorten token
// life but never extend it past the hard ceilings.
type TokenConfig struct {
	SigningKey []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenService mints and verifies signed credentials. It is safe for
// concurrent use; all state is set at construction.
type TokenService struct {
	signingKey []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService creates a TokenService from cfg. TTLs that are zero,
// negative, or above the hard ceilings fall back to the ceiling values.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, errors.New("token service requires a signing key", errors.CategoryBadInput).
			WithTextCode("INVALID_SIGNING_KEY").
			WithCode(errors.CodeBadRequest)
	}

	access := cfg.AccessTTL
	if access <= 0 || access > maxAccessTTL {
		access = maxAccessTTL
	}

	refresh := cfg.RefreshTTL
	if refresh <= 0 || refresh > maxRefreshTTL {
		refresh = maxRefreshTTL
	}

	return &TokenService{
		signingKey: cfg.SigningKey,
		issuer:     cfg.Issuer,
		accessTTL:  access,
		refreshTTL: refresh,
		now:        time.Now,
	}, nil
}

const (
	maxAccessTTL  = 24 * time.Hour
	maxRefreshTTL = 7 * 24 * time.Hour
)

// AccessTTL returns the effective access credential lifetime
func (s *TokenService) AccessTTL() time.Duration {
	return s.accessTTL
}

// RefreshTTL returns the effective refresh credential lifetime
func (s *TokenService) RefreshTTL() time.Duration {
	return s.refreshTTL
}

// IssueAccess mints a short-lived credential carrying identity and role
func (s *TokenService) IssueAccess(subjectID, email, role string) (string, error) {
	return s.sign(&TokenClaims{
		RegisteredClaims: s.registered(subjectID, s.accessTTL),
		UID:              subjectID,
		Email:            email,
		UserRole:         role,
		Kind:             KindAccess,
	})
}

// IssueRefresh mints a long-lived credential carrying only the subject id.
// Role is deliberately omitted; the refresh flow re-reads it from the store.
func (s *TokenService) IssueRefresh(subjectID string) (string, error) {
	return s.sign(&TokenClaims{
		RegisteredClaims: s.registered(subjectID, s.refreshTTL),
		UID:              subjectID,
		Kind:             KindRefresh,
	})
}

func (s *TokenService) registered(subjectID string, ttl time.Duration) jwt.RegisteredClaims {
	now := s.now()
	return jwt.RegisteredClaims{
		Subject:   subjectID,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (s *TokenService) sign(claims *TokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign token").
			WithTextCode("TOKEN_SIGNING_FAILED").
			WithCode(errors.CodeInternal)
	}
	return signed, nil
}

// Verify parses and validates a signed credential. Expired credentials
// return ErrTokenExpired so callers can distinguish stale from forged.
func (s *TokenService) Verify(raw string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, s.keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, errors.CategoryAuth, "invalid token").
			WithTextCode(TextCodeTokenInvalid).
			WithCode(errors.CodeUnauthorized)
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// VerifyKind verifies raw and additionally enforces the credential kind
func (s *TokenService) VerifyKind(raw string, kind TokenKind) (*TokenClaims, error) {
	claims, err := s.Verify(raw)
	if err != nil {
		return nil, err
	}

	if claims.Kind != kind {
		return nil, errors.New(
			fmt.Sprintf("expected %s token", kind),
			errors.CategoryAuth,
		).WithTextCode(TextCodeTokenInvalid).WithCode(errors.CodeUnauthorized)
	}

	return claims, nil
}

func (s *TokenService) keyfunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return s.signingKey, nil
}
