package auth

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"

	"github.com/croplog/croplog/model"
)

// IdentityStore is the persistence surface the session manager needs.
// repository.Users satisfies it.
type IdentityStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// FindByEmailAny also matches soft-deleted rows. Registration checks
	// against it so a deleted account's email stays reserved.
	FindByEmailAny(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	Create(ctx context.Context, user *model.User) (*model.User, error)
	Update(ctx context.Context, user *model.User) (*model.User, error)
	CountPlantings(ctx context.Context, userID uuid.UUID) (int, error)
}

// TokenPair is a freshly minted access/refresh credential pair
type TokenPair struct {
	Access  string
	Refresh string
}

// SessionManager implements the account lifecycle: register, login,
// refresh, profile reads and updates, password changes. It owns no HTTP
// concerns; the controller layer maps its results to cookies and JSON.
type SessionManager struct {
	store  IdentityStore
	tokens *TokenService
	logger Logger
}

// NewSessionManager wires a SessionManager
func NewSessionManager(store IdentityStore, tokens *TokenService, logger Logger) *SessionManager {
	if logger == nil {
		logger = defLogger{}
	}
	return &SessionManager{store: store, tokens: tokens, logger: logger}
}

// NormalizeEmail lowercases and trims an email address. All lookups and
// writes go through this so case variants collapse to one identity.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterInput carries the validated fields of a registration request
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// Register creates a new identity with the default role and returns it
// with a credential pair, logging the user in immediately.
func (m *SessionManager) Register(ctx context.Context, input RegisterInput) (*model.User, TokenPair, error) {
	email := NormalizeEmail(input.Email)

	existing, err := m.store.FindByEmailAny(ctx, email)
	if err != nil && !errors.IsNotFound(err) {
		return nil, TokenPair{}, err
	}
	if existing != nil {
		return nil, TokenPair{}, ErrDuplicateIdentity
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, TokenPair{}, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(input.Name),
		Role:         model.RoleGrower,
	}
	if id, err := hashid.NewUUID(email); err == nil {
		user.ID = id
	} else {
		user.ID = uuid.New()
	}

	user, err = m.store.Create(ctx, user)
	if err != nil {
		return nil, TokenPair{}, errors.Wrap(err, errors.CategoryConflict, "could not create user").
			WithCode(errors.CodeConflict)
	}

	pair, err := m.issuePair(user)
	if err != nil {
		return nil, TokenPair{}, err
	}

	m.logger.Info("registered user %s", user.ID)

	return user, pair, nil
}

// Login verifies credentials and mints a pair. Unknown email and wrong
// password return the identical error so responses never leak which
// emails have accounts.
func (m *SessionManager) Login(ctx context.Context, email, password string) (*model.User, TokenPair, error) {
	user, err := m.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, err
	}

	if !VerifyPassword(user.PasswordHash, password) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	pair, err := m.issuePair(user)
	if err != nil {
		return nil, TokenPair{}, err
	}

	return user, pair, nil
}

// Refresh validates a refresh credential and mints a fresh pair. The
// role is read from the store, not the old token, so role changes take
// effect at the next refresh.
func (m *SessionManager) Refresh(ctx context.Context, rawRefresh string) (*model.User, TokenPair, error) {
	if rawRefresh == "" {
		return nil, TokenPair{}, ErrMissingRefreshToken
	}

	claims, err := m.tokens.VerifyKind(rawRefresh, KindRefresh)
	if err != nil {
		return nil, TokenPair{}, err
	}

	user, err := m.findSubject(ctx, claims)
	if err != nil {
		return nil, TokenPair{}, err
	}

	pair, err := m.issuePair(user)
	if err != nil {
		return nil, TokenPair{}, err
	}

	return user, pair, nil
}

// CurrentIdentity resolves verified claims to a profile with the
// planting count included.
func (m *SessionManager) CurrentIdentity(ctx context.Context, claims *TokenClaims) (*model.Profile, error) {
	user, err := m.findSubject(ctx, claims)
	if err != nil {
		return nil, err
	}

	profile := user.Profile()
	if count, err := m.store.CountPlantings(ctx, user.ID); err == nil {
		profile.PlantingsCount = &count
	} else {
		m.logger.Error("failed to count plantings for %s: %v", user.ID, err)
	}

	return &profile, nil
}

// ProfileInput carries the updatable profile fields
type ProfileInput struct {
	Name  string
	Email string
}

// UpdateProfile changes name and/or email. An email change invalidates
// the email claim baked into the access credential, so a new pair is
// returned; its presence tells the controller to reset cookies.
func (m *SessionManager) UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*model.User, *TokenPair, error) {
	user, err := m.store.FindByID(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil, ErrIdentityNotFound
		}
		return nil, nil, err
	}

	emailChanged := false
	if input.Email != "" {
		email := NormalizeEmail(input.Email)
		if email != user.Email {
			taken, err := m.store.FindByEmail(ctx, email)
			if err != nil && !errors.IsNotFound(err) {
				return nil, nil, err
			}
			if taken != nil {
				return nil, nil, ErrDuplicateIdentity
			}
			user.Email = email
			emailChanged = true
		}
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		user.Name = name
	}

	user, err = m.store.Update(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	if !emailChanged {
		return user, nil, nil
	}

	pair, err := m.issuePair(user)
	if err != nil {
		return nil, nil, err
	}

	return user, &pair, nil
}

// ChangePassword verifies the current password before storing the new
// hash. Existing credentials stay valid until they expire.
func (m *SessionManager) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := m.store.FindByID(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return ErrIdentityNotFound
		}
		return err
	}

	if !VerifyPassword(user.PasswordHash, current) {
		return ErrPasswordMismatch
	}

	hash, err := HashPassword(next)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	if _, err := m.store.Update(ctx, user); err != nil {
		return err
	}

	m.logger.Info("password changed for user %s", user.ID)

	return nil
}

func (m *SessionManager) findSubject(ctx context.Context, claims *TokenClaims) (*model.User, error) {
	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return nil, ErrTokenInvalid
	}

	user, err := m.store.FindByID(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	return user, nil
}

func (m *SessionManager) issuePair(user *model.User) (TokenPair, error) {
	access, err := m.tokens.IssueAccess(user.ID.String(), user.Email, string(user.Role))
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := m.tokens.IssueRefresh(user.ID.String())
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{Access: access, Refresh: refresh}, nil
}
