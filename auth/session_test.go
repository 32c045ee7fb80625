package auth_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/croplog/croplog/auth"
	"github.com/croplog/croplog/model"
)

// MockIdentityStore implements auth.IdentityStore for testing
type MockIdentityStore struct {
	mock.Mock
}

func (m *MockIdentityStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityStore) FindByEmailAny(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityStore) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityStore) Create(ctx context.Context, user *model.User) (*model.User, error) {
	args := m.Called(ctx, user)
	return userResult(ctx, user, args)
}

func (m *MockIdentityStore) Update(ctx context.Context, user *model.User) (*model.User, error) {
	args := m.Called(ctx, user)
	return userResult(ctx, user, args)
}

// userResult lets expectations either return a fixed user or echo the input
func userResult(ctx context.Context, in *model.User, args mock.Arguments) (*model.User, error) {
	switch v := args.Get(0).(type) {
	case *model.User:
		return v, args.Error(1)
	case func(context.Context, *model.User) *model.User:
		return v(ctx, in), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityStore) CountPlantings(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func notFoundErr() error {
	return goerrors.New("record not found", goerrors.CategoryNotFound).
		WithCode(goerrors.CodeNotFound)
}

func testUser(t *testing.T, email, password, role string) *model.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return &model.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         "Test Grower",
		Role:         role,
	}
}

func newSessionManager(t *testing.T) (*auth.SessionManager, *MockIdentityStore, *auth.TokenService) {
	t.Helper()
	store := &MockIdentityStore{}
	tokens := newTestTokenService(t)
	return auth.NewSessionManager(store, tokens, auth.NopLogger()), store, tokens
}

func TestSessionManager_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates identity and logs it in", func(t *testing.T) {
		sessions, store, tokens := newSessionManager(t)

		store.On("FindByEmailAny", mock.Anything, "new@example.com").Return(nil, notFoundErr())
		store.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).
			Return(func(_ context.Context, u *model.User) *model.User { return u }, nil)

		user, pair, err := sessions.Register(ctx, auth.RegisterInput{
			Email:    "  NEW@Example.com ",
			Password: "Sunflower1",
			Name:     "New Grower",
		})
		require.NoError(t, err)

		assert.Equal(t, "new@example.com", user.Email)
		assert.Equal(t, model.RoleGrower, user.Role)
		assert.NotEqual(t, "Sunflower1", user.PasswordHash)
		assert.True(t, auth.VerifyPassword(user.PasswordHash, "Sunflower1"))

		claims, err := tokens.VerifyKind(pair.Access, auth.KindAccess)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.UserID())
		assert.Equal(t, "new@example.com", claims.Email)

		_, err = tokens.VerifyKind(pair.Refresh, auth.KindRefresh)
		assert.NoError(t, err)

		store.AssertExpectations(t)
	})

	t.Run("rejects duplicate email, soft-deleted included", func(t *testing.T) {
		sessions, store, _ := newSessionManager(t)

		existing := testUser(t, "taken@example.com", "Sunflower1", model.RoleGrower)
		store.On("FindByEmailAny", mock.Anything, "taken@example.com").Return(existing, nil)

		_, _, err := sessions.Register(ctx, auth.RegisterInput{
			Email:    "taken@example.com",
			Password: "Sunflower1",
			Name:     "Someone",
		})
		assert.ErrorIs(t, err, auth.ErrDuplicateIdentity)

		store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestSessionManager_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials produce a verifiable pair", func(t *testing.T) {
		sessions, store, tokens := newSessionManager(t)

		user := testUser(t, "grower@example.com", "Sunflower1", model.RoleGrower)
		store.On("FindByEmail", mock.Anything, "grower@example.com").Return(user, nil)

		got, pair, err := sessions.Login(ctx, "Grower@Example.COM", "Sunflower1")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		claims, err := tokens.VerifyKind(pair.Access, auth.KindAccess)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.UserID())
		assert.Equal(t, model.RoleGrower, claims.Role())
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		sessions, store, _ := newSessionManager(t)

		user := testUser(t, "grower@example.com", "Sunflower1", model.RoleGrower)
		store.On("FindByEmail", mock.Anything, "grower@example.com").Return(user, nil)
		store.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, notFoundErr())

		_, _, wrongPassword := sessions.Login(ctx, "grower@example.com", "WrongPass1")
		_, _, unknownEmail := sessions.Login(ctx, "nobody@example.com", "Sunflower1")

		require.Error(t, wrongPassword)
		require.Error(t, unknownEmail)
		assert.Equal(t, wrongPassword, unknownEmail)
		assert.ErrorIs(t, wrongPassword, auth.ErrInvalidCredentials)
	})
}

func TestSessionManager_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("reflects the current role, not the role at login", func(t *testing.T) {
		sessions, store, tokens := newSessionManager(t)

		user := testUser(t, "grower@example.com", "Sunflower1", model.RoleGrower)
		store.On("FindByEmail", mock.Anything, "grower@example.com").Return(user, nil)

		_, pair, err := sessions.Login(ctx, "grower@example.com", "Sunflower1")
		require.NoError(t, err)

		// role changed in the store after login
		promoted := *user
		promoted.Role = model.RoleAdmin
		store.On("FindByID", mock.Anything, user.ID).Return(&promoted, nil)

		_, fresh, err := sessions.Refresh(ctx, pair.Refresh)
		require.NoError(t, err)

		claims, err := tokens.VerifyKind(fresh.Access, auth.KindAccess)
		require.NoError(t, err)
		assert.Equal(t, model.RoleAdmin, claims.Role())
	})

	t.Run("rejects an access token", func(t *testing.T) {
		sessions, _, tokens := newSessionManager(t)

		access, err := tokens.IssueAccess(uuid.NewString(), "a@b.c", model.RoleGrower)
		require.NoError(t, err)

		_, _, err = sessions.Refresh(ctx, access)
		assert.Error(t, err)
	})

	t.Run("rejects a missing token", func(t *testing.T) {
		sessions, _, _ := newSessionManager(t)

		_, _, err := sessions.Refresh(ctx, "")
		assert.ErrorIs(t, err, auth.ErrMissingRefreshToken)
	})

	t.Run("rejects a deleted subject", func(t *testing.T) {
		sessions, store, tokens := newSessionManager(t)

		id := uuid.New()
		refresh, err := tokens.IssueRefresh(id.String())
		require.NoError(t, err)

		store.On("FindByID", mock.Anything, id).Return(nil, notFoundErr())

		_, _, err = sessions.Refresh(ctx, refresh)
		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
	})
}

func TestSessionManager_CurrentIdentity(t *testing.T) {
	ctx := context.Background()
	sessions, store, tokens := newSessionManager(t)

	user := testUser(t, "grower@example.com", "Sunflower1", model.RoleGrower)
	store.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	store.On("CountPlantings", mock.Anything, user.ID).Return(4, nil)

	raw, err := tokens.IssueAccess(user.ID.String(), user.Email, user.Role)
	require.NoError(t, err)
	claims, err := tokens.Verify(raw)
	require.NoError(t, err)

	profile, err := sessions.CurrentIdentity(ctx, claims)
	require.NoError(t, err)
	require.NotNil(t, profile)

	assert.Equal(t, user.Email, profile.Email)
	require.NotNil(t, profile.PlantingsCount)
	assert.Equal(t, 4, *profile.PlantingsCount)
}

func TestSessionManager_UpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("name change keeps the session pair", func(t *testing.T) {
		sessions, store, _ := newSessionManager(t)

		user := testUser(t, "grower@example.com", "Sunflower1", model.RoleGrower)
		store.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		store.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).
			Return(func(_ context.Context, u *model.User) *model.User { return u }, nil)

		updated, pair, err := sessions.UpdateProfile(ctx, user.ID, auth.ProfileInput{Name: "Renamed"})
		require.NoError(t, err)

		assert.Equal(t, "Renamed", updated.Name)
		assert.Nil(t, pair)
	})

	t.Run("email change re-mints the pair", func(t *testing.T) {
		sessions, store, tokens := newSessionManager(t)

		user := testUser(t, "grower@example.com", "Sunflower1", model.RoleGrower)
		store.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		store.On("FindByEmail", mock.Anything, "fresh@example.com").Return(nil, notFoundErr())
		store.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).
			Return(func(_ context.Context, u *model.User) *model.User { return u }, nil)

		updated, pair, err := sessions.UpdateProfile(ctx, user.ID, auth.ProfileInput{Email: "Fresh@Example.com"})
		require.NoError(t, err)

		assert.Equal(t, "fresh@example.com", updated.Email)
		require.NotNil(t, pair)

		claims, err := tokens.VerifyKind(pair.Access, auth.KindAccess)
		require.NoError(t, err)
		assert.Equal(t, "fresh@example.com", claims.Email)
	})

	t.Run("email change to a taken address conflicts", func(t *testing.T) {
		sessions, store, _ := newSessionManager(t)

		user := testUser(t, "grower@example.com", "Sunflower1", model.RoleGrower)
		other := testUser(t, "other@example.com", "Sunflower1", model.RoleGrower)
		store.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		store.On("FindByEmail", mock.Anything, "other@example.com").Return(other, nil)

		_, _, err := sessions.UpdateProfile(ctx, user.ID, auth.ProfileInput{Email: "other@example.com"})
		assert.ErrorIs(t, err, auth.ErrDuplicateIdentity)
	})
}

func TestSessionManager_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("stores a new hash when the current password verifies", func(t *testing.T) {
		sessions, store, _ := newSessionManager(t)

		user := testUser(t, "grower@example.com", "Sunflower1", model.RoleGrower)
		store.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		store.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).
			Return(func(_ context.Context, u *model.User) *model.User { return u }, nil)

		err := sessions.ChangePassword(ctx, user.ID, "Sunflower1", "Tulip2Tulip")
		require.NoError(t, err)

		assert.True(t, auth.VerifyPassword(user.PasswordHash, "Tulip2Tulip"))
	})

	t.Run("rejects a wrong current password", func(t *testing.T) {
		sessions, store, _ := newSessionManager(t)

		user := testUser(t, "grower@example.com", "Sunflower1", model.RoleGrower)
		store.On("FindByID", mock.Anything, user.ID).Return(user, nil)

		err := sessions.ChangePassword(ctx, user.ID, "WrongPass1", "Tulip2Tulip")
		assert.ErrorIs(t, err, auth.ErrPasswordMismatch)

		store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}
