package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/croplog/croplog/auth"
	"github.com/croplog/croplog/model"
)

func passthrough(c *fiber.Ctx) error {
	return c.Next()
}

func newControllerApp(t *testing.T) (*fiber.App, *MockIdentityStore, *auth.TokenService) {
	t.Helper()

	store := &MockIdentityStore{}
	tokens := newTestTokenService(t)
	cookies := auth.NewCookiePolicy(false, tokens.AccessTTL(), tokens.RefreshTTL())
	sessions := auth.NewSessionManager(store, tokens, auth.NopLogger())
	gate := auth.NewGate(tokens, auth.NopLogger())
	controller := auth.NewController(sessions, cookies, auth.NopLogger())

	app := fiber.New(fiber.Config{ErrorHandler: richErrorHandler})
	controller.RegisterRoutes(app.Group("/api/auth"), gate, passthrough)

	return app, store, tokens
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func TestController_Register(t *testing.T) {
	t.Run("creates the account and sets session cookies", func(t *testing.T) {
		app, store, tokens := newControllerApp(t)

		store.On("FindByEmailAny", mock.Anything, "new@example.com").Return(nil, notFoundErr())
		store.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).
			Return(func(_ context.Context, u *model.User) *model.User { return u }, nil)

		resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/auth/register",
			`{"email":"new@example.com","password":"Sunflower1","name":"New Grower"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, fiber.StatusCreated, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "User registered successfully", body["message"])
		require.NotEmpty(t, body["token"])

		claims, err := tokens.VerifyKind(body["token"].(string), auth.KindAccess)
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", claims.Email)

		access := findCookie(resp.Cookies(), "token")
		refresh := findCookie(resp.Cookies(), "refreshToken")
		require.NotNil(t, access)
		require.NotNil(t, refresh)
		assert.True(t, access.HttpOnly)
		assert.True(t, refresh.HttpOnly)
	})

	t.Run("rejects a weak password before touching the store", func(t *testing.T) {
		app, store, _ := newControllerApp(t)

		resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/auth/register",
			`{"email":"new@example.com","password":"alllowercase1","name":"New Grower"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "VALIDATION_ERROR", body["code"])

		store.AssertNotCalled(t, "FindByEmailAny", mock.Anything, mock.Anything)
	})

	t.Run("conflicts on a duplicate email", func(t *testing.T) {
		app, store, _ := newControllerApp(t)

		existing := testUser(t, "taken@example.com", "Sunflower1", model.RoleGrower)
		store.On("FindByEmailAny", mock.Anything, "taken@example.com").Return(existing, nil)

		resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/auth/register",
			`{"email":"taken@example.com","password":"Sunflower1","name":"Someone"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, auth.TextCodeDuplicateIdentity, body["code"])
	})
}

func TestController_Login(t *testing.T) {
	t.Run("success sets cookies and returns the profile", func(t *testing.T) {
		app, store, _ := newControllerApp(t)

		user := testUser(t, "grower@example.com", "Sunflower1", model.RoleGrower)
		store.On("FindByEmail", mock.Anything, "grower@example.com").Return(user, nil)

		resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/auth/login",
			`{"email":"grower@example.com","password":"Sunflower1"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "Login successful", body["message"])
		assert.NotEmpty(t, body["token"])

		assert.NotNil(t, findCookie(resp.Cookies(), "token"))
		assert.NotNil(t, findCookie(resp.Cookies(), "refreshToken"))
	})

	t.Run("wrong password and unknown email yield identical bodies", func(t *testing.T) {
		app, store, _ := newControllerApp(t)

		user := testUser(t, "grower@example.com", "Sunflower1", model.RoleGrower)
		store.On("FindByEmail", mock.Anything, "grower@example.com").Return(user, nil)
		store.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, notFoundErr())

		wrong, err := app.Test(jsonRequest(fiber.MethodPost, "/api/auth/login",
			`{"email":"grower@example.com","password":"WrongPass1"}`))
		require.NoError(t, err)
		defer wrong.Body.Close()

		unknown, err := app.Test(jsonRequest(fiber.MethodPost, "/api/auth/login",
			`{"email":"nobody@example.com","password":"Sunflower1"}`))
		require.NoError(t, err)
		defer unknown.Body.Close()

		assert.Equal(t, fiber.StatusUnauthorized, wrong.StatusCode)
		assert.Equal(t, fiber.StatusUnauthorized, unknown.StatusCode)
		assert.Equal(t, decodeBody(t, wrong), decodeBody(t, unknown))
	})
}

func TestController_Logout(t *testing.T) {
	app, _, _ := newControllerApp(t)

	// logout is idempotent; both calls succeed and clear the cookies
	for i := 0; i < 2; i++ {
		resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/auth/logout", `{}`))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "Logout successful", body["message"])

		for _, name := range []string{"token", "refreshToken"} {
			cookie := findCookie(resp.Cookies(), name)
			require.NotNil(t, cookie, name)
			assert.Empty(t, cookie.Value, name)
			assert.True(t, cookie.MaxAge < 0 || cookie.Expires.Before(time.Now()), name)
		}

		// the CSRF pairing stays valid for the next login
		assert.Nil(t, findCookie(resp.Cookies(), "csrf-token"))

		resp.Body.Close()
	}
}

func TestController_Refresh(t *testing.T) {
	t.Run("rotates both credentials", func(t *testing.T) {
		app, store, tokens := newControllerApp(t)

		user := testUser(t, "grower@example.com", "Sunflower1", model.RoleGrower)
		store.On("FindByID", mock.Anything, user.ID).Return(user, nil)

		refresh, err := tokens.IssueRefresh(user.ID.String())
		require.NoError(t, err)

		req := jsonRequest(fiber.MethodPost, "/api/auth/refresh", `{}`)
		req.AddCookie(&http.Cookie{Name: "refreshToken", Value: refresh})

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "Token refreshed successfully", body["message"])

		claims, err := tokens.VerifyKind(body["token"].(string), auth.KindAccess)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.UserID())

		assert.NotNil(t, findCookie(resp.Cookies(), "token"))
		assert.NotNil(t, findCookie(resp.Cookies(), "refreshToken"))
	})

	t.Run("fails without a refresh cookie", func(t *testing.T) {
		app, _, _ := newControllerApp(t)

		resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/auth/refresh", `{}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, auth.TextCodeMissingRefreshToken, body["code"])
	})
}

func TestController_Me(t *testing.T) {
	app, store, tokens := newControllerApp(t)

	user := testUser(t, "grower@example.com", "Sunflower1", model.RoleGrower)
	store.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	store.On("CountPlantings", mock.Anything, user.ID).Return(2, nil)

	access, err := tokens.IssueAccess(user.ID.String(), user.Email, user.Role)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: access})

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	profile, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "grower@example.com", profile["email"])
	assert.Equal(t, float64(2), profile["plantings_count"])
}
