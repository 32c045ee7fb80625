package csrf_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/croplog/croplog/auth"
	"github.com/croplog/croplog/middleware/csrf"
)

func errorHandler(c *fiber.Ctx, err error) error {
	var rich *goerrors.Error
	if errors.As(err, &rich) {
		body := fiber.Map{"error": rich.Message}
		if rich.TextCode != "" {
			body["code"] = rich.TextCode
		}
		return c.Status(rich.Code).JSON(body)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

func newGuardApp(t *testing.T) *fiber.App {
	t.Helper()

	cookies := auth.NewCookiePolicy(false, time.Hour, 24*time.Hour)
	guard := csrf.New(csrf.Config{Cookies: cookies})

	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Use(guard.Issue())
	app.Get("/csrf", guard.TokenHandler)
	app.Post("/mutate", guard.Protect(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	app.Get("/read", guard.Protect(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	return app
}

func body(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func csrfCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "csrf-token" {
			return c
		}
	}
	return nil
}

func TestGuard_TokenHandler(t *testing.T) {
	app := newGuardApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/csrf", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	token := body(t, resp)["csrfToken"].(string)
	assert.NotEmpty(t, token)

	// token is mirrored in cookie and header
	cookie := csrfCookie(resp)
	require.NotNil(t, cookie)
	assert.Equal(t, token, cookie.Value)
	assert.Equal(t, token, resp.Header.Get("X-CSRF-Token"))

	// script-readable by design
	assert.False(t, cookie.HttpOnly)

	t.Run("existing cookie is reused", func(t *testing.T) {
		req := httptest.NewRequest(fiber.MethodGet, "/csrf", nil)
		req.AddCookie(&http.Cookie{Name: "csrf-token", Value: token})

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, token, body(t, resp)["csrfToken"])
	})
}

func TestGuard_Protect(t *testing.T) {
	app := newGuardApp(t)
	token := "4242424242424242424242424242424242424242424242424242424242424242"

	t.Run("safe methods bypass validation", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/read", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("matching cookie and header pass", func(t *testing.T) {
		req := httptest.NewRequest(fiber.MethodPost, "/mutate", nil)
		req.AddCookie(&http.Cookie{Name: "csrf-token", Value: token})
		req.Header.Set("X-CSRF-Token", token)

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("a one-character difference is rejected", func(t *testing.T) {
		altered := token[:len(token)-1] + "f"

		req := httptest.NewRequest(fiber.MethodPost, "/mutate", nil)
		req.AddCookie(&http.Cookie{Name: "csrf-token", Value: token})
		req.Header.Set("X-CSRF-Token", altered)

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
		assert.Equal(t, csrf.TextCodeTokenInvalid, body(t, resp)["code"])
	})

	t.Run("header without cookie passes and re-seeds the cookie", func(t *testing.T) {
		req := httptest.NewRequest(fiber.MethodPost, "/mutate", nil)
		req.Header.Set("X-CSRF-Token", token)

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		cookie := csrfCookie(resp)
		require.NotNil(t, cookie)
		assert.Equal(t, token, cookie.Value)
	})

	t.Run("both absent fails with the missing-token code", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/mutate", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
		assert.Equal(t, csrf.TextCodeTokenMissing, body(t, resp)["code"])
	})

	t.Run("cookie without header fails with the missing-token code", func(t *testing.T) {
		req := httptest.NewRequest(fiber.MethodPost, "/mutate", nil)
		req.AddCookie(&http.Cookie{Name: "csrf-token", Value: token})

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
		assert.Equal(t, csrf.TextCodeTokenMissing, body(t, resp)["code"])
	})
}

func TestGuard_Issue(t *testing.T) {
	app := newGuardApp(t)

	t.Run("seeds a cookie on first contact", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/read", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		cookie := csrfCookie(resp)
		require.NotNil(t, cookie)
		assert.NotEmpty(t, cookie.Value)
		assert.Equal(t, cookie.Value, resp.Header.Get("X-CSRF-Token"))
	})

	t.Run("leaves an existing cookie alone", func(t *testing.T) {
		req := httptest.NewRequest(fiber.MethodGet, "/read", nil)
		req.AddCookie(&http.Cookie{Name: "csrf-token", Value: "existing"})

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Nil(t, csrfCookie(resp))
	})

	t.Run("skips mutating requests so the fallback pairing survives", func(t *testing.T) {
		// a browser that blocked the cookie sends header-only; the
		// response must re-seed with the client's own token, not a
		// freshly minted one
		token := "4242424242424242424242424242424242424242424242424242424242424242"

		req := httptest.NewRequest(fiber.MethodPost, "/mutate", nil)
		req.Header.Set("X-CSRF-Token", token)

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		cookie := csrfCookie(resp)
		require.NotNil(t, cookie)
		assert.Equal(t, token, cookie.Value)
		assert.Empty(t, resp.Header.Get("X-CSRF-Token"))

		// the restored pairing passes the next mutation
		next := httptest.NewRequest(fiber.MethodPost, "/mutate", nil)
		next.AddCookie(&http.Cookie{Name: "csrf-token", Value: cookie.Value})
		next.Header.Set("X-CSRF-Token", token)

		followup, err := app.Test(next)
		require.NoError(t, err)
		defer followup.Body.Close()

		assert.Equal(t, fiber.StatusOK, followup.StatusCode)
	})
}

func TestGenerateToken(t *testing.T) {
	a, err := csrf.GenerateToken(32)
	require.NoError(t, err)
	b, err := csrf.GenerateToken(32)
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
