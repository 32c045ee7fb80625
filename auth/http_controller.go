package auth

import (
	stderrors "errors"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Controller exposes the session lifecycle over HTTP. It owns the
// cookie writes; SessionManager stays transport-free.
type Controller struct {
	sessions *SessionManager
	cookies  *CookiePolicy
	logger   Logger
}

// NewController wires a Controller
func NewController(sessions *SessionManager, cookies *CookiePolicy, logger Logger) *Controller {
	if logger == nil {
		logger = defLogger{}
	}
	return &Controller{sessions: sessions, cookies: cookies, logger: logger}
}

// RegisterRoutes mounts the auth endpoints on router. The guard chain
// (CSRF protection, rate limits) is supplied by the caller so route
// wiring stays in one place at the server level.
func (ctrl *Controller) RegisterRoutes(router fiber.Router, gate *Gate, protect fiber.Handler) {
	router.Post("/register", protect, ctrl.Register)
	router.Post("/login", protect, ctrl.Login)
	router.Post("/logout", protect, ctrl.Logout)
	router.Post("/refresh", protect, ctrl.Refresh)
	router.Get("/me", gate.RequireAuth(), ctrl.Me)
	router.Put("/profile", gate.RequireAuth(), protect, ctrl.UpdateProfile)
	router.Put("/password", gate.RequireAuth(), protect, ctrl.ChangePassword)
}

type registerPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (p registerPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, is.Email),
		validation.Field(&p.Password, validation.Required, validation.Length(8, 128), validation.By(passwordStrength)),
		validation.Field(&p.Name, validation.Required, validation.Length(1, 120)),
	)
}

// passwordStrength requires a lowercase letter, an uppercase letter,
// and a digit. Written as a rule func because RE2 has no lookaheads.
func passwordStrength(value any) error {
	s, _ := value.(string)
	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower || !upper || !digit {
		return stderrors.New("must contain an uppercase letter, a lowercase letter, and a number")
	}
	return nil
}

// Register handles POST /register
func (ctrl *Controller) Register(c *fiber.Ctx) error {
	var payload registerPayload
	if err := parseBody(c, &payload); err != nil {
		return err
	}

	user, pair, err := ctrl.sessions.Register(c.UserContext(), RegisterInput{
		Email:    payload.Email,
		Password: payload.Password,
		Name:     payload.Name,
	})
	if err != nil {
		return err
	}

	ctrl.setSession(c, pair)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user.Profile(),
		"token":   pair.Access,
	})
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (p loginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, is.Email),
		validation.Field(&p.Password, validation.Required),
	)
}

// Login handles POST /login
func (ctrl *Controller) Login(c *fiber.Ctx) error {
	var payload loginPayload
	if err := parseBody(c, &payload); err != nil {
		return err
	}

	user, pair, err := ctrl.sessions.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	ctrl.setSession(c, pair)

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"user":    user.Profile(),
		"token":   pair.Access,
	})
}

// Logout handles POST /logout. It clears the credential cookies and
// always succeeds; there is no server-side session to tear down.
func (ctrl *Controller) Logout(c *fiber.Ctx) error {
	ctrl.cookies.ClearSession(c)
	return c.JSON(fiber.Map{
		"message": "Logout successful",
	})
}

// Refresh handles POST /refresh, minting a new pair from the refresh
// cookie. Both cookies are rotated.
func (ctrl *Controller) Refresh(c *fiber.Ctx) error {
	_, pair, err := ctrl.sessions.Refresh(c.UserContext(), c.Cookies(CookieRefresh))
	if err != nil {
		return err
	}

	ctrl.setSession(c, pair)

	return c.JSON(fiber.Map{
		"message": "Token refreshed successfully",
		"token":   pair.Access,
	})
}

// Me handles GET /me
func (ctrl *Controller) Me(c *fiber.Ctx) error {
	claims, ok := ClaimsFromFiber(c)
	if !ok {
		return ErrUnauthorized
	}

	profile, err := ctrl.sessions.CurrentIdentity(c.UserContext(), claims)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"user": profile,
	})
}

type profilePayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (p profilePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, is.Email),
		validation.Field(&p.Name, validation.Length(1, 120)),
	)
}

// UpdateProfile handles PUT /profile. An email change re-mints the
// credential pair so the email claim stays truthful.
func (ctrl *Controller) UpdateProfile(c *fiber.Ctx) error {
	claims, ok := ClaimsFromFiber(c)
	if !ok {
		return ErrUnauthorized
	}

	var payload profilePayload
	if err := parseBody(c, &payload); err != nil {
		return err
	}

	id, err := subjectID(claims)
	if err != nil {
		return err
	}

	user, pair, err := ctrl.sessions.UpdateProfile(c.UserContext(), id, ProfileInput{
		Name:  payload.Name,
		Email: payload.Email,
	})
	if err != nil {
		return err
	}

	if pair != nil {
		ctrl.setSession(c, *pair)
	}

	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
		"user":    user.Profile(),
	})
}

type passwordPayload struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (p passwordPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.CurrentPassword, validation.Required),
		validation.Field(&p.NewPassword, validation.Required, validation.Length(8, 128), validation.By(passwordStrength)),
	)
}

// ChangePassword handles PUT /password
func (ctrl *Controller) ChangePassword(c *fiber.Ctx) error {
	claims, ok := ClaimsFromFiber(c)
	if !ok {
		return ErrUnauthorized
	}

	var payload passwordPayload
	if err := parseBody(c, &payload); err != nil {
		return err
	}

	id, err := subjectID(claims)
	if err != nil {
		return err
	}

	if err := ctrl.sessions.ChangePassword(c.UserContext(), id, payload.CurrentPassword, payload.NewPassword); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Password changed successfully",
	})
}

func (ctrl *Controller) setSession(c *fiber.Ctx, pair TokenPair) {
	ctrl.cookies.Set(c, KindAccessCookie, pair.Access)
	ctrl.cookies.Set(c, KindRefreshCookie, pair.Refresh)
}

func subjectID(claims *TokenClaims) (uuid.UUID, error) {
	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}
	return id, nil
}

type payloadValidator interface {
	Validate() error
}

func parseBody(c *fiber.Ctx, payload payloadValidator) error {
	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "invalid request body").
			WithTextCode("INVALID_BODY").
			WithCode(errors.CodeBadRequest)
	}

	if err := payload.Validate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "validation failed").
			WithTextCode("VALIDATION_ERROR").
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{"fields": err})
	}

	return nil
}
