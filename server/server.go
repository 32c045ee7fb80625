// Package server assembles the fiber application: middleware stack,
// session security wiring, and route registration.
package server

import (
	stderrors "errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	goerrors "github.com/goliatone/go-errors"

	"github.com/croplog/croplog/auth"
	"github.com/croplog/croplog/config"
	"github.com/croplog/croplog/handler"
	"github.com/croplog/croplog/middleware/csrf"
	"github.com/croplog/croplog/repository"
)

// Server owns the fiber app and its wiring
type Server struct {
	app    *fiber.App
	cfg    config.Config
	logger auth.Logger
}

// New builds the full application over repos. Config must already be
// validated; TTLs are clamped here before any component sees them.
func New(cfg config.Config, repos *repository.Manager, log auth.Logger) (*Server, error) {
	if log == nil {
		log = auth.DefaultLogger()
	}

	cfg = cfg.Clamped()

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		SigningKey: []byte(cfg.SigningSecret),
		Issuer:     cfg.Issuer,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		return nil, err
	}

	cookies := auth.NewCookiePolicy(cfg.IsProduction(), tokens.AccessTTL(), tokens.RefreshTTL())
	gate := auth.NewGate(tokens, log)
	sessions := auth.NewSessionManager(repos.Users(), tokens, log)
	controller := auth.NewController(sessions, cookies, log)

	guard := csrf.New(csrf.Config{
		Cookies: cookies,
		Logger:  log,
	})

	app := fiber.New(fiber.Config{
		AppName:      "croplog",
		ErrorHandler: errorHandler(cfg.IsProduction(), log),
	})

	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowCredentials: true,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-CSRF-Token",
		ExposeHeaders:    "X-CSRF-Token",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
		LimitReached: func(c *fiber.Ctx) error {
			return tooManyRequests()
		},
	}))
	if !cfg.IsProduction() {
		app.Use(logger.New())
	}
	app.Use(guard.Issue())

	protect := guard.Protect()

	app.Get("/health", handler.Health(string(cfg.Env)))
	app.Get("/csrf", guard.TokenHandler)

	api := app.Group("/api")

	// writes get a stricter limit than reads
	api.Use(limiter.New(limiter.Config{
		Max:        cfg.WriteLimitMax,
		Expiration: cfg.RateLimitWindow,
		Next: func(c *fiber.Ctx) bool {
			switch c.Method() {
			case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
				return true
			}
			return false
		},
		LimitReached: func(c *fiber.Ctx) error {
			return tooManyRequests()
		},
	}))

	controller.RegisterRoutes(api.Group("/auth"), gate, protect)
	handler.NewPlantings(repos, log).RegisterRoutes(api.Group("/plantings"), gate, protect)
	handler.NewPlantTypes(repos, log).RegisterRoutes(api.Group("/plant-types"), gate, protect)
	handler.NewHarvests(repos, log).RegisterRoutes(api.Group("/harvests"), gate, protect)

	return &Server{app: app, cfg: cfg, logger: log}, nil
}

// App exposes the fiber app, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts serving on the configured port
func (s *Server) Listen() error {
	s.logger.Info("listening on :%s (%s)", s.cfg.Port, s.cfg.Env)
	return s.app.Listen(":" + s.cfg.Port)
}

// Shutdown drains in-flight requests and stops the server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func tooManyRequests() error {
	return goerrors.New("too many requests, please try again later", goerrors.CategoryRateLimit).
		WithTextCode("RATE_LIMIT_EXCEEDED").
		WithCode(fiber.StatusTooManyRequests)
}

// errorHandler maps rich errors to the response envelope. Status comes
// from the error's code; 5xx detail is suppressed outside development.
func errorHandler(production bool, log auth.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var rich *goerrors.Error
		if stderrors.As(err, &rich) {
			status := rich.Code
			if status < fiber.StatusBadRequest || status > 599 {
				status = fiber.StatusInternalServerError
			}

			if status >= fiber.StatusInternalServerError {
				log.Error("%s %s failed: %v", c.Method(), c.Path(), err)
				if production {
					return c.Status(status).JSON(fiber.Map{
						"error": "Internal server error",
					})
				}
			}

			body := fiber.Map{"error": rich.Message}
			if rich.TextCode != "" {
				body["code"] = rich.TextCode
			}
			if len(rich.Metadata) > 0 {
				body["details"] = rich.Metadata
			}

			return c.Status(status).JSON(body)
		}

		var fiberErr *fiber.Error
		if stderrors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"error": fiberErr.Message,
			})
		}

		log.Error("%s %s unhandled error: %v", c.Method(), c.Path(), err)

		message := "Internal server error"
		if !production {
			message = err.Error()
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": message,
		})
	}
}
