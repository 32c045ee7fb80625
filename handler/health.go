package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Health returns a liveness handler reporting the running environment
func Health(environment string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":      "ok",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"environment": environment,
		})
	}
}
