package handler

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"

	"github.com/croplog/croplog/auth"
	"github.com/croplog/croplog/model"
	"github.com/croplog/croplog/repository"
)

// PlantTypes handles the plant type reference-data endpoints
type PlantTypes struct {
	repos  *repository.Manager
	logger auth.Logger
}

// NewPlantTypes wires the plant type handlers
func NewPlantTypes(repos *repository.Manager, logger auth.Logger) *PlantTypes {
	if logger == nil {
		logger = auth.DefaultLogger()
	}
	return &PlantTypes{repos: repos, logger: logger}
}

// RegisterRoutes mounts the plant type endpoints. Reference data is
// shared, so mutations are restricted to admins.
func (h *PlantTypes) RegisterRoutes(router fiber.Router, gate *auth.Gate, protect fiber.Handler) {
	admin := gate.RequireRole(model.RoleAdmin)
	router.Get("/", h.List)
	router.Get("/:id", h.Get)
	router.Post("/", gate.RequireAuth(), admin, protect, h.Create)
	router.Put("/:id", gate.RequireAuth(), admin, protect, h.Update)
	router.Delete("/:id", gate.RequireAuth(), admin, protect, h.Delete)
}

// List handles GET /
func (h *PlantTypes) List(c *fiber.Ctx) error {
	records, err := h.repos.PlantTypes().List(c.UserContext(), repository.PlantTypeFilter{
		Category:   c.Query("category"),
		Difficulty: c.Query("difficulty"),
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"plantTypes": records,
	})
}

// Get handles GET /:id
func (h *PlantTypes) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	record, err := h.repos.PlantTypes().FindByID(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"plantType": record,
	})
}

type plantTypePayload struct {
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	Difficulty    string   `json:"difficulty"`
	Description   string   `json:"description"`
	DaysToHarvest *int     `json:"daysToHarvest"`
	AverageYield  *float64 `json:"averageYield"`
}

func (p plantTypePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&p.DaysToHarvest, validation.Min(1)),
		validation.Field(&p.AverageYield, validation.Min(0.0)),
	)
}

// Create handles POST /
func (h *PlantTypes) Create(c *fiber.Ctx) error {
	var payload plantTypePayload
	if err := parseBody(c, &payload); err != nil {
		return err
	}

	record, err := h.repos.PlantTypes().Create(c.UserContext(), &model.PlantType{
		Name:          payload.Name,
		Category:      payload.Category,
		Difficulty:    payload.Difficulty,
		Description:   payload.Description,
		DaysToHarvest: payload.DaysToHarvest,
		AverageYield:  payload.AverageYield,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Plant type created successfully",
		"plantType": record,
	})
}

// Update handles PUT /:id
func (h *PlantTypes) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var payload plantTypePayload
	if err := parseBody(c, &payload); err != nil {
		return err
	}

	existing, err := h.repos.PlantTypes().FindByID(c.UserContext(), id)
	if err != nil {
		return err
	}

	existing.Name = payload.Name
	existing.Category = payload.Category
	existing.Difficulty = payload.Difficulty
	existing.Description = payload.Description
	existing.DaysToHarvest = payload.DaysToHarvest
	existing.AverageYield = payload.AverageYield

	record, err := h.repos.PlantTypes().Update(c.UserContext(), existing)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message":   "Plant type updated successfully",
		"plantType": record,
	})
}

// Delete handles DELETE /:id. A plant type still referenced by live
// plantings cannot be removed.
func (h *PlantTypes) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	inUse, err := h.repos.Plantings().CountByPlantType(c.UserContext(), id)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return errors.New("plant type is in use by existing plantings", errors.CategoryConflict).
			WithTextCode("PLANT_TYPE_IN_USE").
			WithCode(errors.CodeConflict).
			WithMetadata(map[string]any{"plantings": inUse})
	}

	if err := h.repos.PlantTypes().Delete(c.UserContext(), id); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Plant type deleted successfully",
	})
}
