package handler

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"

	"github.com/croplog/croplog/auth"
	"github.com/croplog/croplog/model"
	"github.com/croplog/croplog/repository"
)

// Harvests handles the harvest CRUD endpoints
type Harvests struct {
	repos  *repository.Manager
	logger auth.Logger
}

// NewHarvests wires the harvest handlers
func NewHarvests(repos *repository.Manager, logger auth.Logger) *Harvests {
	if logger == nil {
		logger = auth.DefaultLogger()
	}
	return &Harvests{repos: repos, logger: logger}
}

// RegisterRoutes mounts the harvest endpoints
func (h *Harvests) RegisterRoutes(router fiber.Router, gate *auth.Gate, protect fiber.Handler) {
	router.Get("/", gate.OptionalAuth(), h.List)
	router.Get("/planting/:id", gate.OptionalAuth(), h.ListByPlanting)
	router.Get("/:id", gate.OptionalAuth(), h.Get)
	router.Post("/", gate.RequireAuth(), protect, h.Create)
	router.Put("/:id", gate.RequireAuth(), protect, h.Update)
	router.Delete("/:id", gate.RequireAuth(), protect, h.Delete)
}

// List handles GET /
func (h *Harvests) List(c *fiber.Ctx) error {
	page, limit := paginate(c)

	records, total, err := h.repos.Harvests().List(c.UserContext(), repository.HarvestFilter{
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"harvests":   records,
		"pagination": pagination(page, limit, total),
	})
}

// ListByPlanting handles GET /planting/:id
func (h *Harvests) ListByPlanting(c *fiber.Ctx) error {
	plantingID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	// verify the planting exists so a bad id is a 404, not an empty list
	if _, err := h.repos.Plantings().FindByID(c.UserContext(), plantingID); err != nil {
		return err
	}

	page, limit := paginate(c)

	records, total, err := h.repos.Harvests().List(c.UserContext(), repository.HarvestFilter{
		PlantingID: &plantingID,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"harvests":   records,
		"pagination": pagination(page, limit, total),
	})
}

// Get handles GET /:id
func (h *Harvests) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	record, err := h.repos.Harvests().FindByID(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"harvest": record,
	})
}

type harvestPayload struct {
	PlantingID   string   `json:"plantingId"`
	HarvestDate  string   `json:"harvestDate"`
	Weight       *float64 `json:"weight"`
	Quality      string   `json:"quality"`
	Notes        string   `json:"notes"`
	PricePerGram *float64 `json:"pricePerGram"`
	Appearance   *int     `json:"appearance"`
	Taste        *int     `json:"taste"`
	Freshness    *int     `json:"freshness"`
}

func (p harvestPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.PlantingID, validation.Required),
		validation.Field(&p.HarvestDate, validation.Required),
		validation.Field(&p.Weight, validation.Required, validation.Min(0.0)),
		validation.Field(&p.PricePerGram, validation.Min(0.0)),
		validation.Field(&p.Appearance, validation.Min(1), validation.Max(5)),
		validation.Field(&p.Taste, validation.Min(1), validation.Max(5)),
		validation.Field(&p.Freshness, validation.Min(1), validation.Max(5)),
	)
}

// Create handles POST /. The first harvest against a planting flips its
// status to harvested; total value is derived from weight and price.
func (h *Harvests) Create(c *fiber.Ctx) error {
	var payload harvestPayload
	if err := parseBody(c, &payload); err != nil {
		return err
	}

	plantingID, err := paramUUID(payload.PlantingID, "plantingId")
	if err != nil {
		return err
	}

	planting, err := h.repos.Plantings().FindByID(c.UserContext(), plantingID)
	if err != nil {
		return err
	}

	harvestDate, err := parseDate(payload.HarvestDate)
	if err != nil {
		return err
	}

	record := &model.Harvest{
		PlantingID:   planting.ID,
		HarvestDate:  harvestDate,
		Weight:       *payload.Weight,
		Quality:      payload.Quality,
		Notes:        payload.Notes,
		PricePerGram: payload.PricePerGram,
		Appearance:   payload.Appearance,
		Taste:        payload.Taste,
		Freshness:    payload.Freshness,
	}

	if payload.PricePerGram != nil {
		total := record.Weight * *payload.PricePerGram
		record.TotalValue = &total
	}

	record, err = h.repos.Harvests().Create(c.UserContext(), record)
	if err != nil {
		return err
	}

	if planting.Status != model.StatusHarvested {
		if err := h.repos.Plantings().SetStatus(c.UserContext(), planting.ID, model.StatusHarvested); err != nil {
			h.logger.Error("failed to mark planting %s harvested: %v", planting.ID, err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Harvest recorded successfully",
		"harvest": record,
	})
}

// Update handles PUT /:id
func (h *Harvests) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var payload harvestPayload
	if err := parseBody(c, &payload); err != nil {
		return err
	}

	existing, err := h.repos.Harvests().FindByID(c.UserContext(), id)
	if err != nil {
		return err
	}

	harvestDate, err := parseDate(payload.HarvestDate)
	if err != nil {
		return err
	}

	existing.HarvestDate = harvestDate
	existing.Weight = *payload.Weight
	existing.Quality = payload.Quality
	existing.Notes = payload.Notes
	existing.PricePerGram = payload.PricePerGram
	existing.Appearance = payload.Appearance
	existing.Taste = payload.Taste
	existing.Freshness = payload.Freshness

	existing.TotalValue = nil
	if payload.PricePerGram != nil {
		total := existing.Weight * *payload.PricePerGram
		existing.TotalValue = &total
	}

	record, err := h.repos.Harvests().Update(c.UserContext(), existing)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Harvest updated successfully",
		"harvest": record,
	})
}

// Delete handles DELETE /:id
func (h *Harvests) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.repos.Harvests().Delete(c.UserContext(), id); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Harvest deleted successfully",
	})
}
