package handler

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/croplog/croplog/auth"
	"github.com/croplog/croplog/model"
	"github.com/croplog/croplog/repository"
)

// Plantings handles the planting CRUD endpoints
type Plantings struct {
	repos  *repository.Manager
	logger auth.Logger
}

// NewPlantings wires the planting handlers
func NewPlantings(repos *repository.Manager, logger auth.Logger) *Plantings {
	if logger == nil {
		logger = auth.DefaultLogger()
	}
	return &Plantings{repos: repos, logger: logger}
}

// RegisterRoutes mounts the planting endpoints. Reads work anonymously;
// mutations require an identity and a CSRF token.
func (h *Plantings) RegisterRoutes(router fiber.Router, gate *auth.Gate, protect fiber.Handler) {
	router.Get("/", gate.OptionalAuth(), h.List)
	router.Get("/:id", gate.OptionalAuth(), h.Get)
	router.Post("/", gate.RequireAuth(), protect, h.Create)
	router.Put("/:id", gate.RequireAuth(), protect, h.Update)
	router.Delete("/:id", gate.RequireAuth(), protect, h.Delete)
}

// List handles GET /. The listing is public; identified and anonymous
// callers see the same records.
func (h *Plantings) List(c *fiber.Ctx) error {
	page, limit := paginate(c)

	filter := repository.PlantingFilter{
		Status: c.Query("status"),
		Name:   c.Query("name"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	if raw := c.Query("plantType"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return errors.New("invalid plantType filter", errors.CategoryBadInput).
				WithTextCode("INVALID_ID").
				WithCode(errors.CodeBadRequest)
		}
		filter.PlantTypeID = &id
	}

	records, total, err := h.repos.Plantings().List(c.UserContext(), filter)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"plantings":  records,
		"pagination": pagination(page, limit, total),
	})
}

// Get handles GET /:id
func (h *Plantings) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	record, err := h.repos.Plantings().FindByID(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"planting": record,
	})
}

type plantingPayload struct {
	PlantTypeID     string   `json:"plantTypeId"`
	PlantName       string   `json:"plantName"`
	DatePlanted     string   `json:"datePlanted"`
	ExpectedHarvest string   `json:"expectedHarvest"`
	DomeDate        string   `json:"domeDate"`
	LightDate       string   `json:"lightDate"`
	Quantity        *int     `json:"quantity"`
	Yield           *float64 `json:"yield"`
	Notes           string   `json:"notes"`
	Status          string   `json:"status"`
	TrayNumber      string   `json:"trayNumber"`
	Substrate       string   `json:"substrate"`
	IrrigationMl    *int     `json:"irrigationMl"`
	SoakingHours    *int     `json:"soakingHours"`
}

func (p plantingPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.DatePlanted, validation.Required),
		validation.Field(&p.Status, validation.In(
			model.StatusPlanted, model.StatusGrowing, model.StatusHarvested,
		)),
		validation.Field(&p.Quantity, validation.Min(0)),
	)
}

// Create handles POST /. When the payload names a plant type but no
// expected harvest, the date is derived from the type's days to harvest.
func (h *Plantings) Create(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromFiber(c)
	if !ok {
		return auth.ErrUnauthorized
	}

	userID, err := uuid.Parse(claims.UserID())
	if err != nil {
		return auth.ErrTokenInvalid
	}

	var payload plantingPayload
	if err := parseBody(c, &payload); err != nil {
		return err
	}

	record, err := h.buildPlanting(c, payload)
	if err != nil {
		return err
	}
	record.UserID = userID

	record, err = h.repos.Plantings().Create(c.UserContext(), record)
	if err != nil {
		return err
	}

	h.logger.Info("planting %s created by %s", record.ID, userID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Planting created successfully",
		"planting": record,
	})
}

// Update handles PUT /:id
func (h *Plantings) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var payload plantingPayload
	if err := parseBody(c, &payload); err != nil {
		return err
	}

	existing, err := h.repos.Plantings().FindByID(c.UserContext(), id)
	if err != nil {
		return err
	}

	record, err := h.buildPlanting(c, payload)
	if err != nil {
		return err
	}
	record.ID = existing.ID
	record.UserID = existing.UserID
	record.CreatedAt = existing.CreatedAt
	if record.Status == "" {
		record.Status = existing.Status
	}

	record, err = h.repos.Plantings().Update(c.UserContext(), record)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message":  "Planting updated successfully",
		"planting": record,
	})
}

// Delete handles DELETE /:id
func (h *Plantings) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.repos.Plantings().Delete(c.UserContext(), id); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Planting deleted successfully",
	})
}

func (h *Plantings) buildPlanting(c *fiber.Ctx, payload plantingPayload) (*model.Planting, error) {
	datePlanted, err := parseDate(payload.DatePlanted)
	if err != nil {
		return nil, err
	}

	record := &model.Planting{
		PlantName:    payload.PlantName,
		DatePlanted:  datePlanted,
		Quantity:     payload.Quantity,
		Yield:        payload.Yield,
		Notes:        payload.Notes,
		Status:       payload.Status,
		TrayNumber:   payload.TrayNumber,
		Substrate:    payload.Substrate,
		IrrigationMl: payload.IrrigationMl,
		SoakingHours: payload.SoakingHours,
	}

	if record.Status == "" {
		record.Status = model.StatusPlanted
	}

	if record.ExpectedHarvest, err = parseDatePtr(payload.ExpectedHarvest); err != nil {
		return nil, err
	}
	if record.DomeDate, err = parseDatePtr(payload.DomeDate); err != nil {
		return nil, err
	}
	if record.LightDate, err = parseDatePtr(payload.LightDate); err != nil {
		return nil, err
	}

	if payload.PlantTypeID != "" {
		typeID, err := uuid.Parse(payload.PlantTypeID)
		if err != nil {
			return nil, errors.New("invalid plantTypeId", errors.CategoryBadInput).
				WithTextCode("INVALID_ID").
				WithCode(errors.CodeBadRequest)
		}

		plantType, err := h.repos.PlantTypes().FindByID(c.UserContext(), typeID)
		if err != nil {
			return nil, err
		}

		record.PlantTypeID = &plantType.ID

		if record.ExpectedHarvest == nil && plantType.DaysToHarvest != nil {
			expected := datePlanted.AddDate(0, 0, *plantType.DaysToHarvest)
			record.ExpectedHarvest = &expected
		}
	}

	return record, nil
}
