// Package handler contains the thin HTTP glue for the domain records:
// plantings, plant types, and harvests. All rules that matter live in the
// auth and repository packages; handlers parse, validate, delegate, shape.
package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Pagination is echoed on every list response
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func paginate(c *fiber.Ctx) (page, limit int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	limit = c.QueryInt("limit", defaultPageSize)
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	return page, limit
}

func pagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, errors.New("invalid id", errors.CategoryBadInput).
			WithTextCode("INVALID_ID").
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{"param": name})
	}
	return id, nil
}

func paramUUID(value, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, errors.New("invalid "+field, errors.CategoryBadInput).
			WithTextCode("INVALID_ID").
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{"field": field})
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

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// parseDate accepts RFC3339 timestamps and bare dates
func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("invalid date, expected RFC3339 or YYYY-MM-DD", errors.CategoryBadInput).
		WithTextCode("INVALID_DATE").
		WithCode(errors.CodeBadRequest)
}

func parseDatePtr(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseDate(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
