package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/croplog/croplog/model"
)

// PlantingFilter narrows planting listings
type PlantingFilter struct {
	PlantTypeID *uuid.UUID
	Status      string
	// Name matches plant_name or the referenced plant type name, case
	// insensitive substring.
	Name   string
	Limit  int
	Offset int
}

// Plantings persists planting records
type Plantings struct {
	db *bun.DB
}

// NewPlantings creates the plantings repository
func NewPlantings(db *bun.DB) *Plantings {
	return &Plantings{db: db}
}

// List returns plantings matching filter, newest planted first, with the
// total count before pagination.
func (r *Plantings) List(ctx context.Context, filter PlantingFilter) ([]*model.Planting, int, error) {
	var records []*model.Planting

	q := r.db.NewSelect().
		Model(&records).
		Relation("PlantType").
		Relation("Harvests")

	if filter.PlantTypeID != nil {
		q.Where("plt.plant_type_id = ?", *filter.PlantTypeID)
	}

	if filter.Status != "" {
		q.Where("plt.status = ?", filter.Status)
	}

	if name := strings.TrimSpace(filter.Name); name != "" {
		pattern := "%" + strings.ToLower(name) + "%"
		q.Join("LEFT JOIN plant_types AS ptt ON ptt.id = plt.plant_type_id").
			WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.
					Where("LOWER(plt.plant_name) LIKE ?", pattern).
					WhereOr("LOWER(ptt.name) LIKE ?", pattern)
			})
	}

	total, err := q.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	q.Order("plt.date_planted DESC")

	if filter.Limit > 0 {
		q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q.Offset(filter.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// FindByID returns a planting with its plant type and harvests loaded
func (r *Plantings) FindByID(ctx context.Context, id uuid.UUID) (*model.Planting, error) {
	record := &model.Planting{}
	err := r.db.NewSelect().
		Model(record).
		Relation("PlantType").
		Relation("Harvests").
		Where("plt.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, notFound("planting", id)
		}
		return nil, err
	}
	return record, nil
}

// Create inserts a planting
func (r *Plantings) Create(ctx context.Context, record *model.Planting) (*model.Planting, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, record.ID)
}

// Update persists changes to a planting
func (r *Plantings) Update(ctx context.Context, record *model.Planting) (*model.Planting, error) {
	now := time.Now()
	record.UpdatedAt = &now
	res, err := r.db.NewUpdate().
		Model(record).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, notFound("planting", record.ID)
	}
	return r.FindByID(ctx, record.ID)
}

// SetStatus updates only the status column
func (r *Plantings) SetStatus(ctx context.Context, id uuid.UUID, status model.PlantingStatus) error {
	res, err := r.db.NewUpdate().
		Model((*model.Planting)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now()).
		Where("plt.id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return notFound("planting", id)
	}
	return nil
}

// Delete soft-deletes a planting
func (r *Plantings) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*model.Planting)(nil)).
		Where("plt.id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return notFound("planting", id)
	}
	return nil
}

// CountByPlantType returns how many live plantings reference plant type id
func (r *Plantings) CountByPlantType(ctx context.Context, plantTypeID uuid.UUID) (int, error) {
	return r.db.NewSelect().
		Model((*model.Planting)(nil)).
		Where("plt.plant_type_id = ?", plantTypeID).
		Count(ctx)
}

func notFound(entity string, id uuid.UUID) error {
	return errors.New(entity+" not found", errors.CategoryNotFound).
		WithTextCode("RECORD_NOT_FOUND").
		WithCode(errors.CodeNotFound).
		WithMetadata(map[string]any{
			"entity": entity,
			"id":     id.String(),
		})
}
