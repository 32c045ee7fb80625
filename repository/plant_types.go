package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/croplog/croplog/model"
)

// PlantTypeFilter narrows plant type listings
type PlantTypeFilter struct {
	Category   string
	Difficulty string
}

// PlantTypes persists shared crop reference data
type PlantTypes struct {
	db *bun.DB
}

// NewPlantTypes creates the plant types repository
func NewPlantTypes(db *bun.DB) *PlantTypes {
	return &PlantTypes{db: db}
}

// List returns plant types matching filter, ordered by name
func (r *PlantTypes) List(ctx context.Context, filter PlantTypeFilter) ([]*model.PlantType, error) {
	var records []*model.PlantType

	q := r.db.NewSelect().Model(&records)

	if filter.Category != "" {
		q.Where("ptt.category = ?", filter.Category)
	}

	if filter.Difficulty != "" {
		q.Where("ptt.difficulty = ?", filter.Difficulty)
	}

	if err := q.Order("ptt.name ASC").Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}

// FindByID returns the plant type for id
func (r *PlantTypes) FindByID(ctx context.Context, id uuid.UUID) (*model.PlantType, error) {
	record := &model.PlantType{}
	err := r.db.NewSelect().
		Model(record).
		Where("ptt.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("plant type", id)
		}
		return nil, err
	}
	return record, nil
}

// Create inserts a plant type
func (r *PlantTypes) Create(ctx context.Context, record *model.PlantType) (*model.PlantType, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, record.ID)
}

// Update persists changes to a plant type
func (r *PlantTypes) Update(ctx context.Context, record *model.PlantType) (*model.PlantType, error) {
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
		return nil, notFound("plant type", record.ID)
	}
	return r.FindByID(ctx, record.ID)
}

// Delete soft-deletes a plant type
func (r *PlantTypes) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*model.PlantType)(nil)).
		Where("ptt.id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return notFound("plant type", id)
	}
	return nil
}
