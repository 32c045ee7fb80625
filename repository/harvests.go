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

// HarvestFilter narrows harvest listings
type HarvestFilter struct {
	PlantingID *uuid.UUID
	Limit      int
	Offset     int
}

// Harvests persists harvest records
type Harvests struct {
	db *bun.DB
}

// NewHarvests creates the harvests repository
func NewHarvests(db *bun.DB) *Harvests {
	return &Harvests{db: db}
}

// List returns harvests matching filter, newest first, with the total
// count before pagination.
func (r *Harvests) List(ctx context.Context, filter HarvestFilter) ([]*model.Harvest, int, error) {
	var records []*model.Harvest

	q := r.db.NewSelect().
		Model(&records).
		Relation("Planting")

	if filter.PlantingID != nil {
		q.Where("hrv.planting_id = ?", *filter.PlantingID)
	}

	total, err := q.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	q.Order("hrv.harvest_date DESC")

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

// FindByID returns a harvest with its planting loaded
func (r *Harvests) FindByID(ctx context.Context, id uuid.UUID) (*model.Harvest, error) {
	record := &model.Harvest{}
	err := r.db.NewSelect().
		Model(record).
		Relation("Planting").
		Where("hrv.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("harvest", id)
		}
		return nil, err
	}
	return record, nil
}

// Create inserts a harvest
func (r *Harvests) Create(ctx context.Context, record *model.Harvest) (*model.Harvest, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, record.ID)
}

// Update persists changes to a harvest
func (r *Harvests) Update(ctx context.Context, record *model.Harvest) (*model.Harvest, error) {
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
		return nil, notFound("harvest", record.ID)
	}
	return r.FindByID(ctx, record.ID)
}

// Delete soft-deletes a harvest
func (r *Harvests) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*model.Harvest)(nil)).
		Where("hrv.id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return notFound("harvest", id)
	}
	return nil
}

// CountForPlanting returns how many live harvests a planting has
func (r *Harvests) CountForPlanting(ctx context.Context, plantingID uuid.UUID) (int, error) {
	return r.db.NewSelect().
		Model((*model.Harvest)(nil)).
		Where("hrv.planting_id = ?", plantingID).
		Count(ctx)
}
