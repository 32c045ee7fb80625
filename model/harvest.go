package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Harvest is a cut taken from a planting. Weight is grams; TotalValue is
// derived from weight and price at creation time.
type Harvest struct {
	bun.BaseModel `bun:"table:harvests,alias:hrv"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	PlantingID    uuid.UUID `bun:"planting_id,notnull,type:uuid" json:"planting_id,omitempty"`
	Planting      *Planting `bun:"rel:belongs-to,join:planting_id=id" json:"planting,omitempty"`

	HarvestDate  time.Time `bun:"harvest_date,notnull" json:"harvest_date"`
	Weight       float64   `bun:"weight,notnull" json:"weight"`
	Quality      string    `bun:"quality,nullzero" json:"quality,omitempty"`
	Notes        string    `bun:"notes,nullzero" json:"notes,omitempty"`
	PricePerGram *float64  `bun:"price_per_gram,nullzero" json:"price_per_gram,omitempty"`
	TotalValue   *float64  `bun:"total_value,nullzero" json:"total_value,omitempty"`

	// 1-5 tasting scores
	Appearance *int `bun:"appearance,nullzero" json:"appearance,omitempty"`
	Taste      *int `bun:"taste,nullzero" json:"taste,omitempty"`
	Freshness  *int `bun:"freshness,nullzero" json:"freshness,omitempty"`

	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt time.Time  `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}
