package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PlantType is shared reference data describing a crop variety.
type PlantType struct {
	bun.BaseModel `bun:"table:plant_types,alias:ptt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull,unique" json:"name,omitempty"`
	Category      string     `bun:"category,nullzero" json:"category,omitempty"`
	Difficulty    string     `bun:"difficulty,nullzero" json:"difficulty,omitempty"`
	Description   string     `bun:"description,nullzero" json:"description,omitempty"`
	DaysToHarvest *int       `bun:"days_to_harvest,nullzero" json:"days_to_harvest,omitempty"`
	AverageYield  *float64   `bun:"average_yield,nullzero" json:"average_yield,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     time.Time  `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}
