package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PlantingStatus tracks a tray through its growing cycle
type PlantingStatus = string

const (
	StatusPlanted   PlantingStatus = "PLANTED"
	StatusGrowing   PlantingStatus = "GROWING"
	StatusHarvested PlantingStatus = "HARVESTED"
)

// Planting is a single sown tray or batch.
type Planting struct {
	bun.BaseModel `bun:"table:plantings,alias:plt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	PlantTypeID   *uuid.UUID `bun:"plant_type_id,nullzero,type:uuid" json:"plant_type_id,omitempty"`
	PlantType     *PlantType `bun:"rel:belongs-to,join:plant_type_id=id" json:"plant_type,omitempty"`

	// PlantName is the legacy free-text name kept for records that predate
	// plant type references.
	PlantName string `bun:"plant_name,nullzero" json:"plant_name,omitempty"`

	DatePlanted     time.Time  `bun:"date_planted,notnull" json:"date_planted"`
	ExpectedHarvest *time.Time `bun:"expected_harvest,nullzero" json:"expected_harvest,omitempty"`
	DomeDate        *time.Time `bun:"dome_date,nullzero" json:"dome_date,omitempty"`
	LightDate       *time.Time `bun:"light_date,nullzero" json:"light_date,omitempty"`

	Quantity  *int           `bun:"quantity,nullzero" json:"quantity,omitempty"`
	Yield     *float64       `bun:"yield,nullzero" json:"yield,omitempty"`
	Notes     string         `bun:"notes,nullzero" json:"notes,omitempty"`
	Status    PlantingStatus `bun:"status,notnull,default:'PLANTED'" json:"status,omitempty"`
	TrayNumber string        `bun:"tray_number,nullzero" json:"tray_number,omitempty"`

	// Growing conditions
	Substrate    string `bun:"substrate,nullzero" json:"substrate,omitempty"`
	IrrigationMl *int   `bun:"irrigation_ml,nullzero" json:"irrigation_ml,omitempty"`
	SoakingHours *int   `bun:"soaking_hours,nullzero" json:"soaking_hours,omitempty"`

	Harvests []*Harvest `bun:"rel:has-many,join:id=planting_id" json:"harvests,omitempty"`

	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt time.Time  `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}
