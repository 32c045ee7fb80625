package repository

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/croplog/croplog/model"
)

// EnsureSchema creates any missing tables. Ordering matters for the
// foreign keys: users and plant types before plantings, plantings
// before harvests.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*model.User)(nil),
		(*model.PlantType)(nil),
		(*model.Planting)(nil),
		(*model.Harvest)(nil),
	}

	for _, m := range models {
		if _, err := db.NewCreateTable().
			Model(m).
			IfNotExists().
			WithForeignKeys().
			Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}
