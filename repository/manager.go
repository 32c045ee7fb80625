package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// Manager exposes all repositories and shared transaction handling
type Manager struct {
	db         *bun.DB
	users      *Users
	plantings  *Plantings
	plantTypes *PlantTypes
	harvests   *Harvests
}

// NewManager builds every repository over one bun DB
func NewManager(db *bun.DB) *Manager {
	return &Manager{
		db:         db,
		users:      NewUsers(db),
		plantings:  NewPlantings(db),
		plantTypes: NewPlantTypes(db),
		harvests:   NewHarvests(db),
	}
}

// Validate checks every repository is initialized
func (m *Manager) Validate() error {
	if m.db == nil {
		return errors.New("repository manager requires a database")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.plantings == nil {
		return errors.New("repository plantings should be initialized")
	}

	if m.plantTypes == nil {
		return errors.New("repository plantTypes should be initialized")
	}

	if m.harvests == nil {
		return errors.New("repository harvests should be initialized")
	}

	return nil
}

// MustValidate panics if Validate fails
func (m *Manager) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

// RunInTx executes f inside a transaction
func (m *Manager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

// DB returns the underlying database handle
func (m *Manager) DB() *bun.DB {
	return m.db
}

// Users returns the users repository
func (m *Manager) Users() *Users {
	return m.users
}

// Plantings returns the plantings repository
func (m *Manager) Plantings() *Plantings {
	return m.plantings
}

// PlantTypes returns the plant types repository
func (m *Manager) PlantTypes() *PlantTypes {
	return m.plantTypes
}

// Harvests returns the harvests repository
func (m *Manager) Harvests() *Harvests {
	return m.harvests
}
