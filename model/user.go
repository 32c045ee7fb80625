package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role is the user's global role
type Role = string

const (
	// RoleGrower is the default role assigned at registration
	RoleGrower Role = "GROWER"
	// RoleAdmin can manage shared reference data such as plant types
	RoleAdmin Role = "ADMIN"
)

// ValidRole checks the role against the closed set
func ValidRole(r string) bool {
	switch r {
	case RoleGrower, RoleAdmin:
		return true
	default:
		return false
	}
}

// AllRoles returns every recognized role
func AllRoles() []Role {
	return []Role{RoleGrower, RoleAdmin}
}

// User is the persisted principal. Users are never hard-deleted; DeletedAt
// excludes them from lookups.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Role          Role       `bun:"user_role,notnull" json:"role,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     time.Time  `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// Profile is the user shape returned to clients. The password hash never
// leaves the repository layer.
type Profile struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	Role           Role       `json:"role"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
	PlantingsCount *int       `json:"plantings_count,omitempty"`
}

// Profile strips credentials from a user record.
func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
