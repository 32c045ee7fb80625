package repository

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/croplog/croplog/model"
)

// Users persists identities. It satisfies auth.IdentityStore.
type Users struct {
	repo repository.Repository[*model.User]
	db   *bun.DB
}

// NewUsers creates the users repository
func NewUsers(db *bun.DB) *Users {
	repo := repository.NewRepository[*model.User](db, repository.ModelHandlers[*model.User]{
		NewRecord: func() *model.User { return &model.User{} },
		GetID: func(u *model.User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *model.User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &Users{repo: repo, db: db}
}

// FindByEmail returns the live identity for email
func (r *Users) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, false, "?TableAlias.email = ?", email)
}

// FindByEmailAny matches soft-deleted rows too. Registration checks
// against it so a deleted account's email stays reserved.
func (r *Users) FindByEmailAny(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, true, "?TableAlias.email = ?", email)
}

// FindByID returns the live identity for id
func (r *Users) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.findOne(ctx, false, "?TableAlias.id = ?", id)
}

func (r *Users) findOne(ctx context.Context, includeDeleted bool, where string, args ...any) (*model.User, error) {
	record := &model.User{}
	q := r.db.NewSelect().Model(record)
	if includeDeleted {
		q.WhereAllWithDeleted()
	}

	err := q.Where(where, args...).Limit(1).Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) || stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("user not found", errors.CategoryNotFound).
				WithTextCode("RECORD_NOT_FOUND").
				WithCode(errors.CodeNotFound).
				WithMetadata(map[string]any{
					"entity": "user",
				})
		}
		return nil, err
	}

	return record, nil
}

// Create inserts a new identity
func (r *Users) Create(ctx context.Context, user *model.User) (*model.User, error) {
	return r.repo.Create(ctx, user)
}

// Update persists changes to an existing identity
func (r *Users) Update(ctx context.Context, user *model.User) (*model.User, error) {
	return r.repo.Update(ctx, user, repository.UpdateByID(user.ID.String()))
}

// CountPlantings returns how many live plantings belong to userID
func (r *Users) CountPlantings(ctx context.Context, userID uuid.UUID) (int, error) {
	return r.db.NewSelect().
		Model((*model.Planting)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Count(ctx)
}
