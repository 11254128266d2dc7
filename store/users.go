package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users provides account persistence. Simple single-row operations go
// through the generic repository; the cascading account delete needs raw
// multi-table statements and runs its own transaction.
type Users struct {
	db   *bun.DB
	repo repository.Repository[*User]
}

// NewUsers creates the users store.
func NewUsers(db *bun.DB) *Users {
	handlers := repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string { return "email" },
	}
	return &Users{
		db:   db,
		repo: repository.NewRepository[*User](db, handlers),
	}
}

// Register creates an account with the given bcrypt hash. A taken email
// yields ErrConflict. The pre-check gives the common case a clean error;
// the unique constraint catches the race where two registrations for the
// same email both pass it.
func (s *Users) Register(ctx context.Context, username, email, passwordHash string) (*User, error) {
	if _, err := s.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email %q", ErrConflict, email)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	u := &User{
		ID:        uuid.New(),
		Username:  username,
		Email:     email,
		Password:  passwordHash,
		CreatedAt: time.Now().UTC(),
	}
	created, err := s.repo.Create(ctx, u)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email %q", ErrConflict, email)
		}
		return nil, err
	}
	return created, nil
}

// GetByEmail looks an account up by its email identifier.
func (s *Users) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := s.repo.GetByIdentifier(ctx, email)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return u, nil
}

// GetByID looks an account up by id.
func (s *Users) GetByID(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return u, nil
}

// Update persists changes to an existing account.
func (s *Users) Update(ctx context.Context, u *User) (*User, error) {
	updated, err := s.repo.Update(ctx, u)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return updated, nil
}

// Delete removes the account and everything hanging off it: ingredient
// lines, images, and reviews of the user's recipes, then the recipes, then
// the account row. All in one transaction, mirroring what a cascading
// foreign key would do.
func (s *Users) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		owned := tx.NewSelect().Model((*Recipe)(nil)).Column("id").Where("user_id = ?", uid)

		if _, err := tx.NewDelete().Model((*Ingredient)(nil)).Where("recipe_id IN (?)", owned).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*RecipeImage)(nil)).Where("recipe_id IN (?)", owned).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*Review)(nil)).Where("recipe_id IN (?)", owned).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*Recipe)(nil)).Where("user_id = ?", uid).Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().Model((*User)(nil)).Where("id = ?", uid).Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func mapNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
