package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RecipeInput is everything a create or update supplies. Updates replace the
// ingredient and image lists wholesale.
type RecipeInput struct {
	Title       string
	Description string
	CookingTime int
	Servings    int
	Ingredients []IngredientInput
	ImageURLs   []string
}

// IngredientInput is one ingredient line of a RecipeInput.
type IngredientInput struct {
	Name     string
	Quantity string
	Unit     string
}

// Recipes provides recipe persistence. Every write that touches more than
// one table runs in a transaction so the cache layer is only ever told about
// committed state.
type Recipes struct {
	db *bun.DB
}

// NewRecipes creates the recipes store.
func NewRecipes(db *bun.DB) *Recipes {
	return &Recipes{db: db}
}

// Create inserts the recipe with its ingredient lines and images and returns
// the stored row.
func (s *Recipes) Create(ctx context.Context, userID string, in RecipeInput) (*Recipe, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrNotFound
	}

	now := time.Now().UTC()
	recipe := &Recipe{
		ID:          uuid.New(),
		Title:       in.Title,
		Description: in.Description,
		CookingTime: in.CookingTime,
		Servings:    in.Servings,
		UserID:      uid,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(recipe).Exec(ctx); err != nil {
			return err
		}
		return insertChildren(ctx, tx, recipe.ID, in)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, recipe.ID.String())
}

// List returns all recipes with their ingredients and images, newest first.
func (s *Recipes) List(ctx context.Context) ([]*Recipe, error) {
	var recipes []*Recipe
	err := s.db.NewSelect().
		Model(&recipes).
		Relation("Ingredients").
		Relation("Images").
		Order("r.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return recipes, nil
}

// ListByUser returns the recipes owned by one user, newest first.
func (s *Recipes) ListByUser(ctx context.Context, userID string) ([]*Recipe, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrNotFound
	}

	var recipes []*Recipe
	err = s.db.NewSelect().
		Model(&recipes).
		Relation("Ingredients").
		Relation("Images").
		Where("r.user_id = ?", uid).
		Order("r.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return recipes, nil
}

// Get returns one recipe with its ingredients and images.
func (s *Recipes) Get(ctx context.Context, id string) (*Recipe, error) {
	rid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	recipe := new(Recipe)
	err = s.db.NewSelect().
		Model(recipe).
		Relation("Ingredients").
		Relation("Images").
		Where("r.id = ?", rid).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// Update rewrites the recipe row and replaces its ingredient and image lists.
// Only the owner may update; anyone else gets ErrForbidden.
func (s *Recipes) Update(ctx context.Context, id, userID string, in RecipeInput) (*Recipe, error) {
	rid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := checkOwner(ctx, tx, rid, userID); err != nil {
			return err
		}

		_, err := tx.NewUpdate().Model((*Recipe)(nil)).
			Set("title = ?", in.Title).
			Set("description = ?", in.Description).
			Set("cooking_time = ?", in.CookingTime).
			Set("servings = ?", in.Servings).
			Set("updated_at = ?", time.Now().UTC()).
			Where("id = ?", rid).
			Exec(ctx)
		if err != nil {
			return err
		}

		if _, err := tx.NewDelete().Model((*Ingredient)(nil)).Where("recipe_id = ?", rid).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*RecipeImage)(nil)).Where("recipe_id = ?", rid).Exec(ctx); err != nil {
			return err
		}
		return insertChildren(ctx, tx, rid, in)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes the recipe, its children, and its reviews. Owner only.
func (s *Recipes) Delete(ctx context.Context, id, userID string) error {
	rid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := checkOwner(ctx, tx, rid, userID); err != nil {
			return err
		}

		for _, m := range []any{(*Ingredient)(nil), (*RecipeImage)(nil), (*Review)(nil)} {
			if _, err := tx.NewDelete().Model(m).Where("recipe_id = ?", rid).Exec(ctx); err != nil {
				return err
			}
		}
		_, err := tx.NewDelete().Model((*Recipe)(nil)).Where("id = ?", rid).Exec(ctx)
		return err
	})
}

func insertChildren(ctx context.Context, tx bun.Tx, recipeID uuid.UUID, in RecipeInput) error {
	if len(in.Ingredients) > 0 {
		lines := make([]*Ingredient, 0, len(in.Ingredients))
		for _, ing := range in.Ingredients {
			lines = append(lines, &Ingredient{
				RecipeID: recipeID,
				Name:     ing.Name,
				Quantity: ing.Quantity,
				Unit:     ing.Unit,
			})
		}
		if _, err := tx.NewInsert().Model(&lines).Exec(ctx); err != nil {
			return err
		}
	}

	if len(in.ImageURLs) > 0 {
		images := make([]*RecipeImage, 0, len(in.ImageURLs))
		for _, url := range in.ImageURLs {
			images = append(images, &RecipeImage{
				ID:       uuid.New(),
				RecipeID: recipeID,
				URL:      url,
			})
		}
		if _, err := tx.NewInsert().Model(&images).Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func checkOwner(ctx context.Context, tx bun.Tx, recipeID uuid.UUID, userID string) error {
	var owner string
	err := tx.NewSelect().Model((*Recipe)(nil)).Column("user_id").Where("id = ?", recipeID).Scan(ctx, &owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrForbidden
	}
	return nil
}
