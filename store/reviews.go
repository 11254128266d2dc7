package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Reviews provides review persistence. Every write recomputes the owning
// recipe's rating aggregates inside the same transaction, so a committed
// review and its recipe row never disagree.
type Reviews struct {
	db *bun.DB
}

// NewReviews creates the reviews store.
func NewReviews(db *bun.DB) *Reviews {
	return &Reviews{db: db}
}

// Create inserts a review. One review per user per recipe; a second attempt
// yields ErrConflict. Reviewing an unknown recipe yields ErrNotFound.
func (s *Reviews) Create(ctx context.Context, userID, recipeID string, rating int, comment string) (*Review, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	rid, err := uuid.Parse(recipeID)
	if err != nil {
		return nil, ErrNotFound
	}

	now := time.Now().UTC()
	review := &Review{
		RecipeID:  rid,
		UserID:    uid,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*Recipe)(nil)).Where("id = ?", rid).Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}

		dup, err := tx.NewSelect().Model((*Review)(nil)).
			Where("recipe_id = ? AND user_id = ?", rid, uid).
			Exists(ctx)
		if err != nil {
			return err
		}
		if dup {
			return ErrConflict
		}

		if _, err := tx.NewInsert().Model(review).Exec(ctx); err != nil {
			return err
		}
		return recomputeRating(ctx, tx, rid)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// ListForRecipe returns a recipe's reviews with reviewer usernames, newest
// first.
func (s *Reviews) ListForRecipe(ctx context.Context, recipeID string) ([]*Review, error) {
	rid, err := uuid.Parse(recipeID)
	if err != nil {
		return nil, ErrNotFound
	}

	var reviews []*Review
	err = s.db.NewSelect().
		Model(&reviews).
		ColumnExpr("rev.*").
		ColumnExpr("u.username AS username").
		Join("JOIN users AS u ON u.id = rev.user_id").
		Where("rev.recipe_id = ?", rid).
		Order("rev.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// Update rewrites the rating and comment of the caller's own review and
// returns the updated row, which carries the recipe id the caller needs for
// invalidation.
func (s *Reviews) Update(ctx context.Context, reviewID int64, userID string, rating int, comment string) (*Review, error) {
	review := new(Review)

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := fetchOwned(ctx, tx, review, reviewID, userID); err != nil {
			return err
		}

		review.Rating = rating
		review.Comment = comment
		review.UpdatedAt = time.Now().UTC()
		_, err := tx.NewUpdate().Model(review).
			Column("rating", "comment", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return err
		}
		return recomputeRating(ctx, tx, review.RecipeID)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// Delete removes the caller's own review and returns the recipe id it
// belonged to.
func (s *Reviews) Delete(ctx context.Context, reviewID int64, userID string) (string, error) {
	review := new(Review)

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := fetchOwned(ctx, tx, review, reviewID, userID); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model(review).WherePK().Exec(ctx); err != nil {
			return err
		}
		return recomputeRating(ctx, tx, review.RecipeID)
	})
	if err != nil {
		return "", err
	}
	return review.RecipeID.String(), nil
}

func fetchOwned(ctx context.Context, tx bun.Tx, review *Review, reviewID int64, userID string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return ErrNotFound
	}

	err = tx.NewSelect().Model(review).Where("rev.id = ?", reviewID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if review.UserID != uid {
		return ErrForbidden
	}
	return nil
}

func recomputeRating(ctx context.Context, tx bun.Tx, recipeID uuid.UUID) error {
	var agg struct {
		Count int     `bun:"review_count"`
		Avg   float64 `bun:"average_rating"`
	}
	err := tx.NewSelect().Model((*Review)(nil)).
		ColumnExpr("count(*) AS review_count").
		ColumnExpr("coalesce(avg(rating), 0) AS average_rating").
		Where("recipe_id = ?", recipeID).
		Scan(ctx, &agg)
	if err != nil {
		return err
	}

	_, err = tx.NewUpdate().Model((*Recipe)(nil)).
		Set("average_rating = ?", agg.Avg).
		Set("review_count = ?", agg.Count).
		Where("id = ?", recipeID).
		Exec(ctx)
	return err
}
