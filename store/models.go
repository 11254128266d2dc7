package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is an account. The password column holds a bcrypt hash and never
// leaves the API.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Username  string    `bun:"username,notnull" json:"username"`
	Email     string    `bun:"email,notnull,unique" json:"email"`
	Password  string    `bun:"password,notnull" json:"-"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull" json:"created_at"`
}

// Recipe carries denormalized rating aggregates maintained by the review
// write paths, so listings never join against reviews.
type Recipe struct {
	bun.BaseModel `bun:"table:recipes,alias:r"`

	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Title         string    `bun:"title,notnull" json:"title"`
	Description   string    `bun:"description,notnull" json:"description"`
	CookingTime   int       `bun:"cooking_time,notnull" json:"cooking_time"`
	Servings      int       `bun:"servings,notnull" json:"servings"`
	UserID        uuid.UUID `bun:"user_id,type:uuid,notnull" json:"user_id"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull" json:"updated_at"`
	AverageRating float64   `bun:"average_rating,notnull,default:0" json:"average_rating"`
	ReviewCount   int       `bun:"review_count,notnull,default:0" json:"review_count"`

	Ingredients []*Ingredient  `bun:"rel:has-many,join:id=recipe_id" json:"ingredients"`
	Images      []*RecipeImage `bun:"rel:has-many,join:id=recipe_id" json:"images"`
}

// Ingredient is one line of a recipe's ingredient list.
type Ingredient struct {
	bun.BaseModel `bun:"table:recipe_ingredients,alias:ri"`

	ID       int64     `bun:"id,pk,autoincrement" json:"-"`
	RecipeID uuid.UUID `bun:"recipe_id,type:uuid,notnull" json:"-"`
	Name     string    `bun:"ingredient_name,notnull" json:"name"`
	Quantity string    `bun:"quantity" json:"quantity"`
	Unit     string    `bun:"unit" json:"unit"`
}

// RecipeImage is one image URL attached to a recipe.
type RecipeImage struct {
	bun.BaseModel `bun:"table:recipe_images,alias:img"`

	ID       uuid.UUID `bun:"id,pk,type:uuid" json:"-"`
	RecipeID uuid.UUID `bun:"recipe_id,type:uuid,notnull" json:"-"`
	URL      string    `bun:"image_url,notnull" json:"image_url"`
}

// Review is a rating plus optional comment, one per user per recipe.
// Username is populated only by queries that join users.
type Review struct {
	bun.BaseModel `bun:"table:reviews,alias:rev"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	RecipeID  uuid.UUID `bun:"recipe_id,type:uuid,notnull" json:"recipe_id"`
	UserID    uuid.UUID `bun:"user_id,type:uuid,notnull" json:"user_id"`
	Rating    int       `bun:"rating,notnull" json:"rating"`
	Comment   string    `bun:"comment" json:"comment"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull" json:"updated_at"`

	Username string `bun:"username,scanonly" json:"username,omitempty"`
}
