package httpapi

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/labstack/echo/v4"

	"github.com/plateful/plateful/store"
	"github.com/plateful/plateful/webcache"
)

type ingredientRequest struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
}

func (r ingredientRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
	)
}

type recipeRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	CookingTime int                 `json:"cooking_time"`
	Servings    int                 `json:"servings"`
	Ingredients []ingredientRequest `json:"ingredients"`
	ImageURLs   []string            `json:"image_urls"`
}

func (r recipeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Required),
		validation.Field(&r.CookingTime, validation.Required, validation.Min(1)),
		validation.Field(&r.Servings, validation.Required, validation.Min(1)),
		validation.Field(&r.Ingredients, validation.Required, validation.Length(1, 0)),
	)
}

func (r recipeRequest) input() store.RecipeInput {
	in := store.RecipeInput{
		Title:       r.Title,
		Description: r.Description,
		CookingTime: r.CookingTime,
		Servings:    r.Servings,
		ImageURLs:   r.ImageURLs,
	}
	for _, ing := range r.Ingredients {
		in.Ingredients = append(in.Ingredients, store.IngredientInput{
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
		})
	}
	return in
}

func (s *Server) listRecipes(c echo.Context) error {
	recipes, err := s.recipes.List(c.Request().Context())
	if err != nil {
		return s.domainError(c, err, "Could not fetch Recipes")
	}
	return c.JSON(http.StatusOK, echo.Map{"recipes": recipes})
}

func (s *Server) showRecipe(c echo.Context) error {
	recipe, err := s.recipes.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.domainError(c, err, "Recipe not found")
	}
	return c.JSON(http.StatusOK, recipe)
}

func (s *Server) createRecipe(c echo.Context) error {
	var req recipeRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Missing values")
	}
	if err := req.Validate(); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	recipe, err := s.recipes.Create(c.Request().Context(), UserID(c), req.input())
	if err != nil {
		return s.domainError(c, err, "Error creating recipe")
	}

	// No detail entry for a brand-new recipe can exist yet, but sweeping
	// its pattern is a free no-op and keeps create and update symmetric.
	s.invalidate(c, webcache.RecipeListPattern(), webcache.RecipeDetailPattern(recipe.ID.String()))
	return c.JSON(http.StatusCreated, echo.Map{"message": "Recipe created successfully", "id": recipe.ID})
}

func (s *Server) updateRecipe(c echo.Context) error {
	var req recipeRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Missing values")
	}
	if err := req.Validate(); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	id := c.Param("id")
	if _, err := s.recipes.Update(c.Request().Context(), id, UserID(c), req.input()); err != nil {
		return s.domainError(c, err, "Unauthorized to update this recipe")
	}

	s.invalidate(c, webcache.RecipeListPattern(), webcache.RecipeDetailPattern(id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Recipe updated successfully"})
}

func (s *Server) deleteRecipe(c echo.Context) error {
	id := c.Param("id")
	if err := s.recipes.Delete(c.Request().Context(), id, UserID(c)); err != nil {
		return s.domainError(c, err, "Unauthorized to delete this recipe")
	}

	s.invalidate(c,
		webcache.RecipeListPattern(),
		webcache.RecipeDetailPattern(id),
		webcache.RecipeReviewsKey(id),
	)
	return c.JSON(http.StatusOK, echo.Map{"message": "Recipe and all associated data deleted successfully"})
}
