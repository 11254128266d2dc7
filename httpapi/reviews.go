package httpapi

import (
	"net/http"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/labstack/echo/v4"

	"github.com/plateful/plateful/webcache"
)

type createReviewRequest struct {
	RecipeID string `json:"recipe_id"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
}

func (r createReviewRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RecipeID, validation.Required),
		validation.Field(&r.Rating, validation.Required, validation.Min(1), validation.Max(5)),
	)
}

type updateReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (r updateReviewRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Rating, validation.Required, validation.Min(1), validation.Max(5)),
	)
}

// reviewPatterns names every cache entry a review write dirties: the
// recipe's review listing, its detail (embedded rating aggregates), and the
// listings that expose average_rating.
func reviewPatterns(recipeID string) []string {
	return []string{
		webcache.RecipeReviewsKey(recipeID),
		webcache.RecipeDetailPattern(recipeID),
		webcache.RecipeListPattern(),
	}
}

func (s *Server) listReviews(c echo.Context) error {
	reviews, err := s.reviews.ListForRecipe(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.domainError(c, err, "Error fetching reviews")
	}
	return c.JSON(http.StatusOK, echo.Map{"reviews": reviews})
}

func (s *Server) createReview(c echo.Context) error {
	var req createReviewRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid review data")
	}
	if err := req.Validate(); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	review, err := s.reviews.Create(c.Request().Context(), UserID(c), req.RecipeID, req.Rating, req.Comment)
	if err != nil {
		return s.domainError(c, err, "You have already reviewed this recipe")
	}

	s.invalidate(c, reviewPatterns(req.RecipeID)...)
	return c.JSON(http.StatusCreated, echo.Map{"message": "Review created successfully", "id": review.ID})
}

func (s *Server) updateReview(c echo.Context) error {
	reviewID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusNotFound, "Review not found")
	}

	var req updateReviewRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid rating")
	}
	if err := req.Validate(); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	review, err := s.reviews.Update(c.Request().Context(), reviewID, UserID(c), req.Rating, req.Comment)
	if err != nil {
		return s.domainError(c, err, "Unauthorized to update this review")
	}

	s.invalidate(c, reviewPatterns(review.RecipeID.String())...)
	return c.JSON(http.StatusOK, echo.Map{"message": "Review updated successfully"})
}

func (s *Server) deleteReview(c echo.Context) error {
	reviewID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusNotFound, "Review not found")
	}

	recipeID, err := s.reviews.Delete(c.Request().Context(), reviewID, UserID(c))
	if err != nil {
		return s.domainError(c, err, "Unauthorized to delete this review")
	}

	s.invalidate(c, reviewPatterns(recipeID)...)
	return c.JSON(http.StatusOK, echo.Map{"message": "Review deleted successfully"})
}
