package httpapi

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/plateful/plateful/webcache"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(2, 64)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 128)),
	)
}

type updateProfileRequest struct {
	Username    string `json:"username"`
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (r updateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Length(2, 64)),
		validation.Field(&r.NewPassword, validation.Length(8, 128), validation.Required.When(r.OldPassword != "")),
		validation.Field(&r.OldPassword, validation.Required.When(r.NewPassword != "")),
	)
}

func (s *Server) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Missing Values")
	}
	if err := req.Validate(); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return s.domainError(c, err, "Error Could not create user")
	}

	user, err := s.users.Register(c.Request().Context(), req.Username, req.Email, string(hash))
	if err != nil {
		return s.domainError(c, err, "User already exists")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}

func (s *Server) me(c echo.Context) error {
	user, err := s.users.GetByID(c.Request().Context(), UserID(c))
	if err != nil {
		return s.domainError(c, err, "Could not find user")
	}
	return c.JSON(http.StatusOK, user)
}

func (s *Server) updateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Missing Values")
	}
	if err := req.Validate(); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	user, err := s.users.GetByID(ctx, UserID(c))
	if err != nil {
		return s.domainError(c, err, "User not found")
	}

	changed := false
	if req.Username != "" && req.Username != user.Username {
		user.Username = req.Username
		changed = true
	}
	if req.OldPassword != "" && req.NewPassword != "" {
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)) != nil {
			return errorJSON(c, http.StatusBadRequest, "Incorrect old password")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return s.domainError(c, err, "Error updating user profile")
		}
		user.Password = string(hash)
		changed = true
	}

	if !changed {
		return c.JSON(http.StatusOK, echo.Map{"message": "No changes to update"})
	}
	if _, err := s.users.Update(ctx, user); err != nil {
		return s.domainError(c, err, "Error updating user profile")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Profile updated successfully"})
}

// deleteMe removes the account and all recipes hanging off it, then clears
// every cached recipe response in one namespace sweep. Per-recipe targeting
// is unbounded here, so the whole tree goes.
func (s *Server) deleteMe(c echo.Context) error {
	if err := s.users.Delete(c.Request().Context(), UserID(c)); err != nil {
		return s.domainError(c, err, "Failed to delete account")
	}
	s.invalidate(c, webcache.RecipeTreePattern())
	return c.JSON(http.StatusOK, echo.Map{"message": "Account and all associated data deleted successfully"})
}

// myRecipes is per-user and therefore deliberately uncached: a shared cache
// keyed by URL alone would leak one user's recipes to another.
func (s *Server) myRecipes(c echo.Context) error {
	recipes, err := s.recipes.ListByUser(c.Request().Context(), UserID(c))
	if err != nil {
		return s.domainError(c, err, "Could not fetch Recipes")
	}
	return c.JSON(http.StatusOK, echo.Map{"recipes": recipes})
}
