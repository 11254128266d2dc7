package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// login exchanges Basic credentials (email:password) for a session token.
// Every failure shape answers the same 401 so credentials cannot be probed.
func (s *Server) login(c echo.Context) error {
	email, password, ok := c.Request().BasicAuth()
	if !ok || email == "" || password == "" {
		return errorJSON(c, http.StatusUnauthorized, "Unauthorized")
	}

	ctx := c.Request().Context()
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return errorJSON(c, http.StatusUnauthorized, "Unauthorized")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return errorJSON(c, http.StatusUnauthorized, "Unauthorized")
	}

	token, err := s.sessions.Create(ctx, user.ID.String())
	if err != nil {
		s.logger.Error("session create failed", "error", err)
		return errorJSON(c, http.StatusInternalServerError, "Error logging in")
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// logout revokes the presented token. The gate already resolved it, so the
// revoke can only fail if the store went down in between.
func (s *Server) logout(c echo.Context) error {
	token := c.Request().Header.Get(TokenHeader)
	if err := s.sessions.Revoke(c.Request().Context(), token); err != nil {
		s.logger.Error("session revoke failed", "error", err)
		return errorJSON(c, http.StatusInternalServerError, "Error logging out")
	}
	return c.JSON(http.StatusOK, []any{})
}
