package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/plateful/plateful/session"
)

// TokenHeader carries the session token on every authenticated request.
const TokenHeader = "X-Token"

const ctxUserID = "plateful.user_id"

// AuthGate rejects requests whose token does not resolve to a user before
// the handler ever runs, and attaches the resolved user id for handlers that
// do run. The gate itself is stateless; every resolution hits the session
// store so revocation is immediately visible.
//
// A missing, garbage, expired, or revoked token all answer the same 401.
// The 503 branch is reachable only when the session store runs with the
// Propagate failure policy.
func AuthGate(sessions *session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get(TokenHeader)

			userID, err := sessions.Resolve(c.Request().Context(), token)
			switch {
			case err == nil:
				c.Set(ctxUserID, userID)
				return next(c)
			case errors.Is(err, session.ErrNoSession):
				return errorJSON(c, http.StatusUnauthorized, "Unauthorized")
			default:
				return errorJSON(c, http.StatusServiceUnavailable, "Service Unavailable")
			}
		}
	}
}

// UserID returns the identity the gate attached, or "" on an ungated route.
func UserID(c echo.Context) string {
	userID, _ := c.Get(ctxUserID).(string)
	return userID
}
