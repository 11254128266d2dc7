// Package httpapi exposes the REST surface: routing, the auth gate, the
// cached read endpoints, and the write handlers that trigger cache
// invalidation after their transactions commit.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/plateful/plateful/session"
	"github.com/plateful/plateful/store"
	"github.com/plateful/plateful/webcache"
)

// Users is the account persistence the handlers depend on.
type Users interface {
	Register(ctx context.Context, username, email, passwordHash string) (*store.User, error)
	GetByEmail(ctx context.Context, email string) (*store.User, error)
	GetByID(ctx context.Context, id string) (*store.User, error)
	Update(ctx context.Context, u *store.User) (*store.User, error)
	Delete(ctx context.Context, id string) error
}

// Recipes is the recipe persistence the handlers depend on.
type Recipes interface {
	Create(ctx context.Context, userID string, in store.RecipeInput) (*store.Recipe, error)
	List(ctx context.Context) ([]*store.Recipe, error)
	ListByUser(ctx context.Context, userID string) ([]*store.Recipe, error)
	Get(ctx context.Context, id string) (*store.Recipe, error)
	Update(ctx context.Context, id, userID string, in store.RecipeInput) (*store.Recipe, error)
	Delete(ctx context.Context, id, userID string) error
}

// Reviews is the review persistence the handlers depend on.
type Reviews interface {
	Create(ctx context.Context, userID, recipeID string, rating int, comment string) (*store.Review, error)
	ListForRecipe(ctx context.Context, recipeID string) ([]*store.Review, error)
	Update(ctx context.Context, reviewID int64, userID string, rating int, comment string) (*store.Review, error)
	Delete(ctx context.Context, reviewID int64, userID string) (string, error)
}

// Deps are the collaborators a Server is wired with. Everything is injected;
// the server holds no global state.
type Deps struct {
	Users       Users
	Recipes     Recipes
	Reviews     Reviews
	Sessions    *session.Store
	Cache       *webcache.ResponseCache
	Invalidator *webcache.Invalidator
	Logger      *slog.Logger
}

// Server is the HTTP API.
type Server struct {
	echo        *echo.Echo
	users       Users
	recipes     Recipes
	reviews     Reviews
	sessions    *session.Store
	invalidator *webcache.Invalidator
	logger      *slog.Logger
}

// New builds the server and mounts all routes under /api. Read endpoints for
// recipe listings, details, and reviews sit behind the response cache with
// the given TTL; protected endpoints sit behind the auth gate.
func New(deps Deps, cacheTTL time.Duration) *Server {
	if cacheTTL <= 0 {
		cacheTTL = webcache.DefaultTTL
	}

	s := &Server{
		echo:        echo.New(),
		users:       deps.Users,
		recipes:     deps.Recipes,
		reviews:     deps.Reviews,
		sessions:    deps.Sessions,
		invalidator: deps.Invalidator,
		logger:      deps.Logger,
	}

	e := s.echo
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	gate := AuthGate(s.sessions)
	cached := deps.Cache.Middleware(cacheTTL)

	api := e.Group("/api")

	api.POST("/users", s.register)
	api.GET("/me", s.me, gate)
	api.PUT("/me/update", s.updateProfile, gate)
	api.DELETE("/me", s.deleteMe, gate)
	api.GET("/me/recipes", s.myRecipes, gate)

	api.POST("/auth/login", s.login)
	api.GET("/auth/logout", s.logout, gate)

	api.GET("/recipes", s.listRecipes, cached)
	api.GET("/recipe/:id", s.showRecipe, cached)
	api.POST("/recipe", s.createRecipe, gate)
	api.PUT("/recipe/:id", s.updateRecipe, gate)
	api.DELETE("/recipe/:id", s.deleteRecipe, gate)

	api.GET("/recipes/:id/reviews", s.listReviews, cached)
	api.POST("/reviews", s.createReview, gate)
	api.PUT("/reviews/:id", s.updateReview, gate)
	api.DELETE("/reviews/:id", s.deleteReview, gate)

	return s
}

// Handler exposes the server as an http.Handler for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until the context is canceled, then drains.
func (s *Server) Start(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() {
		errc <- s.echo.Start(addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}

// domainError maps store error kinds onto the API's error body shape.
func (s *Server) domainError(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errorJSON(c, http.StatusNotFound, fallback)
	case errors.Is(err, store.ErrConflict):
		return errorJSON(c, http.StatusBadRequest, fallback)
	case errors.Is(err, store.ErrForbidden):
		return errorJSON(c, http.StatusForbidden, fallback)
	default:
		s.logger.Error("request failed", "path", c.Path(), "error", err)
		return errorJSON(c, http.StatusInternalServerError, fallback)
	}
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": msg})
}

// invalidate runs the post-commit cache invalidation for a write. Failures
// are logged inside the Invalidator and must not fail the request that
// already committed; the error return exists only for the logs.
func (s *Server) invalidate(c echo.Context, patterns ...string) {
	_ = s.invalidator.Invalidate(c.Request().Context(), patterns...)
}
