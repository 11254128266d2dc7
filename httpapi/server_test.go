package httpapi

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/plateful/plateful/internal/kvinfra"
	"github.com/plateful/plateful/session"
	"github.com/plateful/plateful/store"
	"github.com/plateful/plateful/webcache"
)

type testServer struct {
	*Server
	users    *fakeUsers
	recipes  *fakeRecipes
	reviews  *fakeReviews
	sessions *session.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mem, err := kvinfra.NewMemoryStore(kvinfra.DefaultConfig())
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := &fakeUsers{byID: map[string]*store.User{}}
	recipes := &fakeRecipes{}
	reviews := &fakeReviews{}
	sessions := session.New(mem, logger)

	srv := New(Deps{
		Users:       users,
		Recipes:     recipes,
		Reviews:     reviews,
		Sessions:    sessions,
		Cache:       webcache.NewResponseCache(mem, logger),
		Invalidator: webcache.NewInvalidator(mem, logger),
		Logger:      logger,
	}, webcache.DefaultTTL)

	return &testServer{Server: srv, users: users, recipes: recipes, reviews: reviews, sessions: sessions}
}

// login seeds a session directly, bypassing the credential exchange.
func (ts *testServer) login(t *testing.T, userID string) string {
	t.Helper()

	token, err := ts.sessions.Create(context.Background(), userID)
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return token
}

func (ts *testServer) do(method, target, token string, body []byte) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(TokenHeader, token)
	}
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

// fakeUsers is an in-memory Users implementation.
type fakeUsers struct {
	mu   sync.Mutex
	byID map[string]*store.User
}

func (f *fakeUsers) Register(ctx context.Context, username, email, passwordHash string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return nil, store.ErrConflict
		}
	}
	u := &store.User{
		ID:        uuid.New(),
		Username:  username,
		Email:     email,
		Password:  passwordHash,
		CreatedAt: time.Now().UTC(),
	}
	f.byID[u.ID.String()] = u
	return u, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) Update(ctx context.Context, u *store.User) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[u.ID.String()]; !ok {
		return nil, store.ErrNotFound
	}
	f.byID[u.ID.String()] = u
	return u, nil
}

func (f *fakeUsers) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeRecipes is an in-memory Recipes implementation that counts List calls
// so tests can observe cache hits and invalidations.
type fakeRecipes struct {
	mu        sync.Mutex
	recipes   []*store.Recipe
	listCalls atomic.Int64
}

func (f *fakeRecipes) Create(ctx context.Context, userID string, in store.RecipeInput) (*store.Recipe, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, store.ErrNotFound
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	r := &store.Recipe{
		ID:          uuid.New(),
		Title:       in.Title,
		Description: in.Description,
		CookingTime: in.CookingTime,
		Servings:    in.Servings,
		UserID:      uid,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, ing := range in.Ingredients {
		r.Ingredients = append(r.Ingredients, &store.Ingredient{
			RecipeID: r.ID, Name: ing.Name, Quantity: ing.Quantity, Unit: ing.Unit,
		})
	}
	f.recipes = append(f.recipes, r)
	return r, nil
}

func (f *fakeRecipes) List(ctx context.Context) ([]*store.Recipe, error) {
	f.listCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*store.Recipe(nil), f.recipes...), nil
}

func (f *fakeRecipes) ListByUser(ctx context.Context, userID string) ([]*store.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*store.Recipe
	for _, r := range f.recipes {
		if r.UserID.String() == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecipes) Get(ctx context.Context, id string) (*store.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.recipes {
		if r.ID.String() == id {
			return r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeRecipes) Update(ctx context.Context, id, userID string, in store.RecipeInput) (*store.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.recipes {
		if r.ID.String() != id {
			continue
		}
		if r.UserID.String() != userID {
			return nil, store.ErrForbidden
		}
		r.Title = in.Title
		r.Description = in.Description
		r.CookingTime = in.CookingTime
		r.Servings = in.Servings
		r.UpdatedAt = time.Now().UTC()
		return r, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeRecipes) Delete(ctx context.Context, id, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.recipes {
		if r.ID.String() != id {
			continue
		}
		if r.UserID.String() != userID {
			return store.ErrForbidden
		}
		f.recipes = append(f.recipes[:i], f.recipes[i+1:]...)
		return nil
	}
	return store.ErrNotFound
}

// fakeReviews is an in-memory Reviews implementation.
type fakeReviews struct {
	mu      sync.Mutex
	nextID  int64
	reviews []*store.Review
}

func (f *fakeReviews) Create(ctx context.Context, userID, recipeID string, rating int, comment string) (*store.Review, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, store.ErrNotFound
	}
	rid, err := uuid.Parse(recipeID)
	if err != nil {
		return nil, store.ErrNotFound
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.RecipeID == rid && r.UserID == uid {
			return nil, store.ErrConflict
		}
	}
	f.nextID++
	review := &store.Review{
		ID: f.nextID, RecipeID: rid, UserID: uid, Rating: rating, Comment: comment,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	f.reviews = append(f.reviews, review)
	return review, nil
}

func (f *fakeReviews) ListForRecipe(ctx context.Context, recipeID string) ([]*store.Review, error) {
	rid, err := uuid.Parse(recipeID)
	if err != nil {
		return nil, store.ErrNotFound
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*store.Review
	for _, r := range f.reviews {
		if r.RecipeID == rid {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReviews) Update(ctx context.Context, reviewID int64, userID string, rating int, comment string) (*store.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.ID != reviewID {
			continue
		}
		if r.UserID.String() != userID {
			return nil, store.ErrForbidden
		}
		r.Rating = rating
		r.Comment = comment
		r.UpdatedAt = time.Now().UTC()
		return r, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeReviews) Delete(ctx context.Context, reviewID int64, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.reviews {
		if r.ID != reviewID {
			continue
		}
		if r.UserID.String() != userID {
			return "", store.ErrForbidden
		}
		f.reviews = append(f.reviews[:i], f.reviews[i+1:]...)
		return r.RecipeID.String(), nil
	}
	return "", store.ErrNotFound
}

func mustStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, want, rec.Body.String())
	}
}
