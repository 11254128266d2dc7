package webcache

import "path"

// Namespace prefixes every response-cache key so cache entries can never
// collide with session keys, and so one glob can clear the whole cache.
const Namespace = "__cache__"

// ResponseKey derives the cache key for a GET request from its normalized
// path and exact query string. The same URL always produces the same key;
// two URLs differing only in a trailing slash produce the same key too.
func ResponseKey(reqPath, rawQuery string) string {
	p := path.Clean("/" + reqPath)
	if rawQuery == "" {
		return Namespace + p
	}
	return Namespace + p + "?" + rawQuery
}

// The builders below are the only way write handlers name the entries they
// invalidate. Hand-rolled glob strings at call sites are how entries get
// orphaned, so every namespace gets a named constructor instead.

// RecipeListPattern matches every cached recipe listing, including
// query-string variants. It also sweeps cached review listings, which share
// the /recipes prefix; clearing those too is harmless over-invalidation.
func RecipeListPattern() string {
	return Namespace + "/api/recipes*"
}

// RecipeDetailPattern matches every cached variant of one recipe's detail
// response. The middleware keys each query-string variant separately, so an
// exact-key delete would leave `?foo=bar` variants serving the pre-write
// response until their TTL; invalidation must sweep the whole variant set.
func RecipeDetailPattern(recipeID string) string {
	return Namespace + "/api/recipe/" + recipeID + "*"
}

// RecipeReviewsKey is the cache key for one recipe's review listing.
func RecipeReviewsKey(recipeID string) string {
	return Namespace + "/api/recipes/" + recipeID + "/reviews"
}

// RecipeTreePattern matches every cached recipe-related response: listings,
// details, and review listings. Used when a whole account and its recipes
// are deleted and per-recipe targeting would be unbounded.
func RecipeTreePattern() string {
	return Namespace + "/api/recipe*"
}
