package goidc

import (
	"net/http"
)

// CacheControlMiddleware prevents introspection responses from being cached.
func CacheControlMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(HeaderCacheControl, "no-store")
		w.Header().Set(HeaderPragma, "no-cache")

		next.ServeHTTP(w, r)
	})
}
