package middleware

import (
	"net/http"
	"slices"
	"strings"
)

// CacheHeader reports whether a response was served from the force cache.
const CacheHeader = "X-Cache"

// DefaultOrigins are the local viewer dev servers.
var DefaultOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

const (
	corsMethods = "GET, POST, DELETE, OPTIONS"
	corsHeaders = "Accept, Content-Type, " + RequestIDHeader
	corsExposed = RequestIDHeader + ", " + CacheHeader
	corsMaxAge  = "300"
)

// CORS allows browser viewers on the listed origins to call the API. An
// empty list falls back to DefaultOrigins and "*" allows any origin. The API
// is unauthenticated so credentials are never allowed. Preflight requests
// are answered with 204 and never reach next.
func CORS(origins []string) func(http.Handler) http.Handler {
	origins = trimOrigins(origins)
	if len(origins) == 0 {
		origins = DefaultOrigins
	}
	anyOrigin := slices.Contains(origins, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")
			if origin := r.Header.Get("Origin"); origin != "" && (anyOrigin || slices.Contains(origins, origin)) {
				h.Set("Access-Control-Allow-Origin", origin)
			}

			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", corsMethods)
				h.Set("Access-Control-Allow-Headers", corsHeaders)
				h.Set("Access-Control-Max-Age", corsMaxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			h.Set("Access-Control-Expose-Headers", corsExposed)
			next.ServeHTTP(w, r)
		})
	}
}

// trimOrigins drops blanks and trailing slashes from configured origins.
func trimOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			out = append(out, o)
		}
	}
	return out
}
