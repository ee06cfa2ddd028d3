package middleware

import (
	"mime"
	"net/http"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/apierr"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes = 10 * 1024 * 1024

// LimitBody caps POST bodies at maxBytes and requires them to be JSON.
// Handlers see a read error once the limit is crossed.
func LimitBody(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > maxBytes {
				apierr.WriteErrorWithContext(w, r, apierr.New(apierr.ErrValidationInvalidFormat,
					"Request body too large", http.StatusRequestEntityTooLarge).
					WithDetails(map[string]interface{}{"max_bytes": maxBytes}))
				return
			}
			if ct := r.Header.Get("Content-Type"); ct != "" {
				if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
					apierr.WriteErrorWithContext(w, r, apierr.New(apierr.ErrValidationInvalidFormat,
						"Content-Type must be application/json", http.StatusUnsupportedMediaType))
					return
				}
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
