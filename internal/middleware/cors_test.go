package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func corsHandler(origins []string) http.Handler {
	return CORS(origins)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestCORS_Origins(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		allowed bool
	}{
		{"configured", []string{"https://viewer.example.org"}, "https://viewer.example.org", true},
		{"trailing slash in config", []string{" https://viewer.example.org/ "}, "https://viewer.example.org", true},
		{"not listed", []string{"https://viewer.example.org"}, "https://other.example.org", false},
		{"default dev server", nil, "http://localhost:5173", true},
		{"any", []string{"*"}, "https://anywhere.example", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/forces", nil)
			req.Header.Set("Origin", tt.origin)
			rr := httptest.NewRecorder()
			corsHandler(tt.origins).ServeHTTP(rr, req)

			require.Equal(t, http.StatusOK, rr.Code)
			if tt.allowed {
				require.Equal(t, tt.origin, rr.Header().Get("Access-Control-Allow-Origin"))
			} else {
				require.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
			}
			require.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
			require.Equal(t, []string{"Origin"}, rr.Header().Values("Vary"))
			require.Equal(t, "X-Request-ID, X-Cache", rr.Header().Get("Access-Control-Expose-Headers"))
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	handler := CORS([]string{"https://viewer.example.org"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/simulations", nil)
	req.Header.Set("Origin", "https://viewer.example.org")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.False(t, called, "preflight must not reach the router")
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, "https://viewer.example.org", rr.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "GET, POST, DELETE, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
	require.Equal(t, "Accept, Content-Type, X-Request-ID", rr.Header().Get("Access-Control-Allow-Headers"))
	require.Equal(t, "300", rr.Header().Get("Access-Control-Max-Age"))
}
