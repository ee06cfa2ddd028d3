package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/logger"
)

func TestRequestIDMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID, ok := r.Context().Value(logger.RequestIDKey).(string)
		if !ok || reqID == "" {
			t.Error("Request ID not found in context")
		}
		if _, err := uuid.Parse(reqID); err != nil {
			t.Errorf("generated request ID %q is not a UUID: %v", reqID, err)
		}
		if reqID != w.Header().Get(RequestIDHeader) {
			t.Error("Request ID in context doesn't match response header")
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	RequestID(handler).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestRequestIDMiddleware_IncomingID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"existing id preserved", "existing-request-id", true},
		{"too long replaced", strings.Repeat("a", maxRequestIDLen+1), false},
		{"control characters replaced", "abc\ndef", false},
		{"spaces replaced", "abc def", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = r.Context().Value(logger.RequestIDKey).(string)
			})

			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set(RequestIDHeader, tt.incoming)
			w := httptest.NewRecorder()
			RequestID(handler).ServeHTTP(w, req)

			if (seen == tt.incoming) != tt.keep {
				t.Errorf("incoming %q kept=%v, want %v", tt.incoming, seen == tt.incoming, tt.keep)
			}
			if w.Header().Get(RequestIDHeader) != seen {
				t.Errorf("response header %q does not match context %q", w.Header().Get(RequestIDHeader), seen)
			}
		})
	}
}
