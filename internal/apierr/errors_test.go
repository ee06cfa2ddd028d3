package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/segmentio/encoding/json"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/barneshut"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/gravity"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/logger"
)

func TestNew(t *testing.T) {
	err := New(ErrTreeDegenerate, "coincident bodies", http.StatusUnprocessableEntity)
	if err.Code != ErrTreeDegenerate {
		t.Errorf("expected code %s, got %s", ErrTreeDegenerate, err.Code)
	}
	if err.Status() != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, err.Status())
	}
	if err.Error() != "TREE_DEGENERATE: coincident bodies" {
		t.Errorf("unexpected error string %q", err.Error())
	}
}

func TestWriteErrorWithContext(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/forces", nil)
	r = r.WithContext(context.WithValue(r.Context(), logger.RequestIDKey, "req-123"))

	WriteErrorWithContext(w, r, BodiesEmpty())

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != ErrBodiesEmpty {
		t.Fatalf("unexpected response %+v", resp.Error)
	}
	if resp.Error.RequestID != "req-123" {
		t.Errorf("expected request ID 'req-123', got '%s'", resp.Error.RequestID)
	}
}

func TestHelperFunctions(t *testing.T) {
	tests := []struct {
		name       string
		createErr  func() *Error
		wantCode   ErrorCode
		wantStatus int
	}{
		{"BodiesEmpty", BodiesEmpty, ErrBodiesEmpty, http.StatusBadRequest},
		{"BodiesInvalid", func() *Error { return BodiesInvalid("") }, ErrBodiesInvalid, http.StatusBadRequest},
		{"BodiesTooMany", func() *Error { return BodiesTooMany(10) }, ErrBodiesTooMany, http.StatusRequestEntityTooLarge},
		{"TreeDegenerate", func() *Error { return TreeDegenerate("") }, ErrTreeDegenerate, http.StatusUnprocessableEntity},
		{"SimulationNotFound", func() *Error { return SimulationNotFound("x") }, ErrSimulationNotFound, http.StatusNotFound},
		{"SimulationLimit", func() *Error { return SimulationLimit(4) }, ErrSimulationLimit, http.StatusServiceUnavailable},
		{"SystemInternal", func() *Error { return SystemInternal("") }, ErrSystemInternal, http.StatusInternalServerError},
		{"SystemDatabase", func() *Error { return SystemDatabase("") }, ErrSystemDatabase, http.StatusInternalServerError},
		{"SystemUnavailable", func() *Error { return SystemUnavailable("") }, ErrSystemUnavailable, http.StatusServiceUnavailable},
		{"SystemTimeout", func() *Error { return SystemTimeout("") }, ErrSystemTimeout, http.StatusRequestTimeout},
		{"ValidationInvalidJSON", ValidationInvalidJSON, ErrValidationInvalidJSON, http.StatusBadRequest},
		{"ValidationInvalidFormat", func() *Error { return ValidationInvalidFormat("") }, ErrValidationInvalidFormat, http.StatusBadRequest},
		{"ValidationMissingField", func() *Error { return ValidationMissingField("bodies") }, ErrValidationMissingField, http.StatusBadRequest},
		{"ValidationInvalidValue", func() *Error { return ValidationInvalidValue("theta", "") }, ErrValidationInvalidValue, http.StatusBadRequest},
		{"RateLimitGlobal", RateLimitGlobal, ErrRateLimitGlobal, http.StatusTooManyRequests},
		{"RateLimitIP", RateLimitIP, ErrRateLimitIP, http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.createErr()
			if err.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, err.Code)
			}
			if err.Status() != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, err.Status())
			}
			if err.Message == "" {
				t.Error("expected non-empty message")
			}
		})
	}
}

func TestFromSolverError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"no bodies", barneshut.ErrNoBodies, ErrBodiesEmpty},
		{"invalid body", fmt.Errorf("body 3: %w", barneshut.ErrInvalidBody), ErrBodiesInvalid},
		{"degenerate", fmt.Errorf("insert body 1: %w", barneshut.ErrDegenerateInsert), ErrTreeDegenerate},
		{"options", fmt.Errorf("%w: theta", barneshut.ErrInvalidOptions), ErrValidationInvalidValue},
		{"deadline", context.DeadlineExceeded, ErrSystemTimeout},
		{"too many bodies", &gravity.TooManyBodiesError{Count: 11, Limit: 10}, ErrBodiesTooMany},
		{"api error passes through", fmt.Errorf("wrap: %w", SimulationNotFound("a")), ErrSimulationNotFound},
		{"unknown", errors.New("boom"), ErrSystemInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromSolverError(tt.err); got.Code != tt.want {
				t.Errorf("FromSolverError(%v) = %s, want %s", tt.err, got.Code, tt.want)
			}
		})
	}
}

func TestInternalErrorsHideCause(t *testing.T) {
	got := FromSolverError(errors.New("pq: password authentication failed"))
	if got.Message != "Internal server error" {
		t.Errorf("internal cause leaked into message: %q", got.Message)
	}
}
