package apierr

import (
	"context"
	"errors"
	"net/http"

	"github.com/segmentio/encoding/json"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/barneshut"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/gravity"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/logger"
)

// ErrorCode represents a structured error code
type ErrorCode string

// Error code constants organized by category
const (
	// BODIES_ / TREE_ - Barnes-Hut input and construction errors
	ErrBodiesEmpty    ErrorCode = "BODIES_EMPTY"
	ErrBodiesInvalid  ErrorCode = "BODIES_INVALID"
	ErrBodiesTooMany  ErrorCode = "BODIES_TOO_MANY"
	ErrTreeDegenerate ErrorCode = "TREE_DEGENERATE"

	// SIMULATION_ - Simulation lifecycle errors
	ErrSimulationNotFound ErrorCode = "SIMULATION_NOT_FOUND"
	ErrSimulationLimit    ErrorCode = "SIMULATION_LIMIT"

	// SYSTEM_ - System and server errors
	ErrSystemInternal    ErrorCode = "SYSTEM_INTERNAL"
	ErrSystemDatabase    ErrorCode = "SYSTEM_DATABASE"
	ErrSystemUnavailable ErrorCode = "SYSTEM_UNAVAILABLE"
	ErrSystemTimeout     ErrorCode = "SYSTEM_TIMEOUT"

	// VALIDATION_ - Request validation errors
	ErrValidationInvalidJSON   ErrorCode = "VALIDATION_INVALID_JSON"
	ErrValidationInvalidFormat ErrorCode = "VALIDATION_INVALID_FORMAT"
	ErrValidationMissingField  ErrorCode = "VALIDATION_MISSING_FIELD"
	ErrValidationInvalidValue  ErrorCode = "VALIDATION_INVALID_VALUE"

	// RATE_LIMIT_ - Rate limiting errors
	ErrRateLimitGlobal ErrorCode = "RATE_LIMIT_GLOBAL"
	ErrRateLimitIP     ErrorCode = "RATE_LIMIT_IP"
)

// Error represents a structured API error
type Error struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	status    int                    // HTTP status code (not serialized)
}

// ErrorResponse is the top-level error response wrapper
type ErrorResponse struct {
	Error *Error `json:"error"`
}

// New creates a new API error
func New(code ErrorCode, message string, status int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		status:  status,
	}
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.Details = details
	return e
}

// WithRequestID adds a request ID to the error
func (e *Error) WithRequestID(requestID string) *Error {
	e.RequestID = requestID
	return e
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Status returns the HTTP status code
func (e *Error) Status() int {
	return e.status
}

// WriteError writes a structured error response to the HTTP response writer
func WriteError(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status())
	json.NewEncoder(w).Encode(ErrorResponse{Error: err})
}

// BodiesEmpty is returned for a batch without bodies.
func BodiesEmpty() *Error {
	return New(ErrBodiesEmpty, "At least one body is required", http.StatusBadRequest)
}

// BodiesInvalid is returned for non-finite coordinates or negative masses.
func BodiesInvalid(message string) *Error {
	if message == "" {
		message = "Invalid body"
	}
	return New(ErrBodiesInvalid, message, http.StatusBadRequest)
}

// BodiesTooMany is returned when a batch exceeds the configured maximum.
func BodiesTooMany(limit int) *Error {
	return New(ErrBodiesTooMany, "Too many bodies in one batch", http.StatusRequestEntityTooLarge).
		WithDetails(map[string]interface{}{"max_bodies": limit})
}

// TreeDegenerate is returned when coincident bodies are rejected.
func TreeDegenerate(message string) *Error {
	if message == "" {
		message = "Bodies could not be separated in the quadtree"
	}
	return New(ErrTreeDegenerate, message, http.StatusUnprocessableEntity)
}

// SimulationNotFound is returned for unknown simulation ids.
func SimulationNotFound(id string) *Error {
	return New(ErrSimulationNotFound, "Simulation not found", http.StatusNotFound).
		WithDetails(map[string]interface{}{"id": id})
}

// SimulationLimit is returned when no more simulations may be started.
func SimulationLimit(limit int) *Error {
	return New(ErrSimulationLimit, "Too many running simulations", http.StatusServiceUnavailable).
		WithDetails(map[string]interface{}{"max_simulations": limit})
}

// SystemInternal creates an internal server error
func SystemInternal(message string) *Error {
	if message == "" {
		message = "Internal server error"
	}
	return New(ErrSystemInternal, message, http.StatusInternalServerError)
}

// SystemDatabase creates a database error
func SystemDatabase(message string) *Error {
	if message == "" {
		message = "Database error"
	}
	return New(ErrSystemDatabase, message, http.StatusInternalServerError)
}

// SystemUnavailable creates a service unavailable error
func SystemUnavailable(message string) *Error {
	if message == "" {
		message = "Service unavailable"
	}
	return New(ErrSystemUnavailable, message, http.StatusServiceUnavailable)
}

// SystemTimeout creates a system timeout error
func SystemTimeout(message string) *Error {
	if message == "" {
		message = "Request timeout"
	}
	return New(ErrSystemTimeout, message, http.StatusRequestTimeout)
}

// ValidationInvalidJSON creates an invalid JSON error
func ValidationInvalidJSON() *Error {
	return New(ErrValidationInvalidJSON, "Invalid JSON request body", http.StatusBadRequest)
}

// ValidationInvalidFormat creates an invalid format error
func ValidationInvalidFormat(message string) *Error {
	if message == "" {
		message = "Invalid request format"
	}
	return New(ErrValidationInvalidFormat, message, http.StatusBadRequest)
}

// ValidationMissingField creates a missing field error
func ValidationMissingField(field string) *Error {
	return New(ErrValidationMissingField, "Missing required field: "+field, http.StatusBadRequest).
		WithDetails(map[string]interface{}{"field": field})
}

// ValidationInvalidValue creates an invalid value error
func ValidationInvalidValue(field string, message string) *Error {
	if message == "" {
		message = "Invalid value for field: " + field
	}
	return New(ErrValidationInvalidValue, message, http.StatusBadRequest).
		WithDetails(map[string]interface{}{"field": field})
}

// RateLimitGlobal creates a global rate limit error
func RateLimitGlobal() *Error {
	return New(ErrRateLimitGlobal, "Rate limit exceeded - too many requests globally", http.StatusTooManyRequests)
}

// RateLimitIP creates an IP rate limit error
func RateLimitIP() *Error {
	return New(ErrRateLimitIP, "Rate limit exceeded - too many requests from your IP", http.StatusTooManyRequests)
}

// FromSolverError maps errors of the barneshut package to API errors.
// Anything unrecognised becomes SYSTEM_INTERNAL.
func FromSolverError(err error) *Error {
	var apiErr *Error
	var tooMany *gravity.TooManyBodiesError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &tooMany):
		return BodiesTooMany(tooMany.Limit)
	case errors.Is(err, barneshut.ErrNoBodies):
		return BodiesEmpty()
	case errors.Is(err, barneshut.ErrInvalidBody):
		return BodiesInvalid(err.Error())
	case errors.Is(err, barneshut.ErrDegenerateInsert):
		return TreeDegenerate(err.Error())
	case errors.Is(err, barneshut.ErrInvalidOptions):
		return ValidationInvalidValue("options", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return SystemTimeout("")
	}
	return SystemInternal("")
}

// GetRequestID extracts the request ID from the context
func GetRequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		return reqID
	}
	return ""
}

// WriteErrorWithContext writes a structured error response with request ID from context
func WriteErrorWithContext(w http.ResponseWriter, r *http.Request, err *Error) {
	if reqID := GetRequestID(r.Context()); reqID != "" {
		err = err.WithRequestID(reqID)
	}
	WriteError(w, err)
}
