package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/segmentio/encoding/json"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/apierr"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/errorreporting"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/logger"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRawJSON(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// decodeJSON reads one JSON document from the request body.
func decodeJSON(r *http.Request, v interface{}) *apierr.Error {
	if r.Body == nil {
		return apierr.ValidationInvalidJSON()
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apierr.New(apierr.ErrValidationInvalidFormat, "Request body too large", http.StatusRequestEntityTooLarge).
				WithDetails(map[string]interface{}{"max_bytes": tooLarge.Limit})
		case errors.Is(err, io.EOF):
			return apierr.ValidationMissingField("bodies")
		}
		return apierr.ValidationInvalidJSON()
	}
	return nil
}

// writeError maps err to a structured response. Server-side failures are
// logged and reported; client errors only at debug level.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := apierr.FromSolverError(err)
	if e.Status() >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		errorreporting.CaptureErrorWithContext(err,
			map[string]string{"path": r.URL.Path, "method": r.Method},
			map[string]interface{}{"request_id": apierr.GetRequestID(r.Context())})
	} else {
		logger.DebugContext(r.Context(), "request rejected", "path", r.URL.Path, "code", e.Code, "error", err)
	}
	apierr.WriteErrorWithContext(w, r, e)
}
