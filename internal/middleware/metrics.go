package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/logger"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Hijack lets websocket upgrades through the recorder.
func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("middleware: response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// routeLabel returns the mux path template so ids do not explode label
// cardinality.
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// RequestMetrics records request counts and latencies per route and logs each
// request. Register it with mux.Router.Use so the matched route is known.
func RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		endpoint := routeLabel(r)
		code := strconv.Itoa(status)
		elapsed := time.Since(start)
		metrics.APIRequestsTotal.WithLabelValues(endpoint, r.Method, code).Inc()
		metrics.APIRequestDuration.WithLabelValues(endpoint, r.Method, code).Observe(elapsed.Seconds())

		logger.DebugContext(r.Context(), "request served",
			"method", r.Method,
			"endpoint", endpoint,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}
