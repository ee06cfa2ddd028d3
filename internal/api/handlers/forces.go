package handlers

import (
	"net/http"
	"time"

	"github.com/segmentio/encoding/json"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/barneshut"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/cache"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/gravity"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/metrics"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/middleware"
)

// BodyJSON is a body on the wire.
type BodyJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	M float64 `json:"m"`
}

// VecJSON is a force on the wire.
type VecJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BatchRequest is the body of POST /api/forces and POST /api/tree.
type BatchRequest struct {
	Bodies []BodyJSON `json:"bodies"`
	Theta  *float64   `json:"theta,omitempty"`
	G      *float64   `json:"g,omitempty"`
	Method string     `json:"method,omitempty"`
	Bounds string     `json:"bounds,omitempty"`
}

func (b BatchRequest) toRequest() gravity.Request {
	bodies := make([]barneshut.Body, len(b.Bodies))
	for i, body := range b.Bodies {
		bodies[i] = barneshut.Body{X: body.X, Y: body.Y, M: body.M}
	}
	return gravity.Request{Bodies: bodies, Theta: b.Theta, G: b.G, Method: b.Method, Bounds: b.Bounds}
}

// ForcesResponse is the body of a successful POST /api/forces.
type ForcesResponse struct {
	Forces []VecJSON        `json:"forces"`
	Method gravity.Method   `json:"method"`
	Theta  float64          `json:"theta"`
	G      float64          `json:"g"`
	Stats  *barneshut.Stats `json:"stats,omitempty"`
}

// cacheKeyRequest is the canonical form of a batch once defaults are
// resolved, so equivalent requests share a cache entry.
type cacheKeyRequest struct {
	Bodies []BodyJSON     `json:"b"`
	Theta  float64        `json:"t"`
	G      float64        `json:"g"`
	Method gravity.Method `json:"m"`
	Bounds string         `json:"o"`
}

// ForcesHandler serves POST /api/forces.
type ForcesHandler struct {
	svc   *gravity.Service
	cache cache.Cache
	ttl   time.Duration
}

// NewForcesHandler creates the handler. A nil cache disables caching.
func NewForcesHandler(svc *gravity.Service, c cache.Cache, ttl time.Duration) *ForcesHandler {
	return &ForcesHandler{svc: svc, cache: c, ttl: ttl}
}

func (h *ForcesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body BatchRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	req := body.toRequest()

	method, err := gravity.ParseMethod(req.Method)
	if err != nil {
		writeError(w, r, err)
		return
	}
	opts, err := h.svc.Options(req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.CheckSize(len(req.Bodies)); err != nil {
		writeError(w, r, err)
		return
	}

	var key string
	if h.cache != nil {
		canonical, err := json.Marshal(cacheKeyRequest{
			Bodies: body.Bodies,
			Theta:  opts.Theta,
			G:      opts.G,
			Method: method,
			Bounds: opts.Bounds.String(),
		})
		if err == nil {
			key = cache.Key("forces", canonical)
			if data, ok := h.cache.Get(key); ok {
				metrics.APICacheHits.WithLabelValues("forces").Inc()
				w.Header().Set(middleware.CacheHeader, "HIT")
				writeRawJSON(w, http.StatusOK, data)
				return
			}
			metrics.APICacheMisses.WithLabelValues("forces").Inc()
		}
	}

	res, err := h.svc.Forces(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := ForcesResponse{
		Forces: make([]VecJSON, len(res.Forces)),
		Method: res.Method,
		Theta:  opts.Theta,
		G:      opts.G,
	}
	for i, f := range res.Forces {
		resp.Forces[i] = VecJSON{X: f.X, Y: f.Y}
	}
	if res.Method == gravity.MethodBarnesHut {
		stats := res.Stats
		resp.Stats = &stats
	} else {
		resp.Theta = 0
	}

	data, err := json.Marshal(resp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if key != "" {
		h.cache.Set(key, data, h.ttl)
		w.Header().Set(middleware.CacheHeader, "MISS")
	}
	writeRawJSON(w, http.StatusOK, data)
}
