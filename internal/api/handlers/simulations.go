package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/apierr"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/gravity"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/logger"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/simulation"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/store"
)

// SnapshotReader reads persisted frames.
type SnapshotReader interface {
	LatestSnapshot(ctx context.Context, id uuid.UUID) (simulation.Frame, error)
	ListSnapshots(ctx context.Context, id uuid.UUID) ([]store.SnapshotInfo, error)
}

// CreateSimulationRequest is the body of POST /api/simulations.
type CreateSimulationRequest struct {
	Bodies []simulation.Particle `json:"bodies"`
	Dt     float64               `json:"dt"`
	Theta  *float64              `json:"theta,omitempty"`
	G      *float64              `json:"g,omitempty"`
	Bounds string                `json:"bounds,omitempty"`
	Steps  int64                 `json:"steps,omitempty"`
}

// SimulationList is the body of GET /api/simulations.
type SimulationList struct {
	Simulations []simulation.Summary `json:"simulations"`
	Limit       int                  `json:"limit"`
}

// SimulationHandler serves the /api/simulations routes.
type SimulationHandler struct {
	svc       *gravity.Service
	registry  *simulation.Registry
	hub       *Hub
	snapshots SnapshotReader

	// baseCtx outlives requests; runners stop when it is cancelled.
	baseCtx context.Context
}

// NewSimulationHandler creates the handler. snapshots may be nil when no
// database is configured.
func NewSimulationHandler(ctx context.Context, svc *gravity.Service, registry *simulation.Registry, hub *Hub, snapshots SnapshotReader) *SimulationHandler {
	return &SimulationHandler{svc: svc, registry: registry, hub: hub, snapshots: snapshots, baseCtx: ctx}
}

// Create handles POST /api/simulations.
func (h *SimulationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSimulationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Steps < 0 {
		writeError(w, r, apierr.ValidationInvalidValue("steps", "steps must not be negative"))
		return
	}
	if err := h.svc.CheckSize(len(req.Bodies)); err != nil {
		writeError(w, r, err)
		return
	}
	opts, err := h.svc.Options(gravity.Request{Theta: req.Theta, G: req.G, Bounds: req.Bounds})
	if err != nil {
		writeError(w, r, err)
		return
	}
	// one runner goroutine per world; parallel force workers would multiply
	opts.Workers = 1

	world, err := simulation.NewWorld(req.Bodies, req.Dt, opts)
	if err != nil {
		if errors.Is(err, simulation.ErrInvalidStep) {
			writeError(w, r, apierr.ValidationInvalidValue("dt", "dt must be a positive finite number"))
			return
		}
		writeError(w, r, err)
		return
	}

	if err := h.registry.Start(h.baseCtx, world, req.Steps); err != nil {
		if errors.Is(err, simulation.ErrLimit) {
			writeError(w, r, apierr.SimulationLimit(h.registry.Limit()))
			return
		}
		writeError(w, r, err)
		return
	}

	summary, _ := h.registry.Summary(world.ID().String())
	logger.InfoContext(r.Context(), "simulation created",
		"sim_id", summary.ID, "bodies", summary.Bodies, "dt", req.Dt, "steps", req.Steps)
	w.Header().Set("Location", "/api/simulations/"+summary.ID)
	writeJSON(w, http.StatusCreated, summary)
}

// List handles GET /api/simulations.
func (h *SimulationHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SimulationList{Simulations: h.registry.List(), Limit: h.registry.Limit()})
}

// Get handles GET /api/simulations/{id}. Worlds no longer registered are
// served from their latest snapshot when a database is configured.
func (h *SimulationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if world, ok := h.registry.Get(id); ok {
		writeJSON(w, http.StatusOK, world.Frame())
		return
	}

	uid, err := uuid.Parse(id)
	if err != nil || h.snapshots == nil {
		writeError(w, r, apierr.SimulationNotFound(id))
		return
	}
	frame, err := h.snapshots.LatestSnapshot(r.Context(), uid)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, r, apierr.SimulationNotFound(id))
	case err != nil:
		writeError(w, r, apierr.SystemDatabase(""))
		logger.ErrorContext(r.Context(), "failed to load snapshot", "sim_id", id, "error", err)
	default:
		writeJSON(w, http.StatusOK, frame)
	}
}

// Snapshots handles GET /api/simulations/{id}/snapshots.
func (h *SimulationHandler) Snapshots(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if h.snapshots == nil {
		writeError(w, r, apierr.SystemUnavailable("Snapshots are not configured"))
		return
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		writeError(w, r, apierr.SimulationNotFound(id))
		return
	}
	infos, err := h.snapshots.ListSnapshots(r.Context(), uid)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list snapshots", "sim_id", id, "error", err)
		writeError(w, r, apierr.SystemDatabase(""))
		return
	}
	if infos == nil {
		infos = []store.SnapshotInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "snapshots": infos})
}

// Delete handles DELETE /api/simulations/{id}.
func (h *SimulationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.registry.Stop(id); err != nil {
		writeError(w, r, apierr.SimulationNotFound(id))
		return
	}
	logger.InfoContext(r.Context(), "simulation deleted", "sim_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// Stream handles GET /api/simulations/{id}/stream.
func (h *SimulationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	world, ok := h.registry.Get(id)
	if !ok {
		writeError(w, r, apierr.SimulationNotFound(id))
		return
	}
	var end *EndPayload
	if s, err := h.registry.Summary(id); err == nil && s.State != simulation.StateRunning {
		end = &EndPayload{ID: id, Error: s.Error}
	}
	if err := h.hub.Serve(w, r, world.Frame(), end); err != nil {
		// the upgrader has already answered the client
		logger.WarnContext(r.Context(), "websocket upgrade failed", "sim_id", id, "error", err)
		return
	}
	// the runner may have stopped between the state check and registration
	if end == nil {
		if s, err := h.registry.Summary(id); err != nil || s.State != simulation.StateRunning {
			h.hub.Finish(id, world.Err())
		}
	}
}
