package handlers

import (
	"net/http"
	"strconv"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/apierr"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/barneshut"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/gravity"
)

// CellJSON is a square region.
type CellJSON struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`
}

// NodeJSON is one quadtree node in pre-order.
type NodeJSON struct {
	X     float64   `json:"x"`
	Y     float64   `json:"y"`
	M     float64   `json:"m"`
	Size  float64   `json:"size"`
	Depth int       `json:"depth"`
	Leaf  bool      `json:"leaf"`
	Cell  *CellJSON `json:"cell,omitempty"`
}

// TreeResponse is the body of a successful POST /api/tree.
type TreeResponse struct {
	Cell      CellJSON        `json:"cell"`
	Mass      float64         `json:"mass"`
	Stats     barneshut.Stats `json:"stats"`
	Nodes     []NodeJSON      `json:"nodes"`
	Truncated bool            `json:"truncated,omitempty"`
}

// TreeHandler serves POST /api/tree. The optional max_depth query parameter
// cuts the dump below that depth.
type TreeHandler struct {
	svc *gravity.Service
}

func NewTreeHandler(svc *gravity.Service) *TreeHandler {
	return &TreeHandler{svc: svc}
}

func (h *TreeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	maxDepth := -1
	if s := r.URL.Query().Get("max_depth"); s != "" {
		d, err := strconv.Atoi(s)
		if err != nil || d < 0 {
			writeError(w, r, apierr.ValidationInvalidValue("max_depth", "max_depth must be a non-negative integer"))
			return
		}
		maxDepth = d
	}

	var body BatchRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	tree, err := h.svc.Tree(r.Context(), body.toRequest())
	if err != nil {
		writeError(w, r, err)
		return
	}

	c := tree.Cell()
	resp := TreeResponse{
		Cell:  CellJSON{X: c.X, Y: c.Y, Size: c.Size},
		Mass:  tree.Mass(),
		Stats: tree.Stats(),
		Nodes: make([]NodeJSON, 0, tree.Stats().Nodes),
	}
	tree.Walk(func(n barneshut.NodeView, level int) bool {
		node := NodeJSON{X: n.X, Y: n.Y, M: n.M, Size: n.Size, Depth: n.Depth, Leaf: n.Leaf}
		if n.Cell != nil {
			node.Cell = &CellJSON{X: n.Cell.X, Y: n.Cell.Y, Size: n.Cell.Size}
		}
		resp.Nodes = append(resp.Nodes, node)
		if maxDepth >= 0 && level >= maxDepth && !n.Leaf {
			resp.Truncated = true
			return false
		}
		return true
	})
	writeJSON(w, http.StatusOK, resp)
}
