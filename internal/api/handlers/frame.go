package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/onnwee/barnes-hut-sim/internal/apierr"
	"github.com/onnwee/barnes-hut-sim/internal/cache"
	"github.com/onnwee/barnes-hut-sim/internal/logger"
	"github.com/onnwee/barnes-hut-sim/sim"
)

// FrameHandler serves read-only snapshots of a running Simulation.
// Responses are cached per frame number so repeated polling between
// steps costs a cache lookup instead of a full re-encode.
type FrameHandler struct {
	sim   *sim.Simulation
	cache cache.Cache
}

// NewFrameHandler creates a new frame handler for s.
func NewFrameHandler(s *sim.Simulation, c cache.Cache) *FrameHandler {
	return &FrameHandler{sim: s, cache: c}
}

// FrameResponse summarizes the simulation's current state.
type FrameResponse struct {
	Frame     uint64 `json:"frame"`
	BodyCount int    `json:"body_count"`
	NodeCount int    `json:"node_count"`
}

// BodySnapshot is the JSON-facing projection of a body.Body.
type BodySnapshot struct {
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	VX     float32 `json:"vx"`
	VY     float32 `json:"vy"`
	Mass   float32 `json:"mass"`
	Radius float32 `json:"radius"`
}

// BodiesResponse is a full snapshot of every body in the simulation.
type BodiesResponse struct {
	Frame  uint64         `json:"frame"`
	Bodies []BodySnapshot `json:"bodies"`
}

// NodeSnapshot is the JSON-facing projection of a quadtree arena node.
type NodeSnapshot struct {
	Children  uint32  `json:"children"`
	Next      uint32  `json:"next"`
	X         float32 `json:"x"`
	Y         float32 `json:"y"`
	Mass      float32 `json:"mass"`
	QuadX     float32 `json:"quad_x"`
	QuadY     float32 `json:"quad_y"`
	QuadSize  float32 `json:"quad_size"`
	BodyIndex uint32  `json:"body_index"`
}

// NodesResponse is a full snapshot of the quadtree arena from the last
// Attract pass.
type NodesResponse struct {
	Frame uint64         `json:"frame"`
	Nodes []NodeSnapshot `json:"nodes"`
}

// GetFrame reports the current frame number and body/node counts.
// GET /api/sim/frame
func (h *FrameHandler) GetFrame(w http.ResponseWriter, r *http.Request) {
	resp := FrameResponse{
		Frame:     h.sim.Frame,
		BodyCount: len(h.sim.Bodies),
	}
	if h.sim.Tree != nil {
		resp.NodeCount = len(h.sim.Tree.Nodes)
	}
	writeJSON(w, resp)
}

// GetBodies returns every body's current position, velocity, mass, and
// radius. The response is cached by frame number: a poller that calls
// this once per frame will always miss once and then never hit a
// stale frame, since Step bumps the frame before the next request.
// GET /api/sim/bodies
func (h *FrameHandler) GetBodies(w http.ResponseWriter, r *http.Request) {
	cacheKey := fmt.Sprintf("bodies:frame:%d", h.sim.Frame)
	if cached, found := h.cache.Get(cacheKey); found {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		_, _ = w.Write(cached)
		return
	}

	bodies := make([]BodySnapshot, len(h.sim.Bodies))
	for i, b := range h.sim.Bodies {
		bodies[i] = BodySnapshot{X: b.Pos.X, Y: b.Pos.Y, VX: b.Vel.X, VY: b.Vel.Y, Mass: b.Mass, Radius: b.Radius}
	}

	data, err := json.Marshal(BodiesResponse{Frame: h.sim.Frame, Bodies: bodies})
	if err != nil {
		logger.Error("failed to marshal bodies response", "error", err)
		apierr.WriteErrorWithContext(w, r, apierr.SystemInternal("failed to serialize bodies"))
		return
	}

	h.cache.Set(cacheKey, data, 0)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	_, _ = w.Write(data)
}

// GetNodes returns the quadtree arena built during the last Attract
// pass, for clients that want to render or inspect the tree itself.
// GET /api/sim/nodes
func (h *FrameHandler) GetNodes(w http.ResponseWriter, r *http.Request) {
	cacheKey := fmt.Sprintf("nodes:frame:%d", h.sim.Frame)
	if cached, found := h.cache.Get(cacheKey); found {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		_, _ = w.Write(cached)
		return
	}

	var nodes []NodeSnapshot
	if h.sim.Tree != nil {
		nodes = make([]NodeSnapshot, len(h.sim.Tree.Nodes))
		for i, n := range h.sim.Tree.Nodes {
			nodes[i] = NodeSnapshot{
				Children:  n.Children,
				Next:      n.Next,
				X:         n.Pos.X,
				Y:         n.Pos.Y,
				Mass:      n.Mass,
				QuadX:     n.Quad.Center.X,
				QuadY:     n.Quad.Center.Y,
				QuadSize:  n.Quad.Size,
				BodyIndex: n.BodyIndex,
			}
		}
	}

	data, err := json.Marshal(NodesResponse{Frame: h.sim.Frame, Nodes: nodes})
	if err != nil {
		logger.Error("failed to marshal nodes response", "error", err)
		apierr.WriteErrorWithContext(w, r, apierr.SystemInternal("failed to serialize nodes"))
		return
	}

	h.cache.Set(cacheKey, data, 0)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
