package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/onnwee/barnes-hut-sim/internal/apierr"
	"github.com/onnwee/barnes-hut-sim/internal/logger"
	"github.com/onnwee/barnes-hut-sim/internal/metrics"
	"github.com/onnwee/barnes-hut-sim/internal/middleware"
	"github.com/onnwee/barnes-hut-sim/sim"
	"github.com/onnwee/barnes-hut-sim/sim/vec2"
	"github.com/prometheus/client_golang/prometheus"
)

// ControlHandler exposes the mutating simulation operations: advancing
// a step, reseeding, and injecting bodies or forces from a client.
type ControlHandler struct {
	sim *sim.Simulation
}

// NewControlHandler creates a new control handler for s.
func NewControlHandler(s *sim.Simulation) *ControlHandler {
	return &ControlHandler{sim: s}
}

// Step advances the simulation by one frame. Concurrent calls while a
// step is already running (including one driven by the server's own
// tick loop) are rejected rather than queued, since Simulation.Step is
// not safe to re-enter.
// POST /api/sim/step
func (h *ControlHandler) Step(w http.ResponseWriter, r *http.Request) {
	if len(h.sim.Bodies) == 0 {
		apierr.WriteErrorWithContext(w, r, apierr.TreeEmptyInput())
		return
	}

	stop := prometheus.NewTimer(metrics.StepDuration)
	ok := h.sim.TryStep()
	stop.ObserveDuration()

	if !ok {
		apierr.WriteErrorWithContext(w, r, apierr.SimAlreadyRunning())
		return
	}
	metrics.StepsTotal.Inc()

	writeJSON(w, FrameResponse{
		Frame:     h.sim.Frame,
		BodyCount: len(h.sim.Bodies),
		NodeCount: len(h.sim.Tree.Nodes),
	})
}

// ResetRequest is the body of a reset request.
type ResetRequest struct {
	BodyCount int `json:"body_count"`
}

// Reset reseeds the simulation with a fresh uniform disc of n bodies.
// POST /api/sim/reset
func (h *ControlHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidJSON())
		return
	}

	sanitizer := &middleware.SanitizeInput{}
	if err := sanitizer.ValidateBodyCount(req.BodyCount); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.SimInvalidParams(err.Error()))
		return
	}

	h.sim.Reset(req.BodyCount)
	logger.Info("simulation reset", "body_count", req.BodyCount)

	writeJSON(w, FrameResponse{Frame: h.sim.Frame, BodyCount: len(h.sim.Bodies)})
}

// AddBodyRequest is the body of an add-body request.
type AddBodyRequest struct {
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	VX     float32 `json:"vx"`
	VY     float32 `json:"vy"`
	Mass   float32 `json:"mass"`
	Radius float32 `json:"radius"`
}

// AddBody appends a new body to the simulation, taking effect on the
// next Step.
// POST /api/sim/bodies
func (h *ControlHandler) AddBody(w http.ResponseWriter, r *http.Request) {
	var req AddBodyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidJSON())
		return
	}

	sanitizer := &middleware.SanitizeInput{}
	if err := sanitizer.ValidateFinite(req.X, req.Y, req.VX, req.VY, req.Mass, req.Radius); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.TreeOutOfBounds(err.Error()))
		return
	}
	if req.Mass <= 0 {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidValue("mass", "mass must be positive"))
		return
	}
	if req.Radius <= 0 {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidValue("radius", "radius must be positive"))
		return
	}

	pos := vec2.New(req.X, req.Y)
	for i := range h.sim.Bodies {
		if vec2.MagSq(vec2.Sub(h.sim.Bodies[i].Pos, pos)) == 0 {
			apierr.WriteErrorWithContext(w, r, apierr.CollisionDegenerate("new body coincides exactly with an existing body's position"))
			return
		}
	}

	h.sim.AddBody(pos, vec2.New(req.VX, req.VY), req.Mass, req.Radius)
	writeJSON(w, FrameResponse{Frame: h.sim.Frame, BodyCount: len(h.sim.Bodies)})
}

// ApplyForceRequest is the body of an apply-force request.
type ApplyForceRequest struct {
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	FX     float32 `json:"fx"`
	FY     float32 `json:"fy"`
	Radius float32 `json:"radius"`
}

// ApplyForce adds an impulse to every body within radius of (x, y) —
// e.g. a client-triggered perturbation, not part of the physical step.
// POST /api/sim/force
func (h *ControlHandler) ApplyForce(w http.ResponseWriter, r *http.Request) {
	var req ApplyForceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidJSON())
		return
	}

	sanitizer := &middleware.SanitizeInput{}
	if err := sanitizer.ValidateFinite(req.X, req.Y, req.FX, req.FY, req.Radius); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.TreeOutOfBounds(err.Error()))
		return
	}
	if req.Radius <= 0 {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidValue("radius", "radius must be positive"))
		return
	}

	h.sim.ApplyForce(vec2.New(req.X, req.Y), vec2.New(req.FX, req.FY), req.Radius)
	writeJSON(w, map[string]string{"status": "ok"})
}
