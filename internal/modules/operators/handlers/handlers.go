// Package handlers provides HTTP handlers for operator construction.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/kimkyngt/decay-dynamics/internal/modules/operators"
	"github.com/kimkyngt/decay-dynamics/pkg/atom"
	"github.com/rs/zerolog"
)

// Handler handles operator HTTP requests
type Handler struct {
	service *operators.Service
	log     zerolog.Logger
}

// NewHandler creates a new operators handler
func NewHandler(service *operators.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "operators").Logger(),
	}
}

// LoweringRequest represents a request to build a lowering operator
type LoweringRequest struct {
	Q       int       `json:"q"`
	Spins   []float64 `json:"spins"`
	Upper   int       `json:"upper"`
	Lower   int       `json:"lower"`
	Raising bool      `json:"raising,omitempty"`
}

// TwoAtomRequest represents a request to build a two-atom lowering operator
type TwoAtomRequest struct {
	Atom  int       `json:"atom"`
	Q     int       `json:"q"`
	Spins []float64 `json:"spins"`
	Upper int       `json:"upper"`
	Lower int       `json:"lower"`
}

// CoherenceRequest represents a request to build a coherence operator
type CoherenceRequest struct {
	F1 float64 `json:"f1"`
	M1 float64 `json:"m1"`
	F2 float64 `json:"f2"`
	M2 float64 `json:"m2"`
}

// HandleLowering handles POST /api/operators/lowering
func (h *Handler) HandleLowering(w http.ResponseWriter, r *http.Request) {
	var req LoweringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	build := h.service.Lowering
	if req.Raising {
		build = h.service.Raising
	}

	matrix, err := build(req.Q, req.Spins, req.Upper, req.Lower)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"q":      req.Q,
			"spins":  req.Spins,
			"upper":  req.Upper,
			"lower":  req.Lower,
			"matrix": matrix,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleTwoAtomLowering handles POST /api/operators/two-atom
func (h *Handler) HandleTwoAtomLowering(w http.ResponseWriter, r *http.Request) {
	var req TwoAtomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	matrix, err := h.service.TwoAtomLowering(req.Atom, req.Q, req.Spins, req.Upper, req.Lower)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"atom":   req.Atom,
			"q":      req.Q,
			"spins":  req.Spins,
			"upper":  req.Upper,
			"lower":  req.Lower,
			"matrix": matrix,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleCoherence handles POST /api/operators/coherence
func (h *Handler) HandleCoherence(w http.ResponseWriter, r *http.Request) {
	var req CoherenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	matrix, err := h.service.Coherence(req.F1, req.M1, req.F2, req.M2)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"f1":     req.F1,
			"m1":     req.M1,
			"f2":     req.F2,
			"m2":     req.M2,
			"matrix": matrix,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleSpinState handles GET /api/operators/spin-state?f=...&m=...
func (h *Handler) HandleSpinState(w http.ResponseWriter, r *http.Request) {
	f, err := strconv.ParseFloat(r.URL.Query().Get("f"), 64)
	if err != nil {
		http.Error(w, "Invalid f parameter", http.StatusBadRequest)
		return
	}
	m, err := strconv.ParseFloat(r.URL.Query().Get("m"), 64)
	if err != nil {
		http.Error(w, "Invalid m parameter", http.StatusBadRequest)
		return
	}

	state, err := h.service.SpinState(f, m)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"f":     f,
			"m":     m,
			"state": state,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleSphericalBasis handles GET /api/operators/spherical-basis?q=...
func (h *Handler) HandleSphericalBasis(w http.ResponseWriter, r *http.Request) {
	q, err := strconv.Atoi(r.URL.Query().Get("q"))
	if err != nil {
		http.Error(w, "Invalid q parameter", http.StatusBadRequest)
		return
	}

	vector, err := h.service.SphericalBasis(q)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"q":      q,
			"vector": vector,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeError maps domain validation errors to 400 and everything else to 500
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, atom.ErrSublevelOutOfRange),
		errors.Is(err, atom.ErrInvalidPolarization),
		errors.Is(err, atom.ErrInvalidAtomIndex),
		errors.Is(err, atom.ErrManifoldIndex):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Operator construction failed")
	}
	http.Error(w, err.Error(), status)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
