// Package handlers provides HTTP handlers for coupling matrix assembly.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kimkyngt/decay-dynamics/internal/modules/coupling"
	"github.com/kimkyngt/decay-dynamics/internal/modules/geometry"
	"github.com/kimkyngt/decay-dynamics/pkg/atom"
	"github.com/kimkyngt/decay-dynamics/pkg/sphere"
	"github.com/rs/zerolog"
)

// Handler handles coupling HTTP requests
type Handler struct {
	service *coupling.Service
	log     zerolog.Logger
}

// NewHandler creates a new coupling handler
func NewHandler(service *coupling.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "coupling").Logger(),
	}
}

// ComputeRequest represents a request to compute coupling matrices
type ComputeRequest struct {
	Positions  [][3]float64 `json:"positions"`
	Wavenumber float64      `json:"wavenumber"`
	Gamma      float64      `json:"gamma"`
	Q          int          `json:"q"`
}

// RunRequest represents a request to sample a geometry and couple it
type RunRequest struct {
	Method      string  `json:"method"`
	Count       int     `json:"count"`
	Radius      float64 `json:"radius,omitempty"`
	Seed        *uint64 `json:"seed,omitempty"`
	NA          float64 `json:"na,omitempty"`
	ThetaTarget float64 `json:"theta_target,omitempty"`
	PhiTarget   float64 `json:"phi_target,omitempty"`
	Wavenumber  float64 `json:"wavenumber"`
	Gamma       float64 `json:"gamma"`
	Q           int     `json:"q"`
}

// HandleCompute handles POST /api/coupling/matrices
func (h *Handler) HandleCompute(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Compute(coupling.ComputeRequest{
		Positions:  req.Positions,
		Wavenumber: req.Wavenumber,
		Gamma:      req.Gamma,
		Q:          req.Q,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	response := map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleRun handles POST /api/coupling/run
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	run, err := h.service.Run(coupling.RunRequest{
		Method:      req.Method,
		Count:       req.Count,
		Radius:      req.Radius,
		Seed:        req.Seed,
		NA:          req.NA,
		ThetaTarget: req.ThetaTarget,
		PhiTarget:   req.PhiTarget,
		Wavenumber:  req.Wavenumber,
		Gamma:       req.Gamma,
		Q:           req.Q,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	response := map[string]interface{}{
		"data": run,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusCreated, response)
}

// HandleListRuns handles GET /api/coupling/runs
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	runs, err := h.service.ListRuns(limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"runs":  runs,
			"count": len(runs),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetRun handles GET /api/coupling/runs/{id}
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Run id is required", http.StatusBadRequest)
		return
	}

	run, err := h.service.GetRun(id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response := map[string]interface{}{
		"data": run,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDeleteRun handles DELETE /api/coupling/runs/{id}
func (h *Handler) HandleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Run id is required", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteRun(id); err != nil {
		h.writeError(w, err)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"deleted": id,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeError maps validation errors to 400, missing runs to 404, and
// everything else to 500
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, coupling.ErrNoAtoms),
		errors.Is(err, coupling.ErrInvalidWavenumber),
		errors.Is(err, coupling.ErrInvalidLinewidth),
		errors.Is(err, atom.ErrInvalidPolarization),
		errors.Is(err, geometry.ErrInvalidMethod),
		errors.Is(err, geometry.ErrInvalidCount),
		errors.Is(err, sphere.ErrInvalidAperture):
		status = http.StatusBadRequest
	case errors.Is(err, coupling.ErrRunNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Coupling request failed")
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
